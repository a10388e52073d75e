// Package metrics exports availability figures in the Prometheus text format.
//
// Two series are published, matching the names dashboards already scrape:
//
//   - total_requests_count: probes attempted since start (counter)
//   - available_perc_first_domain: availability percent of the first
//     domain ever seen (gauge)
//
// The Exporter is a report.Reporter; it is updated once per completed cycle
// and served with Handler.
package metrics
