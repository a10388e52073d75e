package availability

// DomainAvailability is one row of a Snapshot.
type DomainAvailability struct {
	Domain string `json:"domain"`
	Counters
	Percent float64 `json:"availability_percent"`
}

// Snapshot is a read-only view computed on demand. It is never stored.
type Snapshot struct {
	Domains     []DomainAvailability `json:"domains"`
	TotalProbes uint64               `json:"total_probes"`
}

// First returns the first-sighted domain. The metrics sink exports only this
// domain's percentage.
func (s Snapshot) First() (DomainAvailability, bool) {
	if len(s.Domains) == 0 {
		return DomainAvailability{}, false
	}
	return s.Domains[0], true
}

// Lookup finds a domain in the snapshot.
func (s Snapshot) Lookup(domain string) (DomainAvailability, bool) {
	for _, d := range s.Domains {
		if d.Domain == domain {
			return d, true
		}
	}
	return DomainAvailability{}, false
}
