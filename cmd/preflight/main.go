// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hamed0406/availability/internal/config"
	"github.com/hamed0406/availability/internal/endpoint"
	"github.com/hamed0406/availability/internal/probe"
)

type diagnoser interface {
	Diagnose(ctx context.Context, domain string) probe.DNSReport
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if config.IsHelp(err) {
			return
		}
		fmt.Fprintln(os.Stderr, "✖", err)
		os.Exit(1)
	}
	if !preflight(context.Background(), cfg, probe.NewDNSDiagnoser(), os.Stdout, os.Stderr) {
		os.Exit(1)
	}
}

// preflight checks the endpoint file the monitor would start with. It fails
// only on what would stop the monitor; skipped endpoints and hosts that do
// not resolve are warnings.
func preflight(ctx context.Context, cfg *config.Settings, dns diagnoser, out, errOut io.Writer) bool {
	ok := func(msg string) { fmt.Fprintln(out, "✔", msg) }
	warn := func(msg string) { fmt.Fprintln(errOut, "⚠", msg) }
	fail := func(msg string) { fmt.Fprintln(errOut, "✖", msg) }

	if cfg.LevelFallback {
		warn(fmt.Sprintf("log level %q is unknown; info will be used.", cfg.LogLevel))
	}

	descs, err := endpoint.Load(cfg.ConfigFile)
	if err != nil {
		fail(err.Error())
		return false
	}
	if len(descs) == 0 {
		warn(cfg.ConfigFile + " defines no endpoints; nothing will be probed.")
	} else {
		ok(fmt.Sprintf("%s: %d endpoints", cfg.ConfigFile, len(descs)))
	}

	seen := map[string]bool{}
	for _, d := range descs {
		domain, err := d.Domain()
		if err != nil {
			warn(fmt.Sprintf("%s: %q has no domain and will be skipped every cycle.", d.Name, d.URL))
			continue
		}
		if seen[domain] {
			continue
		}
		seen[domain] = true

		rep := dns.Diagnose(ctx, domain)
		switch rep.Class {
		case probe.DNSResolves, probe.DNSAddressLiteral:
			ok(fmt.Sprintf("%s resolves", domain))
		default:
			warn(fmt.Sprintf("%s: DNS %s; probes will count as DOWN.", domain, rep.Class))
		}
	}

	ok("preflight passed")
	return true
}
