package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// DNSClass summarizes why a host did or did not resolve.
type DNSClass string

const (
	DNSResolves       DNSClass = "RESOLVES"
	DNSNoAddress      DNSClass = "NO_A_RECORD"
	DNSNXDomain       DNSClass = "NXDOMAIN"
	DNSServFail       DNSClass = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName    DNSClass = "INVALID_NAME"
	DNSAddressLiteral DNSClass = "IP_LITERAL"
)

// DNSReport is the result of a DNS diagnosis.
type DNSReport struct {
	Host          string
	Class         DNSClass
	Addrs         []string
	Nameservers   []string
	ResolverError string
}

// DNSTimeout bounds all lookups done by one Diagnose call.
var DNSTimeout = 3 * time.Second

// DNSDiagnoser explains transport failures. It is only used for logging and
// never influences classification.
type DNSDiagnoser struct {
	Resolver *net.Resolver
}

func NewDNSDiagnoser() *DNSDiagnoser {
	return &DNSDiagnoser{Resolver: net.DefaultResolver}
}

// Diagnose resolves the host part of a domain ("host" or "host:port").
func (d *DNSDiagnoser) Diagnose(ctx context.Context, domain string) DNSReport {
	host := strings.TrimSpace(domain)
	if host == "" || strings.Contains(host, "/") {
		return DNSReport{Host: host, Class: DNSInvalidName}
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")

	rep := DNSReport{Host: host}
	if host == "" {
		rep.Class = DNSInvalidName
		return rep
	}
	if net.ParseIP(host) != nil {
		rep.Class = DNSAddressLiteral
		rep.Addrs = []string{host}
		return rep
	}

	ctx, cancel := context.WithTimeout(ctx, DNSTimeout)
	defer cancel()
	r := d.Resolver
	if r == nil {
		r = net.DefaultResolver
	}

	addrs, err := r.LookupHost(ctx, host)
	switch {
	case err == nil && len(addrs) > 0:
		rep.Addrs = addrs
		rep.Class = DNSResolves
		return rep
	case err != nil:
		rep.ResolverError = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) {
			if de.IsNotFound {
				rep.Class = DNSNXDomain
			} else if de.IsTemporary || de.Timeout() {
				rep.Class = DNSServFail
			}
		}
	}

	// a zone with nameservers but no address records is not NXDOMAIN
	if ns, err := r.LookupNS(ctx, host); err == nil && len(ns) > 0 {
		for _, n := range ns {
			rep.Nameservers = append(rep.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		if rep.Class == "" || rep.Class == DNSNXDomain {
			rep.Class = DNSNoAddress
		}
	}

	if rep.Class == "" {
		if rep.ResolverError != "" {
			rep.Class = DNSServFail
		} else {
			rep.Class = DNSNXDomain
		}
	}
	return rep
}
