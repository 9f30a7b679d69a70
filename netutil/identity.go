package netutil

import (
	"context"
	"net/netip"
	"os"
	"strings"

	"github.com/dmgav/yugabyte-db/errdefs"
	"github.com/dmgav/yugabyte-db/hostport"
	"github.com/dmgav/yugabyte-db/log"
)

// For tests.
var osHostname = os.Hostname

// Hostname returns the machine's hostname as reported by the OS.
func Hostname() (string, error) {
	name, err := osHostname()
	if err != nil {
		return "", errdefs.ErrNetwork(err, "unable to determine local hostname")
	}
	return name, nil
}

// FQDN returns the fully qualified domain name of the local host: the
// canonical name the resolver reports for the OS hostname, without the
// trailing dot.
func (r *Resolver) FQDN(ctx context.Context) (string, error) {
	name, err := Hostname()
	if err != nil {
		return "", err
	}

	start := r.clock.Now()
	cname, err := r.lookup.LookupCNAME(ctx, name)
	if elapsed := r.clock.Since(start); elapsed > slowLookupThreshold {
		log.G(ctx).WithField("host", name).Warnf("canonicalizing hostname took %v", elapsed)
	}
	if err != nil {
		return "", errdefs.ErrNetwork(err, "unable to canonicalize hostname %s", name)
	}
	return strings.TrimSuffix(cname, "."), nil
}

// ReplaceWildcard rewrites a wildcard bind address into an endpoint other
// hosts can use: the unspecified address becomes the local FQDN, any concrete
// address keeps its own text form. The port is copied unchanged.
func (r *Resolver) ReplaceWildcard(ctx context.Context, addr netip.AddrPort) (hostport.HostPort, error) {
	if !addr.Addr().Unmap().IsUnspecified() {
		return hostport.FromAddrPort(addr), nil
	}
	fqdn, err := r.FQDN(ctx)
	if err != nil {
		return hostport.HostPort{}, err
	}
	return hostport.New(fqdn, addr.Port()), nil
}

// FQDN returns the local FQDN using the default resolver.
func FQDN(ctx context.Context) (string, error) {
	return defaultResolver.FQDN(ctx)
}

// ReplaceWildcard rewrites addr with the default resolver.
func ReplaceWildcard(ctx context.Context, addr netip.AddrPort) (hostport.HostPort, error) {
	return defaultResolver.ReplaceWildcard(ctx, addr)
}
