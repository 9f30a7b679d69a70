// Package netutil resolves endpoint specifications into concrete IPv4
// addresses and answers questions about the local host's network identity.
// All lookups go through the system resolver; this package never caches.
package netutil

import (
	"context"
	"net"
	"net/netip"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/dmgav/yugabyte-db/errdefs"
	"github.com/dmgav/yugabyte-db/hostport"
	"github.com/dmgav/yugabyte-db/log"
)

// Lookups slower than this are worth telling the operator about. They are
// never interrupted; DNS hiccups resolve themselves, a cancelled bootstrap
// does not.
const slowLookupThreshold = 200 * time.Millisecond

// lookupper is the slice of net.Resolver used here, swapped out in tests.
type lookupper interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
}

// Resolver turns endpoint hostnames into IPv4 addresses.
type Resolver struct {
	lookup lookupper
	clock  clock.Clock
}

// NewResolver returns a Resolver backed by the system resolver and the wall
// clock.
func NewResolver() *Resolver {
	return &Resolver{
		lookup: net.DefaultResolver,
		clock:  clock.NewClock(),
	}
}

var defaultResolver = NewResolver()

// Resolve resolves the endpoint's host into IPv4 addresses and reattaches the
// endpoint's port to each, preserving the resolver's answer order. An answer
// with no addresses is a network error, never an empty success.
func (r *Resolver) Resolve(ctx context.Context, hp hostport.HostPort) ([]netip.AddrPort, error) {
	addrs, err := r.lookupIPv4(ctx, hp.Host)
	if err != nil {
		return nil, err
	}

	out := make([]netip.AddrPort, 0, len(addrs))
	for _, addr := range addrs {
		addrPort := netip.AddrPortFrom(addr.Unmap(), hp.Port)
		log.G(ctx).WithField("host", hp.Host).Debugf("resolved address %v", addrPort)
		out = append(out, addrPort)
	}
	return out, nil
}

func (r *Resolver) lookupIPv4(ctx context.Context, host string) ([]netip.Addr, error) {
	start := r.clock.Now()
	addrs, err := r.lookup.LookupNetIP(ctx, "ip4", host)
	elapsed := r.clock.Since(start)

	resolveLatency.Update(elapsed)
	if elapsed > slowLookupThreshold {
		log.G(ctx).WithField("host", host).Warnf("resolving address took %v", elapsed)
	}

	if err != nil {
		resolveFailures.Inc()
		return nil, errdefs.ErrNetwork(err, "unable to resolve address for %s", host)
	}
	if len(addrs) == 0 {
		resolveFailures.Inc()
		return nil, errdefs.ErrNetwork(nil, "no addresses found for host %s", host)
	}
	return addrs, nil
}

// ResolveFirst resolves the endpoint and returns its first address. A host
// with several addresses keeps the resolver's preferred one.
func (r *Resolver) ResolveFirst(ctx context.Context, hp hostport.HostPort) (netip.AddrPort, error) {
	addrs, err := r.Resolve(ctx, hp)
	if err != nil {
		return netip.AddrPort{}, err
	}
	if len(addrs) > 1 {
		log.G(ctx).Debugf("%s resolves to %d addresses, using %v", hp, len(addrs), addrs[0])
	}
	return addrs[0], nil
}

// ResolveList resolves every endpoint in input order and drops duplicate
// addresses, keeping the first occurrence. Duplicates are logged and skipped,
// never an error: two endpoint entries naming the same machine is a common
// operator slip.
func (r *Resolver) ResolveList(ctx context.Context, hps []hostport.HostPort) ([]netip.AddrPort, error) {
	var out []netip.AddrPort
	seen := make(map[netip.AddrPort]struct{}, len(hps))
	for _, hp := range hps {
		addrs, err := r.Resolve(ctx, hp)
		if err != nil {
			return nil, err
		}
		for _, addr := range addrs {
			if _, ok := seen[addr]; ok {
				log.G(ctx).Infof("dropping duplicate address %v for %s", addr, hp)
				continue
			}
			seen[addr] = struct{}{}
			out = append(out, addr)
		}
	}
	return out, nil
}

// ParseAddressList parses a comma-separated endpoint list and resolves it
// into a deduplicated address list.
func (r *Resolver) ParseAddressList(ctx context.Context, s string, defaultPort uint16) ([]netip.AddrPort, error) {
	hps, err := hostport.ParseList(s, defaultPort)
	if err != nil {
		return nil, err
	}
	return r.ResolveList(ctx, hps)
}

// Resolve resolves hp with the default resolver.
func Resolve(ctx context.Context, hp hostport.HostPort) ([]netip.AddrPort, error) {
	return defaultResolver.Resolve(ctx, hp)
}

// ResolveFirst resolves hp with the default resolver and returns its first
// address.
func ResolveFirst(ctx context.Context, hp hostport.HostPort) (netip.AddrPort, error) {
	return defaultResolver.ResolveFirst(ctx, hp)
}

// ParseAddressList parses and resolves a comma-separated endpoint list with
// the default resolver.
func ParseAddressList(ctx context.Context, s string, defaultPort uint16) ([]netip.AddrPort, error) {
	return defaultResolver.ParseAddressList(ctx, s, defaultPort)
}
