// Package hostport provides the HostPort endpoint type used to carry
// operator-supplied "host:port" specifications before and independent of name
// resolution, along with the list operations the cluster bootstrap path
// performs on comma-separated endpoint strings.
package hostport

import (
	"context"
	"net/netip"
	"strconv"
	"strings"

	"github.com/dmgav/yugabyte-db/errdefs"
	"github.com/dmgav/yugabyte-db/log"
)

// HostPort is a host name or IP literal plus a port. It is a comparable value
// type; a zero Port means "unset" and is only meaningful to callers that
// supplied a default of 0 themselves.
type HostPort struct {
	Host string
	Port uint16
}

// New returns a HostPort from already-validated parts.
func New(host string, port uint16) HostPort {
	return HostPort{Host: host, Port: port}
}

// FromAddrPort converts a concrete resolved address back into a HostPort,
// using the address's text form as the host.
func FromAddrPort(addr netip.AddrPort) HostPort {
	return HostPort{Host: addr.Addr().Unmap().String(), Port: addr.Port()}
}

// Parse parses a single "host[:port]" endpoint. The input is split once on
// the first colon: the left side is the host with surrounding whitespace
// stripped, the right side is the port text. When no colon is present
// defaultPort is used. When a colon is present the port text must parse as a
// decimal integer in [0, 65535]; in particular a bare trailing colon fails,
// because a port was explicitly introduced but left empty. Hosts therefore
// never contain an embedded colon.
func Parse(s string, defaultPort uint16) (HostPort, error) {
	host, portText, found := strings.Cut(s, ":")
	host = strings.TrimSpace(host)
	if !found {
		return HostPort{Host: host, Port: defaultPort}, nil
	}

	port, err := strconv.ParseUint(portText, 10, 16)
	if err != nil {
		return HostPort{}, errdefs.ErrInvalidArgument("invalid port in %q", s)
	}
	return HostPort{Host: host, Port: uint16(port)}, nil
}

// ParseList parses a comma-separated endpoint list with Parse, skipping empty
// segments. Input order is preserved. The first malformed entry aborts the
// whole operation.
func ParseList(s string, defaultPort uint16) ([]HostPort, error) {
	var out []HostPort
	for _, entry := range strings.Split(s, ",") {
		if entry == "" {
			continue
		}
		hp, err := Parse(entry, defaultPort)
		if err != nil {
			return nil, err
		}
		out = append(out, hp)
	}
	return out, nil
}

// RemoveFromLists parses every entry of every comma-separated group in lists
// and returns, in input order, the entries that do not equal target. It fails
// with a NotFound error when no entry matched, logging the supplied groups to
// aid diagnosis of the mismatch.
func RemoveFromLists(ctx context.Context, target netip.AddrPort, lists []string, defaultPort uint16) ([]HostPort, error) {
	var (
		remaining []HostPort
		found     bool
	)
	for _, group := range lists {
		for _, entry := range strings.Split(group, ",") {
			if entry == "" {
				continue
			}
			hp, err := Parse(entry, defaultPort)
			if err != nil {
				return nil, err
			}
			if hp.Equal(target) {
				found = true
				continue
			}
			remaining = append(remaining, hp)
		}
	}

	if !found {
		log.G(ctx).WithField("addresses", strings.Join(lists, " ")).Errorf("cannot find %v in the supplied addresses", target)
		return nil, errdefs.ErrNotFound("cannot find %v in the supplied addresses", target)
	}
	return remaining, nil
}

// String formats the endpoint as "host:port" with no added whitespace.
func (hp HostPort) String() string {
	return hp.Host + ":" + strconv.Itoa(int(hp.Port))
}

// Equal reports whether the endpoint names the given resolved address: the
// host must equal the address's text form and the ports must match. A
// hostname entry never equals an IP address it would resolve to; equality
// here is purely textual.
func (hp HostPort) Equal(addr netip.AddrPort) bool {
	return hp.Host == addr.Addr().Unmap().String() && hp.Port == addr.Port()
}

// Join renders endpoints as a comma-separated list, the inverse of ParseList.
func Join(hps []HostPort) string {
	strs := make([]string, 0, len(hps))
	for _, hp := range hps {
		strs = append(strs, hp.String())
	}
	return strings.Join(strs, ",")
}

// IsPrivilegedPort reports whether binding port requires elevated privileges.
// Port 0 is the "any port" sentinel and is never considered privileged.
func IsPrivilegedPort(port uint16) bool {
	return port <= 1024 && port != 0
}
