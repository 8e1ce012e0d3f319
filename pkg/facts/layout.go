package facts

import (
	"fmt"
	"net"
	"strings"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
)

// Layout assigns the public and private roles to the host's interfaces.
// PrimaryPrefix is taken from the primary interface's network, SecondaryPrefix
// from the secondary interface's address.
type Layout struct {
	PrimaryInterface   string
	PrimaryPrefix      string
	SecondaryInterface string
	SecondaryPrefix    string
}

// PublicInterface carries the default route.
func (l Layout) PublicInterface() string { return l.PrimaryInterface }

// PrivateInterface is the first other non-loopback interface.
func (l Layout) PrivateInterface() string { return l.SecondaryInterface }

// Layout derives the interface roles. Non-empty overrides replace the derived
// primary and secondary interface names.
func (f Facts) Layout(primaryOverride, secondaryOverride string) (Layout, error) {
	primary := primaryOverride
	if primary == "" {
		primary = f.DefaultInterface()
	}
	if primary == "" {
		return Layout{}, fmt.Errorf("%w: no default-route interface in facts", apperrors.ErrValidation)
	}

	secondary := secondaryOverride
	if secondary == "" {
		for _, iface := range f.Interfaces() {
			if iface != LoopbackInterface && iface != primary {
				secondary = iface
				break
			}
		}
	}
	if secondary == "" {
		return Layout{}, fmt.Errorf("%w: no interface besides %s in facts", apperrors.ErrValidation, primary)
	}

	return Layout{
		PrimaryInterface:   primary,
		PrimaryPrefix:      Prefix(f.Network(primary)),
		SecondaryInterface: secondary,
		SecondaryPrefix:    Prefix(f.IPAddress(secondary)),
	}, nil
}

// Prefix returns the first three octets of an IPv4 address ("192.168.1" for
// 192.168.1.20), or "" when ip is not IPv4.
func Prefix(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.To4() == nil {
		return ""
	}
	v4 := parsed.To4().String()
	return v4[:strings.LastIndexByte(v4, '.')]
}
