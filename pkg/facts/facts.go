// Package facts exposes the Facter-style host facts the seeder reads: host
// naming and per-interface IPv4 addressing.
package facts

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// Fact names, as Facter reports them.
const (
	FactHostname  = "hostname"
	FactDomain    = "domain"
	FactFQDN      = "fqdn"
	FactIPAddress = "ipaddress"

	// FactDefaultRouteInterface is not a stock Facter fact. Providers set it when
	// they can read the routing table; otherwise the primary interface is the one
	// carrying FactIPAddress.
	FactDefaultRouteInterface = "default_route_interface"

	ipAddressPrefix = "ipaddress_"
	networkPrefix   = "network_"
	netmaskPrefix   = "netmask_"
)

// LoopbackInterface is never chosen as a primary or secondary interface.
const LoopbackInterface = "lo"

// Facts is a flat name -> value view of host facts.
type Facts map[string]string

// Provider gathers facts for the host being seeded.
type Provider interface {
	Gather(ctx context.Context) (Facts, error)
}

// Domain returns the DNS domain of the host.
func (f Facts) Domain() string {
	if d := f[FactDomain]; d != "" {
		return d
	}
	if _, d, ok := strings.Cut(f[FactFQDN], "."); ok {
		return d
	}
	return ""
}

// FQDN returns the fully qualified host name.
func (f Facts) FQDN() string {
	if fqdn := f[FactFQDN]; fqdn != "" {
		return fqdn
	}
	host, domain := f[FactHostname], f[FactDomain]
	if host == "" || domain == "" {
		return host
	}
	return host + "." + domain
}

func (f Facts) IPAddress(iface string) string { return f[ipAddressPrefix+iface] }
func (f Facts) Network(iface string) string   { return f[networkPrefix+iface] }
func (f Facts) Netmask(iface string) string   { return f[netmaskPrefix+iface] }

// Interfaces returns every interface with an ipaddress_* fact, sorted by name.
func (f Facts) Interfaces() []string {
	var names []string
	for key := range f {
		if name, ok := strings.CutPrefix(key, ipAddressPrefix); ok && name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// DefaultInterface returns the interface holding the default route.
func (f Facts) DefaultInterface() string {
	if iface := f[FactDefaultRouteInterface]; iface != "" {
		return iface
	}
	primary := f[FactIPAddress]
	if primary == "" {
		return ""
	}
	for _, iface := range f.Interfaces() {
		if iface != LoopbackInterface && f.IPAddress(iface) == primary {
			return iface
		}
	}
	return ""
}

// SetInterface records the addressing facts of one interface.
func (f Facts) SetInterface(iface, ip, network, netmask string) {
	f[ipAddressPrefix+iface] = ip
	f[networkPrefix+iface] = network
	f[netmaskPrefix+iface] = netmask
}

var interfaceNameInvalid = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// SanitizeInterfaceName maps a kernel interface name to its fact suffix the way
// Facter does: eth0:1 becomes eth0_1.
func SanitizeInterfaceName(name string) string {
	return interfaceNameInvalid.ReplaceAllString(name, "_")
}
