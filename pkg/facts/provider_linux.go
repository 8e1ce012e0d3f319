//go:build linux

package facts

import (
	"context"
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

// LiveProvider reads facts from the running host through netlink.
type LiveProvider struct{}

var _ Provider = (*LiveProvider)(nil)

func NewLiveProvider() *LiveProvider {
	return &LiveProvider{}
}

func (p *LiveProvider) Gather(ctx context.Context) (Facts, error) {
	f := make(Facts)
	if err := hostNaming(f); err != nil {
		return nil, fmt.Errorf("failed to read host name: %w", err)
	}

	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	byIndex := make(map[int]string, len(links))
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		attrs := link.Attrs()
		addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
		if err != nil {
			return nil, fmt.Errorf("failed to list addresses of %s: %w", attrs.Name, err)
		}
		if len(addrs) == 0 {
			continue
		}

		iface := SanitizeInterfaceName(attrs.Name)
		byIndex[attrs.Index] = iface

		// Facter reports the first address of each interface.
		ipnet := addrs[0].IPNet
		f.SetInterface(iface,
			ipnet.IP.String(),
			ipnet.IP.Mask(ipnet.Mask).String(),
			net.IP(ipnet.Mask).String(),
		)
	}

	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	for _, route := range routes {
		if !isDefaultRoute(route) {
			continue
		}
		if iface, ok := byIndex[route.LinkIndex]; ok {
			f[FactDefaultRouteInterface] = iface
			f[FactIPAddress] = f.IPAddress(iface)
			break
		}
	}

	return f, nil
}

func isDefaultRoute(route netlink.Route) bool {
	if route.Dst == nil {
		return true
	}
	ones, _ := route.Dst.Mask.Size()
	return ones == 0 && route.Dst.IP.IsUnspecified()
}
