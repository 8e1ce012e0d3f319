package models

import "github.com/google/uuid"

// Feature names advertised by smart proxies.
const (
	FeatureDNS      = "DNS"
	FeatureDHCP     = "DHCP"
	FeatureTFTP     = "TFTP"
	FeaturePuppet   = "Puppet"
	FeaturePuppetCA = "Puppet CA"
)

// SmartProxy is an external service endpoint offering one or more features.
type SmartProxy struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	URL  string    `json:"url"`
}

// ProxyID returns a pointer to the proxy's ID, or nil for a nil proxy.
// Used to assign optional proxy references.
func ProxyID(p *SmartProxy) *uuid.UUID {
	if p == nil {
		return nil
	}
	id := p.ID
	return &id
}
