package models

import (
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
)

// Subnet is an IPv4 network served by DHCP/DNS/TFTP proxies.
type Subnet struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Network   string      `json:"network"`
	Mask      string      `json:"mask"`
	DHCPID    *uuid.UUID  `json:"dhcp_id,omitempty"`
	DNSID     *uuid.UUID  `json:"dns_id,omitempty"`
	TFTPID    *uuid.UUID  `json:"tftp_id,omitempty"`
	DomainIDs []uuid.UUID `json:"domain_ids"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Validate checks that network and mask are dotted-quad IPv4 values.
func (s *Subnet) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: subnet requires a name", apperrors.ErrValidation)
	}
	if ip := net.ParseIP(s.Network); ip == nil || ip.To4() == nil {
		return fmt.Errorf("%w: subnet %q has invalid network %q", apperrors.ErrValidation, s.Name, s.Network)
	}
	if ip := net.ParseIP(s.Mask); ip == nil || ip.To4() == nil {
		return fmt.Errorf("%w: subnet %q has invalid mask %q", apperrors.ErrValidation, s.Name, s.Mask)
	}
	return nil
}
