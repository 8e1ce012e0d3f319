package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
)

// HostGroup bundles the provisioning and configuration defaults applied to
// every host placed in it.
type HostGroup struct {
	ID                uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	EnvironmentID     *uuid.UUID  `json:"environment_id,omitempty"`
	PuppetclassIDs    []uuid.UUID `json:"puppetclass_ids"`
	PuppetProxyID     *uuid.UUID  `json:"puppet_proxy_id,omitempty"`
	PuppetCAProxyID   *uuid.UUID  `json:"puppet_ca_proxy_id,omitempty"`
	OperatingSystemID *uuid.UUID  `json:"operatingsystem_id,omitempty"`
	ArchitectureID    *uuid.UUID  `json:"architecture_id,omitempty"`
	MediumID          *uuid.UUID  `json:"medium_id,omitempty"`
	PtableID          *uuid.UUID  `json:"ptable_id,omitempty"`
	SubnetID          *uuid.UUID  `json:"subnet_id,omitempty"`
	DomainID          *uuid.UUID  `json:"domain_id,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Validate checks the host group before it is saved.
func (h *HostGroup) Validate() error {
	if h.Name == "" {
		return fmt.Errorf("%w: host group requires a name", apperrors.ErrValidation)
	}
	return nil
}

// RefID returns a pointer to a copy of id.
func RefID(id uuid.UUID) *uuid.UUID {
	return &id
}
