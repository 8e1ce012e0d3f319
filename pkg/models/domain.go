package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
)

// Domain is a DNS domain hosts are provisioned into.
type Domain struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Fullname  string     `json:"fullname"`
	DNSID     *uuid.UUID `json:"dns_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Validate checks the domain before it is saved.
func (d *Domain) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: domain requires a name", apperrors.ErrValidation)
	}
	return nil
}
