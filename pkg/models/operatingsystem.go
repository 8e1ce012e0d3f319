// Package models contains domain types for the provisioning store.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
)

// OS family names as stored in the management system.
const (
	FamilyRedhat = "Redhat"
)

// OperatingSystemKey identifies an operating system record.
type OperatingSystemKey struct {
	Name  string `json:"name"`
	Major string `json:"major"`
	Minor string `json:"minor"`
}

func (k OperatingSystemKey) String() string {
	return fmt.Sprintf("%s %s.%s", k.Name, k.Major, k.Minor)
}

// OperatingSystem represents an installable operating system release.
// PtableIDs and DefaultTemplates are owned by the OS row; the reverse links
// (media, architectures, config templates) are owned by the other side.
type OperatingSystem struct {
	ID               uuid.UUID           `json:"id"`
	Name             string              `json:"name"`
	Major            string              `json:"major"`
	Minor            string              `json:"minor"`
	Type             string              `json:"type"`
	PtableIDs        []uuid.UUID         `json:"ptable_ids"`
	DefaultTemplates []OSDefaultTemplate `json:"default_templates"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// Key returns the identity tuple of the operating system.
func (o *OperatingSystem) Key() OperatingSystemKey {
	return OperatingSystemKey{Name: o.Name, Major: o.Major, Minor: o.Minor}
}

// DefaultTemplateFor returns the default template mapping for a template kind,
// or nil if the operating system has none.
func (o *OperatingSystem) DefaultTemplateFor(kindID uuid.UUID) *OSDefaultTemplate {
	for i := range o.DefaultTemplates {
		if o.DefaultTemplates[i].TemplateKindID == kindID {
			return &o.DefaultTemplates[i]
		}
	}
	return nil
}

// Validate checks the operating system before it is saved.
func (o *OperatingSystem) Validate() error {
	if o.Name == "" || o.Major == "" {
		return fmt.Errorf("%w: operating system requires name and major version", apperrors.ErrValidation)
	}
	return nil
}

// OSDefaultTemplate maps a template kind to the config template an operating
// system uses by default for that kind.
type OSDefaultTemplate struct {
	TemplateKindID   uuid.UUID `json:"template_kind_id"`
	ConfigTemplateID uuid.UUID `json:"config_template_id"`
}
