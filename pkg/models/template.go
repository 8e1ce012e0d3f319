package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
)

// Template kind names registered by the management system.
const (
	TemplateKindProvision = "provision"
	TemplateKindPXELinux  = "PXELinux"
)

// TemplateKind classifies config templates (provision, PXELinux, finish, ...).
type TemplateKind struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ConfigTemplate is a provisioning template rendered by the management system.
// Template holds the raw body; it is never evaluated here.
type ConfigTemplate struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	Template           string      `json:"template"`
	Snippet            bool        `json:"snippet"`
	TemplateKindID     *uuid.UUID  `json:"template_kind_id,omitempty"`
	OperatingSystemIDs []uuid.UUID `json:"operatingsystem_ids"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// Validate checks the template before it is saved. Non-snippet templates
// must carry a kind.
func (t *ConfigTemplate) Validate() error {
	if t.Name == "" || t.Template == "" {
		return fmt.Errorf("%w: config template requires name and body", apperrors.ErrValidation)
	}
	if !t.Snippet && t.TemplateKindID == nil {
		return fmt.Errorf("%w: config template %q requires a template kind", apperrors.ErrValidation, t.Name)
	}
	return nil
}

// Ptable is a partition table layout template.
type Ptable struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Layout    string    `json:"layout"`
	OSFamily  string    `json:"os_family"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the partition table before it is saved.
func (p *Ptable) Validate() error {
	if p.Name == "" || p.Layout == "" {
		return fmt.Errorf("%w: partition table requires name and layout", apperrors.ErrValidation)
	}
	return nil
}
