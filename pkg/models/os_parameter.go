package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
)

// Parameter names read by the RHN/Satellite registration snippet.
const (
	OSParameterSpacewalkType = "spacewalk_type"
	OSParameterSpacewalkHost = "spacewalk_host"
	OSParameterActivationKey = "activation_key"
)

// OsParameter is a host parameter inherited by every host installed with the
// referenced operating system. Parameters are identified by name alone.
type OsParameter struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Value       string     `json:"value"`
	ReferenceID *uuid.UUID `json:"reference_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Validate checks the parameter before it is saved.
func (p *OsParameter) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: operating system parameter requires a name", apperrors.ErrValidation)
	}
	if p.ReferenceID == nil {
		return fmt.Errorf("%w: operating system parameter %q has no operating system", apperrors.ErrValidation, p.Name)
	}
	return nil
}
