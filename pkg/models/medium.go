package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
)

// Medium is an installation source. Path may contain $major, $minor and $arch
// placeholders expanded by the management system at provisioning time.
type Medium struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	Path               string      `json:"path"`
	OSFamily           string      `json:"os_family"`
	OperatingSystemIDs []uuid.UUID `json:"operatingsystem_ids"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// Validate checks the medium before it is saved.
func (m *Medium) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: medium requires a name", apperrors.ErrValidation)
	}
	if m.Path == "" {
		return fmt.Errorf("%w: medium %q requires a path", apperrors.ErrValidation, m.Name)
	}
	return nil
}
