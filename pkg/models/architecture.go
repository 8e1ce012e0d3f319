package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
)

// Architecture is a CPU architecture an operating system can be installed on.
type Architecture struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	OperatingSystemIDs []uuid.UUID `json:"operatingsystem_ids"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// Validate checks the architecture before it is saved.
func (a *Architecture) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("%w: architecture requires a name", apperrors.ErrValidation)
	}
	return nil
}
