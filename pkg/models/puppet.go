package models

import (
	"time"

	"github.com/google/uuid"
)

// Puppet class names of the OpenStack quickstack module.
const (
	PuppetclassCompute    = "quickstack::compute"
	PuppetclassController = "quickstack::controller"
)

// Puppetclass is a configuration-management class imported by the management system.
type Puppetclass struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// LookupKey is a parameter declared by a puppet class. Override marks the
// parameter as managed by the management system, with DefaultValue applied.
type LookupKey struct {
	ID            uuid.UUID `json:"id"`
	PuppetclassID uuid.UUID `json:"puppetclass_id"`
	Key           string    `json:"key"`
	DefaultValue  string    `json:"default_value"`
	Override      bool      `json:"override"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Environment is a puppet environment.
type Environment struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
