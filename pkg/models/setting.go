package models

import "time"

// Setting names written by the seeder.
const (
	SettingManagePuppetCA = "manage_puppetca"
	SettingForemanURL     = "foreman_url"
)

// Setting is a global key/value setting of the management system. Value is
// stored YAML-encoded, the way the management system serializes settings.
type Setting struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
