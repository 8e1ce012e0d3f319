package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is the configuration file read when no -config flag is given.
const DefaultPath = "config.yaml"

// Config holds all configuration for quickstack-seed.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL store of the management system)
	Database DatabaseConfig `yaml:"database"`

	// RunMigrations applies the bundled schema before seeding. Only useful against a
	// development database; production stores are migrated by the management system.
	RunMigrations bool `yaml:"run_migrations" env:"RUN_MIGRATIONS" env-default:"false"`

	// FactsFile points at a captured `facter --json` (or YAML) dump.
	// Empty means facts are gathered from the local host.
	FactsFile string `yaml:"facts_file" env:"FACTS_FILE" env-default:""`

	Deployment DeploymentConfig `yaml:"deployment"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"foreman"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"foreman"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"4"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// DeploymentConfig describes the records the seeder reconciles.
type DeploymentConfig struct {
	OSName   string `yaml:"os_name" env:"SEED_OS_NAME" env-default:"CentOS"`
	OSMajor  string `yaml:"os_major" env:"SEED_OS_MAJOR" env-default:"6"`
	OSMinor  string `yaml:"os_minor" env:"SEED_OS_MINOR" env-default:"4"`
	OSFamily string `yaml:"os_family" env:"SEED_OS_FAMILY" env-default:"Redhat"`

	MediumName string `yaml:"medium_name" env:"SEED_MEDIUM_NAME" env-default:"OpenStack RHEL mirror"`
	MediumPath string `yaml:"medium_path" env:"SEED_MEDIUM_PATH" env-default:"http://mirror.ox.ac.uk/sites/mirror.centos.org/$major.$minor/os/$arch"`

	// Operating system parameters read by the RHN/Satellite registration snippet.
	// SpacewalkType is "site" for a local Satellite or "hosted" for RHN; the
	// activation key must carry the OpenStack child channel.
	SpacewalkType string `yaml:"spacewalk_type" env:"SPACEWALK_TYPE" env-default:"site"`
	SpacewalkHost string `yaml:"spacewalk_host" env:"SPACEWALK_HOST" env-default:"satellite.example.com"`
	ActivationKey string `yaml:"activation_key" env:"ACTIVATION_KEY" env-default:"1-example"`

	Architecture string `yaml:"architecture" env:"SEED_ARCHITECTURE" env-default:"x86_64"`
	SubnetName   string `yaml:"subnet_name" env:"SEED_SUBNET_NAME" env-default:"OpenStack"`

	PtableName    string `yaml:"ptable_name" env:"SEED_PTABLE_NAME" env-default:"OpenStack Disk Layout"`
	PXEName       string `yaml:"pxe_template_name" env:"SEED_PXE_TEMPLATE_NAME" env-default:"OpenStack PXE Template"`
	KickstartName string `yaml:"kickstart_template_name" env:"SEED_KICKSTART_TEMPLATE_NAME" env-default:"OpenStack Kickstart Template"`

	// Interface roles. Empty means derived from facts: public is the
	// default-route interface, private is the secondary interface.
	PrivateInterface string `yaml:"private_interface" env:"PRIVATE_INTERFACE" env-default:""`
	PublicInterface  string `yaml:"public_interface" env:"PUBLIC_INTERFACE" env-default:""`

	FixedNetworkRange    string `yaml:"fixed_network_range" env:"FIXED_NETWORK_RANGE" env-default:"PRIV_RANGE"`
	FloatingNetworkRange string `yaml:"floating_network_range" env:"FLOATING_NETWORK_RANGE" env-default:"PUB_RANGE"`
	PrivFloatingIP       string `yaml:"pacemaker_priv_floating_ip" env:"PACEMAKER_PRIV_FLOATING_IP" env-default:"PRIV_IP"`
	PubFloatingIP        string `yaml:"pacemaker_pub_floating_ip" env:"PACEMAKER_PUB_FLOATING_IP" env-default:"PUB_IP"`

	EnvironmentName string `yaml:"environment" env:"SEED_ENVIRONMENT" env-default:"production"`
	URLScheme       string `yaml:"url_scheme" env:"SEED_URL_SCHEME" env-default:"https"`
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Load reads configuration from path with environment variable overrides.
// A missing file is not an error: defaults and environment variables apply.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations the seeder cannot act on.
func (c *Config) Validate() error {
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	d := c.Deployment
	if d.OSName == "" || d.OSMajor == "" {
		return fmt.Errorf("deployment os_name and os_major are required")
	}
	if d.URLScheme != "http" && d.URLScheme != "https" {
		return fmt.Errorf("deployment url_scheme must be http or https, got %q", d.URLScheme)
	}
	if d.PrivateInterface != "" && d.PrivateInterface == d.PublicInterface {
		return fmt.Errorf("private_interface and public_interface must differ")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		ResolveHostForDocker(c.Host), c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the connection string in URL form, as golang-migrate expects.
func (c *DatabaseConfig) URL() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     ResolveHostForDocker(c.Host) + ":" + strconv.Itoa(c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}
