// Package catalog registers the records the management system normally owns
// (features, smart proxies, template kinds, imported puppet classes) so the
// seeder can run against a development or test database.
package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ekaya-inc/quickstack-seed/pkg/models"
)

// Querier is satisfied by *pgx.Conn, *pgxpool.Conn, *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Proxy is a smart proxy and the features it offers.
type Proxy struct {
	Name     string
	URL      string
	Features []string
}

// Class is an imported puppet class and its declared parameters.
type Class struct {
	Name       string
	Parameters []string
}

// Catalog is the set of externally owned records to register.
type Catalog struct {
	Features      []string
	Proxies       []Proxy
	TemplateKinds []string
	Classes       []Class
	Environments  []string
}

// DefaultEnvironment is the puppet environment the management system imports
// classes into.
const DefaultEnvironment = "production"

// AllFeatures lists every feature a full smart proxy advertises.
var AllFeatures = []string{
	models.FeatureDNS,
	models.FeatureDHCP,
	models.FeatureTFTP,
	models.FeaturePuppet,
	models.FeaturePuppetCA,
}

// QuickstackClasses mirrors the parameters declared by the quickstack puppet
// module. Each class declares parameters the seeder does not override.
var QuickstackClasses = []Class{
	{
		Name: models.PuppetclassController,
		Parameters: []string{
			"admin_email", "admin_password",
			"cinder_db_password", "cinder_user_password",
			"pacemaker_priv_floating_ip", "pacemaker_pub_floating_ip",
			"glance_db_password", "glance_user_password",
			"horizon_secret_key",
			"keystone_admin_token", "keystone_db_password",
			"mysql_root_password",
			"nova_db_password", "nova_user_password",
			"verbose",
			"enable_swift",
		},
	},
	{
		Name: models.PuppetclassCompute,
		Parameters: []string{
			"pacemaker_priv_floating_ip", "pacemaker_pub_floating_ip",
			"fixed_network_range", "floating_network_range",
			"nova_db_password", "nova_user_password",
			"private_interface", "public_interface",
			"verbose",
			"libvirt_type",
		},
	},
}

// Default returns a catalog with one proxy offering every feature, the
// standard template kinds, the quickstack classes and the production
// environment.
func Default(proxyName, proxyURL string) Catalog {
	return Catalog{
		Features:      AllFeatures,
		Proxies:       []Proxy{{Name: proxyName, URL: proxyURL, Features: AllFeatures}},
		TemplateKinds: []string{models.TemplateKindProvision, models.TemplateKindPXELinux, "gPXE", "finish", "script", "user_data"},
		Classes:       QuickstackClasses,
		Environments:  []string{DefaultEnvironment},
	}
}

// Register inserts the catalog. Existing rows are kept; calling it twice is a no-op.
func Register(ctx context.Context, q Querier, c Catalog) error {
	for _, name := range c.Features {
		if err := registerFeature(ctx, q, name); err != nil {
			return err
		}
	}

	for _, p := range c.Proxies {
		var proxyID uuid.UUID
		err := q.QueryRow(ctx, `
			INSERT INTO smart_proxies (name, url) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET url = EXCLUDED.url
			RETURNING id`, p.Name, p.URL).Scan(&proxyID)
		if err != nil {
			return fmt.Errorf("failed to register proxy %s: %w", p.Name, err)
		}

		for _, feature := range p.Features {
			if err := registerFeature(ctx, q, feature); err != nil {
				return err
			}
			_, err := q.Exec(ctx, `
				INSERT INTO smart_proxy_features (smart_proxy_id, feature_id)
				SELECT $1, id FROM features WHERE name = $2
				ON CONFLICT DO NOTHING`, proxyID, feature)
			if err != nil {
				return fmt.Errorf("failed to attach feature %s to proxy %s: %w", feature, p.Name, err)
			}
		}
	}

	for _, kind := range c.TemplateKinds {
		if _, err := q.Exec(ctx, `INSERT INTO template_kinds (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, kind); err != nil {
			return fmt.Errorf("failed to register template kind %s: %w", kind, err)
		}
	}

	for _, env := range c.Environments {
		if _, err := q.Exec(ctx, `INSERT INTO environments (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, env); err != nil {
			return fmt.Errorf("failed to register environment %s: %w", env, err)
		}
	}

	for _, class := range c.Classes {
		var classID uuid.UUID
		err := q.QueryRow(ctx, `
			INSERT INTO puppetclasses (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, class.Name).Scan(&classID)
		if err != nil {
			return fmt.Errorf("failed to register puppet class %s: %w", class.Name, err)
		}

		for _, param := range class.Parameters {
			_, err := q.Exec(ctx, `
				INSERT INTO lookup_keys (puppetclass_id, key) VALUES ($1, $2)
				ON CONFLICT (puppetclass_id, key) DO NOTHING`, classID, param)
			if err != nil {
				return fmt.Errorf("failed to register parameter %s::%s: %w", class.Name, param, err)
			}
		}
	}

	return nil
}

func registerFeature(ctx context.Context, q Querier, name string) error {
	if _, err := q.Exec(ctx, `INSERT INTO features (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return fmt.Errorf("failed to register feature %s: %w", name, err)
	}
	return nil
}
