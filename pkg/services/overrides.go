package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
	"github.com/ekaya-inc/quickstack-seed/pkg/config"
	"github.com/ekaya-inc/quickstack-seed/pkg/crypto"
	"github.com/ekaya-inc/quickstack-seed/pkg/facts"
	"github.com/ekaya-inc/quickstack-seed/pkg/logging"
	"github.com/ekaya-inc/quickstack-seed/pkg/models"
)

// SecretParameters receive a freshly generated secret on every run.
var SecretParameters = []string{
	"admin_password",
	"cinder_db_password",
	"cinder_user_password",
	"glance_db_password",
	"glance_user_password",
	"horizon_secret_key",
	"keystone_admin_token",
	"keystone_db_password",
	"mysql_root_password",
	"nova_db_password",
	"nova_user_password",
}

// OverrideClasses are the puppet classes whose parameters get overridden, in order.
var OverrideClasses = []string{
	models.PuppetclassCompute,
	models.PuppetclassController,
}

// BuildOverrides returns the class parameter values for this deployment.
func BuildOverrides(layout facts.Layout, domain string, d config.DeploymentConfig, secrets crypto.SecretGenerator) (map[string]string, error) {
	overrides := map[string]string{
		"verbose":                    "true",
		"private_interface":          layout.PrivateInterface(),
		"public_interface":           layout.PublicInterface(),
		"fixed_network_range":        d.FixedNetworkRange,
		"floating_network_range":     d.FloatingNetworkRange,
		"pacemaker_priv_floating_ip": d.PrivFloatingIP,
		"pacemaker_pub_floating_ip":  d.PubFloatingIP,
		"admin_email":                "admin@" + domain,
	}

	for _, key := range SecretParameters {
		secret, err := secrets.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s: %w", key, err)
		}
		overrides[key] = secret
	}

	return overrides, nil
}

// applyOverrides sets every parameter of class named in overrides. Parameters
// the class does not declare are skipped.
func (s *seedService) applyOverrides(ctx context.Context, class *models.Puppetclass, overrides map[string]string, report *Report) error {
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		lk, err := s.repos.LookupKeys.FindForClass(ctx, class.ID, key)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				s.logger.Debug("Class does not declare parameter, skipping",
					zap.String("class", class.Name),
					zap.String("parameter", key))
				continue
			}
			return err
		}

		lk.DefaultValue = overrides[key]
		lk.Override = true
		if err := s.repos.LookupKeys.Update(ctx, lk); err != nil {
			return err
		}
		report.Record(KindClassParameter, Updated)

		s.logger.Debug("Class parameter overridden",
			zap.String("class", class.Name),
			zap.String("parameter", key),
			zap.String("value", logging.RedactParameter(key, lk.DefaultValue)))
	}

	return nil
}
