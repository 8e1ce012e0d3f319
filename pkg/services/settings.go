package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
	"github.com/ekaya-inc/quickstack-seed/pkg/models"
	"github.com/ekaya-inc/quickstack-seed/pkg/repositories"
)

// SettingsService reads and writes global settings with YAML-encoded values.
type SettingsService interface {
	Set(ctx context.Context, name string, value any) (Outcome, error)
	Get(ctx context.Context, name string, out any) error
}

type settingsService struct {
	repo   repositories.SettingRepository
	logger *zap.Logger
}

func NewSettingsService(repo repositories.SettingRepository, logger *zap.Logger) SettingsService {
	return &settingsService{
		repo:   repo,
		logger: logger.Named("settings"),
	}
}

var _ SettingsService = (*settingsService)(nil)

func (s *settingsService) Set(ctx context.Context, name string, value any) (Outcome, error) {
	encoded, err := yaml.Marshal(value)
	if err != nil {
		return Updated, fmt.Errorf("failed to encode setting %s: %w", name, err)
	}

	outcome := Updated
	if _, err := s.repo.Get(ctx, name); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return Updated, err
		}
		outcome = Created
	}

	if err := s.repo.Set(ctx, &models.Setting{Name: name, Value: string(encoded)}); err != nil {
		return outcome, err
	}

	s.logger.Debug("Setting saved",
		zap.String("name", name),
		zap.Any("value", value),
		zap.Stringer("outcome", outcome))
	return outcome, nil
}

func (s *settingsService) Get(ctx context.Context, name string, out any) error {
	setting, err := s.repo.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal([]byte(setting.Value), out); err != nil {
		return fmt.Errorf("failed to decode setting %s: %w", name, err)
	}
	return nil
}
