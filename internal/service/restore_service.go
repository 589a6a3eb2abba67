package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/campusops/submission-restrict-api/internal/mod"
	"github.com/campusops/submission-restrict-api/internal/models"
)

// RequestOriginRestore marks grade-item events emitted while a course backup
// is being restored. Only those trigger the date reset.
const RequestOriginRestore = "restore"

// RestoreService reacts to grade-item-created events from the host. When an
// event originates from a backup restore it re-normalises the dates of the
// activity behind the grade item; every other event is ignored without error.
type RestoreService struct {
	registry *mod.Registry
	config   mod.ConfigProvider
	enabled  bool
	audits   auditWriter
	logger   *zap.Logger
}

// NewRestoreService constructs the service. enabled gates the whole intake.
func NewRestoreService(registry *mod.Registry, config mod.ConfigProvider, enabled bool, audits auditWriter, logger *zap.Logger) *RestoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RestoreService{
		registry: registry,
		config:   config,
		enabled:  enabled,
		audits:   audits,
		logger:   logger,
	}
}

// HandleGradeItemCreated processes one grade-item event. Events that are not
// restore-originated module items, or whose module has no adapter or has
// restore disabled, are silent no-ops.
func (s *RestoreService) HandleGradeItemCreated(ctx context.Context, item models.GradeItem, origin string) error {
	if !s.enabled || origin != RequestOriginRestore || item.ItemType != "mod" {
		return nil
	}

	adapter, ok := s.registry.Lookup(item.ItemModule)
	if !ok {
		return nil
	}

	cfg, err := s.config.ModConfig(ctx, item.ItemModule)
	if err != nil {
		return fmt.Errorf("load %s config: %w", item.ItemModule, err)
	}
	if !cfg.RestoreEnabled {
		return nil
	}

	if err := adapter.ResetSubmissionDatesByGradeItem(ctx, item); err != nil {
		return fmt.Errorf("reset dates for grade item %d: %w", item.ID, err)
	}

	resourceID := strconv.FormatInt(item.ItemInstance, 10)
	log := &models.AuditLog{
		Action:     models.AuditActionRestoreDatesReset,
		Resource:   item.ItemModule,
		ResourceID: &resourceID,
	}
	if err := s.audits.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", log.Action), zap.Error(err))
	}
	return nil
}
