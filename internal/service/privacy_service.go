package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/campusops/submission-restrict-api/internal/models"
)

type privacyStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Restriction, error)
	AnonymizeUser(ctx context.Context, userID int64) (int64, error)
}

// PrivacyService answers subject-access requests for the override records a
// user has touched, and anonymises them on erasure requests. Override rows
// are kept; only the user reference is removed.
type PrivacyService struct {
	restrictions privacyStore
	audits       auditWriter
	logger       *zap.Logger
}

// NewPrivacyService constructs the service.
func NewPrivacyService(restrictions privacyStore, audits auditWriter, logger *zap.Logger) *PrivacyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrivacyService{restrictions: restrictions, audits: audits, logger: logger}
}

// ExportUserData returns every override record last modified by the user.
func (s *PrivacyService) ExportUserData(ctx context.Context, userID int64) ([]models.Restriction, error) {
	records, err := s.restrictions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("export restrictions for user %d: %w", userID, err)
	}
	return records, nil
}

// AnonymizeUser clears the user reference on every override the user
// touched and reports how many rows were affected.
func (s *PrivacyService) AnonymizeUser(ctx context.Context, userID, actorID int64, ip, userAgent string) (int64, error) {
	affected, err := s.restrictions.AnonymizeUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("anonymize restrictions for user %d: %w", userID, err)
	}

	resourceID := strconv.FormatInt(userID, 10)
	newJSON, _ := json.Marshal(map[string]int64{"rows_affected": affected})
	log := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionPrivacyAnonymize,
		Resource:   "user",
		ResourceID: &resourceID,
		NewValues:  newJSON,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	if err := s.audits.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", log.Action), zap.Error(err))
	}

	return affected, nil
}
