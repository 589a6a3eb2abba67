package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/campusops/submission-restrict-api/internal/form"
	"github.com/campusops/submission-restrict-api/internal/mod"
	"github.com/campusops/submission-restrict-api/internal/models"
	appErrors "github.com/campusops/submission-restrict-api/pkg/errors"
)

type restrictionStore interface {
	FindByActivity(ctx context.Context, activityID int64) (*models.Restriction, error)
	DeleteByActivity(ctx context.Context, activityID int64) error
	DeleteByCourse(ctx context.Context, courseID int64) error
}

// RestrictService is the entry point for the restricted due-date form: it
// renders the per-activity schema, validates and applies submissions, and
// removes override records when activities or courses go away.
type RestrictService struct {
	registry     *mod.Registry
	restrictions restrictionStore
	audits       auditWriter
	logger       *zap.Logger
}

// NewRestrictService constructs the service.
func NewRestrictService(registry *mod.Registry, restrictions restrictionStore, audits auditWriter, logger *zap.Logger) *RestrictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RestrictService{
		registry:     registry,
		restrictions: restrictions,
		audits:       audits,
		logger:       logger,
	}
}

// baseSchema is the date section of the activity edit form before the
// adapter rewrites it.
func baseSchema() *form.Schema {
	schema := &form.Schema{}
	schema.Add(form.Field{Name: mod.FieldAllowSubmissionsFrom, Type: form.FieldDate, Label: "Allow submissions from"})
	schema.Add(form.Field{Name: mod.FieldDueDate, Type: form.FieldDate, Label: "Due date"})
	schema.Add(form.Field{Name: mod.FieldCutoffDate, Type: form.FieldDate, Label: "Cut-off date"})
	return schema
}

// FunctionalMods lists the activity type names that currently have a usable
// restriction configuration. The host UI hides the restricted due-date
// section for every other type.
func (s *RestrictService) FunctionalMods(ctx context.Context) []string {
	adapters := s.registry.Functional(ctx)
	names := make([]string, 0, len(adapters))
	for _, a := range adapters {
		names = append(names, a.Name())
	}
	return names
}

// RenderForm builds the restricted due-date form for one activity.
func (s *RestrictService) RenderForm(ctx context.Context, modName string, activityID int64, actor mod.Actor) (*form.Schema, error) {
	adapter, ok := s.registry.Lookup(modName)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown activity type")
	}
	if !adapter.IsFunctional(ctx) {
		return nil, appErrors.ErrNotFunctional
	}

	schema := baseSchema()
	if err := adapter.RenderFields(ctx, schema, activityID, actor); err != nil {
		return nil, fmt.Errorf("render %s form for activity %d: %w", modName, activityID, err)
	}
	return schema, nil
}

// SubmitForm validates a form submission and applies it through the adapter.
// Returns the resolved due date.
func (s *RestrictService) SubmitForm(ctx context.Context, modName string, activityID int64, values form.Values, actor mod.Actor, ip, userAgent string) (int64, error) {
	adapter, ok := s.registry.Lookup(modName)
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "unknown activity type")
	}
	if !adapter.IsFunctional(ctx) {
		return 0, appErrors.ErrNotFunctional
	}

	if errs := adapter.Validate(ctx, values); len(errs) > 0 {
		return 0, appErrors.FieldErrors(errs)
	}

	newDate, err := adapter.OnSubmit(ctx, activityID, values, actor)
	if err != nil {
		return 0, fmt.Errorf("apply %s form for activity %d: %w", modName, activityID, err)
	}

	s.auditOverride(ctx, models.AuditActionOverrideSave, actor.UserID, activityID, newDate, ip, userAgent)
	return newDate, nil
}

// DeleteActivityRestriction drops the override record of one activity. The
// activity's stored due date is left alone; this mirrors the cleanup run
// when an activity is deleted from its course.
func (s *RestrictService) DeleteActivityRestriction(ctx context.Context, activityID int64, actor mod.Actor, ip, userAgent string) error {
	if _, err := s.restrictions.FindByActivity(ctx, activityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "activity has no restriction")
		}
		return fmt.Errorf("load restriction for activity %d: %w", activityID, err)
	}
	if err := s.restrictions.DeleteByActivity(ctx, activityID); err != nil {
		return fmt.Errorf("delete restriction for activity %d: %w", activityID, err)
	}
	s.auditOverride(ctx, models.AuditActionOverrideDelete, actor.UserID, activityID, 0, ip, userAgent)
	return nil
}

// DeleteCourseRestrictions drops the override records of every activity in a
// course, the course-deletion cleanup path.
func (s *RestrictService) DeleteCourseRestrictions(ctx context.Context, courseID int64, actor mod.Actor, ip, userAgent string) error {
	if err := s.restrictions.DeleteByCourse(ctx, courseID); err != nil {
		return fmt.Errorf("delete restrictions for course %d: %w", courseID, err)
	}

	resourceID := strconv.FormatInt(courseID, 10)
	log := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionOverrideDelete,
		Resource:   "course",
		ResourceID: &resourceID,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	if err := s.audits.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", log.Action), zap.Error(err))
	}
	return nil
}

func (s *RestrictService) auditOverride(ctx context.Context, action string, userID, activityID, newDate int64, ip, userAgent string) {
	resourceID := strconv.FormatInt(activityID, 10)
	newJSON, _ := json.Marshal(map[string]int64{"new_date": newDate})
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "activity",
		ResourceID: &resourceID,
		NewValues:  newJSON,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	if err := s.audits.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", log.Action), zap.Error(err))
	}
}
