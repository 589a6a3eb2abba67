package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/campusops/submission-restrict-api/internal/form"
	"github.com/campusops/submission-restrict-api/internal/mod"
	"github.com/campusops/submission-restrict-api/internal/models"
)

type auditStub struct {
	logs []*models.AuditLog
	err  error
}

func (s *auditStub) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	if s.err != nil {
		return s.err
	}
	s.logs = append(s.logs, log)
	return nil
}

type settingStoreStub struct {
	values map[string]string
	saved  []*models.Setting
	err    error
}

func (s *settingStoreStub) Get(_ context.Context, name string) (*models.Setting, error) {
	if s.err != nil {
		return nil, s.err
	}
	value, ok := s.values[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Setting{Name: name, Value: value}, nil
}

func (s *settingStoreStub) ListByNames(_ context.Context, names []string) ([]models.Setting, error) {
	if s.err != nil {
		return nil, s.err
	}
	var result []models.Setting
	for _, name := range names {
		if value, ok := s.values[name]; ok {
			result = append(result, models.Setting{Name: name, Value: value})
		}
	}
	return result, nil
}

func (s *settingStoreStub) Upsert(_ context.Context, setting *models.Setting) error {
	if s.err != nil {
		return s.err
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[setting.Name] = setting.Value
	s.saved = append(s.saved, setting)
	return nil
}

type restrictionStoreStub struct {
	record         *models.Restriction
	byUser         []models.Restriction
	deletedByID    []int64
	deletedCourses []int64
	anonymized     []int64
	affected       int64
	err            error
}

func (s *restrictionStoreStub) FindByActivity(_ context.Context, activityID int64) (*models.Restriction, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.record == nil || s.record.ActivityID != activityID {
		return nil, sql.ErrNoRows
	}
	return s.record, nil
}

func (s *restrictionStoreStub) DeleteByActivity(_ context.Context, activityID int64) error {
	if s.err != nil {
		return s.err
	}
	s.deletedByID = append(s.deletedByID, activityID)
	return nil
}

func (s *restrictionStoreStub) DeleteByCourse(_ context.Context, courseID int64) error {
	if s.err != nil {
		return s.err
	}
	s.deletedCourses = append(s.deletedCourses, courseID)
	return nil
}

func (s *restrictionStoreStub) ListByUser(_ context.Context, userID int64) ([]models.Restriction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byUser, nil
}

func (s *restrictionStoreStub) AnonymizeUser(_ context.Context, userID int64) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.anonymized = append(s.anonymized, userID)
	return s.affected, nil
}

type adapterStub struct {
	name          string
	functional    bool
	validateErrs  map[string]string
	submitResult  int64
	submitErr     error
	submitted     []int64
	resetItems    []models.GradeItem
	resetErr      error
	renderedForms int
}

func (a *adapterStub) Name() string { return a.name }

func (a *adapterStub) SettingNames() []string {
	return []string{a.name + "_restore_enabled", a.name + "_timeslots", a.name + "_reasons"}
}

func (a *adapterStub) IsFunctional(context.Context) bool { return a.functional }

func (a *adapterStub) RenderFields(_ context.Context, schema *form.Schema, _ int64, _ mod.Actor) error {
	a.renderedForms++
	schema.Add(form.Field{Name: "new_due_date", Type: form.FieldSelect})
	return nil
}

func (a *adapterStub) Validate(context.Context, form.Values) map[string]string {
	return a.validateErrs
}

func (a *adapterStub) OnSubmit(_ context.Context, activityID int64, _ form.Values, _ mod.Actor) (int64, error) {
	if a.submitErr != nil {
		return 0, a.submitErr
	}
	a.submitted = append(a.submitted, activityID)
	return a.submitResult, nil
}

func (a *adapterStub) ResetSubmissionDatesByGradeItem(_ context.Context, item models.GradeItem) error {
	if a.resetErr != nil {
		return a.resetErr
	}
	a.resetItems = append(a.resetItems, item)
	return nil
}

type configProviderStub struct {
	configs map[string]mod.Config
	err     error
}

func (s *configProviderStub) ModConfig(_ context.Context, modName string) (mod.Config, error) {
	if s.err != nil {
		return mod.Config{}, s.err
	}
	return s.configs[modName], nil
}

type calendarEventStoreStub struct {
	upserted []*models.CalendarEvent
	deleted  []string
	err      error
}

func (s *calendarEventStoreStub) Upsert(_ context.Context, event *models.CalendarEvent) error {
	if s.err != nil {
		return s.err
	}
	s.upserted = append(s.upserted, event)
	return nil
}

func (s *calendarEventStoreStub) DeleteByActivity(_ context.Context, modName string, activityID int64, eventType string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, eventType)
	return nil
}

type assignmentStoreStub struct {
	assignment *models.Assignment
	err        error
}

func (s *assignmentStoreStub) FindByID(_ context.Context, id int64) (*models.Assignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.assignment == nil || s.assignment.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.assignment, nil
}

type userStoreStub struct {
	user       *models.User
	lastLogins []int64
	err        error
}

func (s *userStoreStub) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || s.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *userStoreStub) FindByID(_ context.Context, id int64) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || s.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *userStoreStub) UpdateLastLogin(_ context.Context, id int64, _ time.Time) error {
	s.lastLogins = append(s.lastLogins, id)
	return nil
}
