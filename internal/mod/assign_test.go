package mod

import (
	"context"
	"database/sql"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/submission-restrict-api/internal/form"
	"github.com/campusops/submission-restrict-api/internal/models"
	"github.com/campusops/submission-restrict-api/internal/timecalc"
)

type restrictionStoreStub struct {
	records map[int64]*models.Restriction
	deleted []int64
}

func newRestrictionStoreStub() *restrictionStoreStub {
	return &restrictionStoreStub{records: make(map[int64]*models.Restriction)}
}

func (s *restrictionStoreStub) FindByActivity(ctx context.Context, activityID int64) (*models.Restriction, error) {
	if rec, ok := s.records[activityID]; ok {
		copied := *rec
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *restrictionStoreStub) Upsert(ctx context.Context, rec *models.Restriction) error {
	copied := *rec
	s.records[rec.ActivityID] = &copied
	return nil
}

func (s *restrictionStoreStub) DeleteByActivity(ctx context.Context, activityID int64) error {
	delete(s.records, activityID)
	s.deleted = append(s.deleted, activityID)
	return nil
}

type assignmentStoreStub struct {
	assignments map[int64]*models.Assignment
	dateUpdates int
}

func newAssignmentStoreStub(assignments ...*models.Assignment) *assignmentStoreStub {
	s := &assignmentStoreStub{assignments: make(map[int64]*models.Assignment)}
	for _, a := range assignments {
		s.assignments[a.ID] = a
	}
	return s
}

func (s *assignmentStoreStub) FindByID(ctx context.Context, id int64) (*models.Assignment, error) {
	if a, ok := s.assignments[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *assignmentStoreStub) UpdateDueDate(ctx context.Context, id, dueDate int64) error {
	if a, ok := s.assignments[id]; ok {
		a.DueDate = dueDate
	}
	return nil
}

func (s *assignmentStoreStub) UpdateDates(ctx context.Context, id, dueDate, cutoffDate int64) error {
	s.dateUpdates++
	if a, ok := s.assignments[id]; ok {
		a.DueDate = dueDate
		a.CutoffDate = cutoffDate
	}
	return nil
}

type calendarStub struct {
	refreshed []int64
	scheduled []int64
}

func (c *calendarStub) Refresh(ctx context.Context, modName string, activityID int64) error {
	c.refreshed = append(c.refreshed, activityID)
	return nil
}

func (c *calendarStub) Schedule(modName string, activityID int64) error {
	c.scheduled = append(c.scheduled, activityID)
	return nil
}

type configProviderStub struct {
	cfg Config
	err error
}

func (p configProviderStub) ModConfig(ctx context.Context, mod string) (Config, error) {
	if p.err != nil {
		return Config{}, p.err
	}
	return p.cfg, nil
}

func functionalConfig() Config {
	return Config{
		RestoreEnabled: true,
		RestoreTime:    timecalc.New(10, 15),
		Timeslots:      []string{"09:00", "17:00", "23:55"},
		Reasons:        []string{"Extension granted", "Exam conflict"},
	}
}

func newTestAssign(restrictions *restrictionStoreStub, assignments *assignmentStoreStub, calendar *calendarStub, cfg Config) *Assign {
	return NewAssign(restrictions, assignments, calendar, configProviderStub{cfg: cfg}, time.UTC, nil)
}

func unixAt(t *testing.T, value string) int64 {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02 15:04", value, time.UTC)
	require.NoError(t, err)
	return parsed.Unix()
}

func TestAssignIsFunctional(t *testing.T) {
	adapter := newTestAssign(newRestrictionStoreStub(), newAssignmentStoreStub(), &calendarStub{}, functionalConfig())
	assert.True(t, adapter.IsFunctional(context.Background()))

	empty := newTestAssign(newRestrictionStoreStub(), newAssignmentStoreStub(), &calendarStub{}, Config{Timeslots: []string{"09:00"}})
	assert.False(t, empty.IsFunctional(context.Background()))
}

func TestAssignRenderFieldsWithOverrideCapability(t *testing.T) {
	assignments := newAssignmentStoreStub(&models.Assignment{ID: 7, DueDate: unixAt(t, "2021-11-12 17:00")})
	adapter := newTestAssign(newRestrictionStoreStub(), assignments, &calendarStub{}, functionalConfig())

	schema := &form.Schema{}
	schema.Add(form.Field{Name: FieldAllowSubmissionsFrom, Type: form.FieldDate})
	schema.Add(form.Field{Name: FieldDueDate, Type: form.FieldDate})
	schema.Add(form.Field{Name: FieldCutoffDate, Type: form.FieldDate})

	err := adapter.RenderFields(context.Background(), schema, 7, Actor{UserID: 1, CanOverride: true})
	require.NoError(t, err)

	due := schema.Get(FieldDueDate)
	require.NotNil(t, due)
	assert.Equal(t, form.FieldHidden, due.Type)
	assert.Equal(t, "0", due.Default)

	newDue := schema.Get(FieldNewDueDate)
	require.NotNil(t, newDue)
	require.Len(t, newDue.Options, 4)
	assert.Equal(t, OtherOption, newDue.Options[3].Value)
	assert.Equal(t, strconv.FormatInt(unixAt(t, "2021-11-12 17:00"), 10), newDue.Default)

	group := schema.Get(FieldOverrideGroup)
	require.NotNil(t, group)
	require.Len(t, group.Rules, 1)
	assert.Equal(t, form.RuleHideIf, group.Rules[0].Kind)
	assert.Equal(t, OtherOption, group.Rules[0].Value)
	require.Len(t, group.Fields, 3)
}

func TestAssignRenderFieldsExistingOverrideDefaults(t *testing.T) {
	newDate := unixAt(t, "2021-11-12 14:35")
	restrictions := newRestrictionStoreStub()
	restrictions.records[7] = &models.Restriction{ActivityID: 7, ModName: "assign", NewDate: newDate, Reason: "Extension granted"}
	assignments := newAssignmentStoreStub(&models.Assignment{ID: 7, DueDate: newDate})
	adapter := newTestAssign(restrictions, assignments, &calendarStub{}, functionalConfig())

	schema := &form.Schema{}
	schema.Add(form.Field{Name: FieldCutoffDate, Type: form.FieldDate})

	err := adapter.RenderFields(context.Background(), schema, 7, Actor{UserID: 1, CanOverride: true})
	require.NoError(t, err)

	assert.Equal(t, strconv.FormatInt(unixAt(t, "2021-11-12 00:00"), 10), schema.Get(FieldNewDueDate).Default)
	assert.Equal(t, "14", schema.Get(FieldHour).Default)
	assert.Equal(t, "35", schema.Get(FieldMinute).Default)
	assert.Equal(t, "Extension granted", schema.Get(FieldReason).Default)
}

func TestAssignRenderFieldsWithoutOverrideCapabilityShowsStatic(t *testing.T) {
	newDate := unixAt(t, "2021-11-12 14:35")
	restrictions := newRestrictionStoreStub()
	restrictions.records[7] = &models.Restriction{ActivityID: 7, ModName: "assign", NewDate: newDate, Reason: "Exam conflict"}
	assignments := newAssignmentStoreStub(&models.Assignment{ID: 7, DueDate: newDate})
	adapter := newTestAssign(restrictions, assignments, &calendarStub{}, functionalConfig())

	schema := &form.Schema{}
	schema.Add(form.Field{Name: FieldCutoffDate, Type: form.FieldDate})

	err := adapter.RenderFields(context.Background(), schema, 7, Actor{UserID: 2, CanOverride: false})
	require.NoError(t, err)

	assert.Nil(t, schema.Get(FieldNewDueDate))
	static := schema.Get(FieldStaticOverride)
	require.NotNil(t, static)
	assert.Contains(t, static.Text, "Exam conflict")
	// The hidden due date carries the override so saving keeps it.
	assert.Equal(t, strconv.FormatInt(newDate, 10), schema.Get(FieldDueDate).Default)
}

func TestAssignValidateRequiresReason(t *testing.T) {
	adapter := newTestAssign(newRestrictionStoreStub(), newAssignmentStoreStub(), &calendarStub{}, functionalConfig())

	values := form.Values{
		FieldReason: "",
	}
	errs := adapter.Validate(context.Background(), values)
	assert.Contains(t, errs, FieldOverrideGroup)

	values[FieldReason] = ReasonPlaceholder
	errs = adapter.Validate(context.Background(), values)
	assert.Contains(t, errs, FieldOverrideGroup)

	values[FieldReason] = "Extension granted"
	errs = adapter.Validate(context.Background(), values)
	assert.NotContains(t, errs, FieldOverrideGroup)
}

func TestAssignValidateDueBeforeAllowFrom(t *testing.T) {
	adapter := newTestAssign(newRestrictionStoreStub(), newAssignmentStoreStub(), &calendarStub{}, functionalConfig())

	allowFrom := unixAt(t, "2021-11-12 09:00")

	// Standard slot earlier than allow-from: error on the date element.
	values := form.Values{
		FieldAllowSubmissionsFrom: strconv.FormatInt(allowFrom, 10),
		FieldNewDueDateTime:       strconv.FormatInt(unixAt(t, "2021-11-12 08:00"), 10),
	}
	errs := adapter.Validate(context.Background(), values)
	assert.Contains(t, errs, FieldNewDueDate)

	// Custom override: error attributed to the override group.
	values[FieldNewDueDateOverridden] = "1"
	values[FieldHour] = "8"
	values[FieldMinute] = "30"
	values[FieldReason] = "Extension granted"
	errs = adapter.Validate(context.Background(), values)
	assert.Contains(t, errs, FieldOverrideGroup)

	// Hidden due-date path: error lands on allow-submissions-from.
	hidden := form.Values{
		FieldAllowSubmissionsFrom: strconv.FormatInt(allowFrom, 10),
		FieldDueDate:              strconv.FormatInt(unixAt(t, "2021-11-12 08:00"), 10),
	}
	errs = adapter.Validate(context.Background(), hidden)
	assert.Contains(t, errs, FieldAllowSubmissionsFrom)
}

func TestAssignOnSubmitCustomOverrideCreatesRecord(t *testing.T) {
	restrictions := newRestrictionStoreStub()
	assignments := newAssignmentStoreStub(&models.Assignment{ID: 7})
	calendar := &calendarStub{}
	adapter := newTestAssign(restrictions, assignments, calendar, functionalConfig())

	day := unixAt(t, "2021-11-12 00:00")
	values := form.Values{
		FieldNewDueDateEnabled:    "1",
		FieldNewDueDateTime:       strconv.FormatInt(day, 10),
		FieldNewDueDateOverridden: "1",
		FieldHour:                 "14",
		FieldMinute:               "35",
		FieldReason:               "Extension granted",
	}

	newDate, err := adapter.OnSubmit(context.Background(), 7, values, Actor{UserID: 42, CanOverride: true})
	require.NoError(t, err)
	assert.Equal(t, unixAt(t, "2021-11-12 14:35"), newDate)

	rec := restrictions.records[7]
	require.NotNil(t, rec)
	assert.Equal(t, newDate, rec.NewDate)
	assert.Equal(t, "Extension granted", rec.Reason)
	assert.Equal(t, int64(42), rec.ModifiedBy)

	assert.Equal(t, newDate, assignments.assignments[7].DueDate)
	assert.Equal(t, []int64{7}, calendar.refreshed)
}

func TestAssignOnSubmitStandardSlotDeletesRecord(t *testing.T) {
	restrictions := newRestrictionStoreStub()
	restrictions.records[7] = &models.Restriction{ActivityID: 7, ModName: "assign", NewDate: 100, Reason: "Old"}
	assignments := newAssignmentStoreStub(&models.Assignment{ID: 7})
	adapter := newTestAssign(restrictions, assignments, &calendarStub{}, functionalConfig())

	slot := unixAt(t, "2021-11-12 17:00")
	values := form.Values{
		FieldNewDueDateEnabled: "1",
		FieldNewDueDateTime:    strconv.FormatInt(slot, 10),
	}

	newDate, err := adapter.OnSubmit(context.Background(), 7, values, Actor{UserID: 42})
	require.NoError(t, err)
	assert.Equal(t, slot, newDate)
	assert.NotContains(t, restrictions.records, int64(7))
	assert.Equal(t, []int64{7}, restrictions.deleted)
}

func TestAssignOnSubmitDisabledClearsDueDate(t *testing.T) {
	restrictions := newRestrictionStoreStub()
	restrictions.records[7] = &models.Restriction{ActivityID: 7, ModName: "assign", NewDate: 100, Reason: "Old"}
	assignments := newAssignmentStoreStub(&models.Assignment{ID: 7, DueDate: 100})
	adapter := newTestAssign(restrictions, assignments, &calendarStub{}, functionalConfig())

	values := form.Values{FieldNewDueDateEnabled: "0"}

	newDate, err := adapter.OnSubmit(context.Background(), 7, values, Actor{UserID: 42})
	require.NoError(t, err)
	assert.Zero(t, newDate)
	assert.Zero(t, assignments.assignments[7].DueDate)
	assert.NotContains(t, restrictions.records, int64(7))
}

func TestAssignOnSubmitPlainDueDatePassthrough(t *testing.T) {
	assignments := newAssignmentStoreStub(&models.Assignment{ID: 7})
	adapter := newTestAssign(newRestrictionStoreStub(), assignments, &calendarStub{}, functionalConfig())

	due := unixAt(t, "2021-11-12 17:00")
	values := form.Values{FieldDueDate: strconv.FormatInt(due, 10)}

	newDate, err := adapter.OnSubmit(context.Background(), 7, values, Actor{UserID: 42})
	require.NoError(t, err)
	assert.Equal(t, due, newDate)
}

func TestAssignResetSubmissionDates(t *testing.T) {
	assignments := newAssignmentStoreStub(&models.Assignment{
		ID:         7,
		DueDate:    unixAt(t, "2021-11-12 15:00"),
		CutoffDate: unixAt(t, "2021-11-13 18:00"),
	})
	calendar := &calendarStub{}
	adapter := newTestAssign(newRestrictionStoreStub(), assignments, calendar, functionalConfig())

	err := adapter.ResetSubmissionDatesByGradeItem(context.Background(), models.GradeItem{ItemInstance: 7, ItemType: "mod", ItemModule: "assign"})
	require.NoError(t, err)

	assert.Equal(t, unixAt(t, "2021-11-12 10:15"), assignments.assignments[7].DueDate)
	assert.Equal(t, unixAt(t, "2021-11-13 10:15"), assignments.assignments[7].CutoffDate)
	assert.Equal(t, []int64{7}, calendar.scheduled)
}

func TestAssignResetSubmissionDatesNoChangeSkipsUpdate(t *testing.T) {
	assignments := newAssignmentStoreStub(&models.Assignment{
		ID:      7,
		DueDate: unixAt(t, "2021-11-12 10:15"),
	})
	calendar := &calendarStub{}
	adapter := newTestAssign(newRestrictionStoreStub(), assignments, calendar, functionalConfig())

	err := adapter.ResetSubmissionDatesByGradeItem(context.Background(), models.GradeItem{ItemInstance: 7})
	require.NoError(t, err)

	assert.Zero(t, assignments.dateUpdates)
	assert.Empty(t, calendar.scheduled)
}

func TestAssignResetSubmissionDatesMissingAssignmentIsNoop(t *testing.T) {
	adapter := newTestAssign(newRestrictionStoreStub(), newAssignmentStoreStub(), &calendarStub{}, functionalConfig())

	err := adapter.ResetSubmissionDatesByGradeItem(context.Background(), models.GradeItem{ItemInstance: 999})
	assert.NoError(t, err)
}
