package mod

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusops/submission-restrict-api/internal/form"
	"github.com/campusops/submission-restrict-api/internal/models"
	"github.com/campusops/submission-restrict-api/internal/timecalc"
)

// Form field names for the assignment due-date section.
const (
	FieldDueDate              = "due_date"
	FieldNewDueDate           = "new_due_date"
	FieldNewDueDateEnabled    = "new_due_date_enabled"
	FieldNewDueDateTime       = "new_due_date_time"
	FieldNewDueDateOverridden = "new_due_date_overridden"
	FieldHour                 = "hour"
	FieldMinute               = "minute"
	FieldReason               = "reason"
	FieldOverrideGroup        = "override_group"
	FieldAllowSubmissionsFrom = "allow_submissions_from"
	FieldCutoffDate           = "cutoff_date"
	FieldStaticOverride       = "override_display"
)

// OtherOption is the select value that switches the form into custom
// override mode.
const OtherOption = "other"

// ReasonPlaceholder is the select value of the "none selected" reason entry.
const ReasonPlaceholder = "0"

type assignRestrictionStore interface {
	FindByActivity(ctx context.Context, activityID int64) (*models.Restriction, error)
	Upsert(ctx context.Context, rec *models.Restriction) error
	DeleteByActivity(ctx context.Context, activityID int64) error
}

type assignmentStore interface {
	FindByID(ctx context.Context, id int64) (*models.Assignment, error)
	UpdateDueDate(ctx context.Context, id, dueDate int64) error
	UpdateDates(ctx context.Context, id, dueDate, cutoffDate int64) error
}

type calendarRefresher interface {
	Refresh(ctx context.Context, modName string, activityID int64) error
	Schedule(modName string, activityID int64) error
}

// Assign restricts due dates for the assignment activity type.
type Assign struct {
	restrictions assignRestrictionStore
	assignments  assignmentStore
	calendar     calendarRefresher
	config       ConfigProvider
	location     *time.Location
	logger       *zap.Logger
}

// NewAssign constructs the assignment adapter.
func NewAssign(restrictions assignRestrictionStore, assignments assignmentStore, calendar calendarRefresher, config ConfigProvider, location *time.Location, logger *zap.Logger) *Assign {
	if location == nil {
		location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assign{
		restrictions: restrictions,
		assignments:  assignments,
		calendar:     calendar,
		config:       config,
		location:     location,
		logger:       logger,
	}
}

// Name returns the activity type name.
func (a *Assign) Name() string {
	return "assign"
}

// SettingNames lists the setting keys owned by this adapter.
func (a *Assign) SettingNames() []string {
	names := []string{"restore_enabled", "restore_hour", "restore_minute", "timeslots", "reasons"}
	prefixed := make([]string, len(names))
	for i, n := range names {
		prefixed[i] = a.Name() + "_" + n
	}
	return prefixed
}

// IsFunctional reports whether timeslots and reasons are both configured.
func (a *Assign) IsFunctional(ctx context.Context) bool {
	cfg, err := a.config.ModConfig(ctx, a.Name())
	if err != nil {
		a.logger.Warn("failed to load assign config", zap.Error(err))
		return false
	}
	return cfg.Functional()
}

// RenderFields injects the restricted due-date section into the activity
// edit form schema. The raw due-date field is hidden and replaced with a
// timeslot select; callers with the override capability also get the custom
// hour/minute/reason group.
func (a *Assign) RenderFields(ctx context.Context, schema *form.Schema, activityID int64, actor Actor) error {
	cfg, err := a.config.ModConfig(ctx, a.Name())
	if err != nil {
		return fmt.Errorf("load assign config: %w", err)
	}

	schema.Remove(FieldDueDate)
	schema.Add(form.Field{Name: FieldDueDate, Type: form.FieldHidden, Default: "0"})

	options := make([]form.Option, 0, len(cfg.Timeslots)+1)
	for _, slot := range cfg.Timeslots {
		options = append(options, form.Option{Value: slot, Label: slot})
	}
	if actor.CanOverride {
		options = append(options, form.Option{Value: OtherOption, Label: "Other"})
	}

	schema.InsertBefore(form.Field{
		Name:    FieldNewDueDate,
		Type:    form.FieldDate,
		Label:   "Due date",
		Options: options,
	}, FieldCutoffDate)

	if actor.CanOverride {
		schema.InsertBefore(a.overrideGroup(cfg), FieldCutoffDate)
	}

	assignment, err := a.assignments.FindByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("load assignment %d: %w", activityID, err)
	}
	if assignment.DueDate > 0 {
		schema.SetDefault(FieldNewDueDate, strconv.FormatInt(assignment.DueDate, 10))
	}

	rec, err := a.restrictions.FindByActivity(ctx, activityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("load restriction for activity %d: %w", activityID, err)
	}

	if actor.CanOverride {
		a.applyOverrideDefaults(schema, rec)
	} else {
		// Without the override capability the stored override is shown as
		// read-only text so its values cannot be edited away.
		schema.Remove(FieldNewDueDate)
		schema.InsertBefore(form.Field{
			Name:  FieldStaticOverride,
			Type:  form.FieldStatic,
			Label: "Due date",
			Text:  fmt.Sprintf("%s. Reason: %s", time.Unix(rec.NewDate, 0).In(a.location).Format("2 January 2006, 3:04 PM"), rec.Reason),
		}, FieldCutoffDate)
		schema.SetDefault(FieldDueDate, strconv.FormatInt(rec.NewDate, 10))
	}

	return nil
}

func (a *Assign) overrideGroup(cfg Config) form.Field {
	hours := make([]form.Option, 0, 24)
	for i := 0; i <= 23; i++ {
		hours = append(hours, form.Option{Value: strconv.Itoa(i), Label: fmt.Sprintf("%02d", i)})
	}
	minutes := make([]form.Option, 0, 12)
	for i := 0; i < 60; i += 5 {
		minutes = append(minutes, form.Option{Value: strconv.Itoa(i), Label: fmt.Sprintf("%02d", i)})
	}
	reasons := make([]form.Option, 0, len(cfg.Reasons)+1)
	reasons = append(reasons, form.Option{Value: ReasonPlaceholder, Label: "Reason"})
	for _, r := range cfg.Reasons {
		reasons = append(reasons, form.Option{Value: r, Label: r})
	}

	disabled := form.Rule{Kind: form.RuleDisabledIf, Field: FieldNewDueDateEnabled, Condition: form.CondNotChecked}

	return form.Field{
		Name: FieldOverrideGroup,
		Type: form.FieldGroup,
		Fields: []form.Field{
			{Name: FieldHour, Type: form.FieldSelect, Label: "Hour", Options: hours, Rules: []form.Rule{disabled}},
			{Name: FieldMinute, Type: form.FieldSelect, Label: "Minute", Options: minutes, Rules: []form.Rule{disabled}},
			{Name: FieldReason, Type: form.FieldSelect, Options: reasons, Rules: []form.Rule{disabled}},
		},
		Rules: []form.Rule{
			{Kind: form.RuleHideIf, Field: FieldNewDueDate, Condition: form.CondNeq, Value: OtherOption},
		},
	}
}

func (a *Assign) applyOverrideDefaults(schema *form.Schema, rec *models.Restriction) {
	// Seed the date element with the override's midnight so the day carries
	// over, then the group fields with the overridden time components.
	midnight, changed := timecalc.Recalculate(rec.NewDate, timecalc.New(0, 0), nil, a.location)
	if !changed {
		midnight = rec.NewDate
	}
	current := time.Unix(rec.NewDate, 0).In(a.location)

	schema.SetDefault(FieldNewDueDate, strconv.FormatInt(midnight, 10))
	schema.SetDefault(FieldHour, strconv.Itoa(current.Hour()))
	schema.SetDefault(FieldMinute, strconv.Itoa(current.Minute()))
	schema.SetDefault(FieldReason, rec.Reason)
}

// resolve derives the submitted due date in a single step, before any
// validation runs. The second return reports whether the custom override
// path is active.
func (a *Assign) resolve(values form.Values) (int64, bool) {
	ts := values.Int(FieldNewDueDateTime)
	if a.isOverridden(values) {
		target := timecalc.New(int(values.Int(FieldHour)), int(values.Int(FieldMinute)))
		if newDate, changed := timecalc.Recalculate(ts, target, nil, a.location); changed {
			return newDate, true
		}
		return ts, true
	}
	return ts, false
}

func (a *Assign) isOverridden(values form.Values) bool {
	if !values.Bool(FieldNewDueDateOverridden) {
		return false
	}
	return values.Has(FieldHour) && values.Has(FieldMinute) && values.Has(FieldReason)
}

// Validate checks a form submission and returns field-keyed errors.
func (a *Assign) Validate(ctx context.Context, values form.Values) map[string]string {
	errs := make(map[string]string)

	if values.Has(FieldReason) {
		reason := strings.TrimSpace(values.String(FieldReason))
		if reason == "" || reason == ReasonPlaceholder {
			errs[FieldOverrideGroup] = "A reason is required when overriding the due date."
		}
	}

	allowFrom := values.Int(FieldAllowSubmissionsFrom)

	// The due date may be replaced by the restricted element, so check the
	// resolved value against the allow-submissions-from date.
	if allowFrom > 0 && values.Has(FieldNewDueDateTime) {
		newDate, overridden := a.resolve(values)
		field := FieldNewDueDate
		if overridden {
			field = FieldOverrideGroup
		}
		if newDate < allowFrom {
			errs[field] = "Due date must be after the allow submissions from date."
		}
	}

	// The raw due-date field can carry an override the caller cannot edit;
	// it is hidden, so the error lands on the allow-submissions-from field.
	if allowFrom > 0 {
		if due := values.Int(FieldDueDate); due > 0 && due < allowFrom {
			errs[FieldAllowSubmissionsFrom] = "Due date must be after the allow submissions from date."
		}
	}

	return errs
}

// OnSubmit applies a validated form submission: resolves the due date,
// creates/updates/deletes the restriction record and writes the assignment's
// due date back. Returns the resolved due date.
func (a *Assign) OnSubmit(ctx context.Context, activityID int64, values form.Values, actor Actor) (int64, error) {
	rec, err := a.restrictions.FindByActivity(ctx, activityID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("load restriction for activity %d: %w", activityID, err)
	}

	var newDate int64

	switch {
	case values.Has(FieldNewDueDateTime) && values.Bool(FieldNewDueDateEnabled):
		var overridden bool
		newDate, overridden = a.resolve(values)

		if overridden {
			if rec == nil {
				rec = &models.Restriction{ActivityID: activityID, ModName: a.Name()}
			}
			rec.NewDate = newDate
			rec.Reason = values.String(FieldReason)
			rec.ModifiedBy = actor.UserID
			if err := a.restrictions.Upsert(ctx, rec); err != nil {
				return 0, fmt.Errorf("save restriction for activity %d: %w", activityID, err)
			}
		} else if rec != nil {
			// A standard slot replaces any stored override.
			if err := a.restrictions.DeleteByActivity(ctx, activityID); err != nil {
				return 0, fmt.Errorf("delete restriction for activity %d: %w", activityID, err)
			}
		}

	case values.Has(FieldNewDueDateEnabled):
		// The restricted element is present but disabled: no due date.
		newDate = 0
		if rec != nil {
			if err := a.restrictions.DeleteByActivity(ctx, activityID); err != nil {
				return 0, fmt.Errorf("delete restriction for activity %d: %w", activityID, err)
			}
		}

	default:
		// The plain due-date field is in use (non-functional adapter).
		newDate = values.Int(FieldDueDate)
	}

	if err := a.assignments.UpdateDueDate(ctx, activityID, newDate); err != nil {
		return 0, fmt.Errorf("update assignment %d due date: %w", activityID, err)
	}
	if err := a.calendar.Refresh(ctx, a.Name(), activityID); err != nil {
		return 0, fmt.Errorf("refresh calendar for activity %d: %w", activityID, err)
	}

	return newDate, nil
}

// ResetSubmissionDatesByGradeItem re-normalises the due and cutoff dates of
// the assignment behind a grade item using the configured restore time.
// Dates are written back only when at least one of them changed.
func (a *Assign) ResetSubmissionDatesByGradeItem(ctx context.Context, item models.GradeItem) error {
	cfg, err := a.config.ModConfig(ctx, a.Name())
	if err != nil {
		return fmt.Errorf("load assign config: %w", err)
	}

	assignment, err := a.assignments.FindByID(ctx, item.ItemInstance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("load assignment %d: %w", item.ItemInstance, err)
	}

	needUpdate := false

	if assignment.DueDate > 0 {
		if newDate, changed := timecalc.Recalculate(assignment.DueDate, cfg.RestoreTime, nil, a.location); changed {
			assignment.DueDate = newDate
			needUpdate = true
		}
	}

	if assignment.CutoffDate > 0 {
		if newDate, changed := timecalc.Recalculate(assignment.CutoffDate, cfg.RestoreTime, nil, a.location); changed {
			assignment.CutoffDate = newDate
			needUpdate = true
		}
	}

	if !needUpdate {
		return nil
	}

	if err := a.assignments.UpdateDates(ctx, assignment.ID, assignment.DueDate, assignment.CutoffDate); err != nil {
		return fmt.Errorf("update assignment %d dates: %w", assignment.ID, err)
	}

	// Restore runs in a bulk administrative flow; the calendar catches up
	// through the deferred queue.
	if err := a.calendar.Schedule(a.Name(), assignment.ID); err != nil {
		a.logger.Warn("failed to schedule calendar refresh", zap.Int64("activity_id", assignment.ID), zap.Error(err))
	}

	return nil
}
