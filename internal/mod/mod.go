// Package mod holds the per-activity-type restriction adapters. Each
// adapter knows how to render the due-date section of its activity's edit
// form, validate and apply a submission, and re-normalise dates after a
// backup restore. Adapters are registered explicitly at startup; there is
// no runtime discovery.
package mod

import (
	"context"

	"github.com/campusops/submission-restrict-api/internal/form"
	"github.com/campusops/submission-restrict-api/internal/models"
	"github.com/campusops/submission-restrict-api/internal/timecalc"
)

// Config is an adapter's process-wide configuration loaded from settings.
type Config struct {
	RestoreEnabled bool
	RestoreTime    timecalc.Time
	// Timeslots are the allowed "HH:MM" due times, in configured order.
	Timeslots []string
	// Reasons are the selectable override reasons, placeholder excluded.
	Reasons []string
}

// Functional reports whether the adapter has enough configuration to be
// offered in the host UI: at least one timeslot and one real reason.
func (c Config) Functional() bool {
	return len(c.Timeslots) > 0 && len(c.Reasons) > 0
}

// ConfigProvider supplies per-mod configuration by activity type name.
type ConfigProvider interface {
	ModConfig(ctx context.Context, mod string) (Config, error)
}

// Actor is the explicit permission context of a form interaction.
type Actor struct {
	UserID      int64
	CanOverride bool
}

// Adapter is the capability set implemented per activity type.
type Adapter interface {
	Name() string
	// SettingNames lists the setting keys this adapter owns; the settings
	// service builds its allow-list from these.
	SettingNames() []string
	IsFunctional(ctx context.Context) bool
	RenderFields(ctx context.Context, schema *form.Schema, activityID int64, actor Actor) error
	Validate(ctx context.Context, values form.Values) map[string]string
	OnSubmit(ctx context.Context, activityID int64, values form.Values, actor Actor) (int64, error)
	ResetSubmissionDatesByGradeItem(ctx context.Context, item models.GradeItem) error
}

// Registry resolves adapters by activity type name. The set is fixed at
// construction and safe for concurrent readers.
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

// NewRegistry builds a registry from the provided adapters. Nil entries are
// skipped so a partially wired adapter is simply absent.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if a == nil {
			continue
		}
		if _, exists := r.adapters[a.Name()]; exists {
			continue
		}
		r.adapters[a.Name()] = a
		r.order = append(r.order, a.Name())
	}
	return r
}

// All returns every registered adapter in registration order.
func (r *Registry) All() []Adapter {
	result := make([]Adapter, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.adapters[name])
	}
	return result
}

// Lookup returns the adapter for an activity type name.
func (r *Registry) Lookup(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Functional filters to adapters whose configuration is usable.
func (r *Registry) Functional(ctx context.Context) []Adapter {
	result := make([]Adapter, 0, len(r.order))
	for _, name := range r.order {
		if a := r.adapters[name]; a.IsFunctional(ctx) {
			result = append(result, a)
		}
	}
	return result
}
