package mod

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/submission-restrict-api/internal/form"
	"github.com/campusops/submission-restrict-api/internal/models"
)

type fakeAdapter struct {
	name       string
	functional bool
}

func (f *fakeAdapter) Name() string                        { return f.name }
func (f *fakeAdapter) SettingNames() []string              { return nil }
func (f *fakeAdapter) IsFunctional(context.Context) bool   { return f.functional }
func (f *fakeAdapter) RenderFields(context.Context, *form.Schema, int64, Actor) error { return nil }
func (f *fakeAdapter) Validate(context.Context, form.Values) map[string]string        { return nil }
func (f *fakeAdapter) OnSubmit(context.Context, int64, form.Values, Actor) (int64, error) {
	return 0, nil
}
func (f *fakeAdapter) ResetSubmissionDatesByGradeItem(context.Context, models.GradeItem) error {
	return nil
}

func TestRegistryLookupAndOrder(t *testing.T) {
	assign := &fakeAdapter{name: "assign", functional: true}
	quiz := &fakeAdapter{name: "quiz", functional: false}

	registry := NewRegistry(assign, quiz)

	all := registry.All()
	require.Len(t, all, 2)
	assert.Equal(t, "assign", all[0].Name())
	assert.Equal(t, "quiz", all[1].Name())

	found, ok := registry.Lookup("quiz")
	require.True(t, ok)
	assert.Same(t, quiz, found)

	_, ok = registry.Lookup("forum")
	assert.False(t, ok)
}

func TestRegistrySkipsNilAndDuplicates(t *testing.T) {
	assign := &fakeAdapter{name: "assign"}
	duplicate := &fakeAdapter{name: "assign"}

	registry := NewRegistry(nil, assign, duplicate)

	require.Len(t, registry.All(), 1)
	found, _ := registry.Lookup("assign")
	assert.Same(t, assign, found)
}

func TestRegistryFunctionalFilters(t *testing.T) {
	assign := &fakeAdapter{name: "assign", functional: true}
	quiz := &fakeAdapter{name: "quiz", functional: false}

	registry := NewRegistry(assign, quiz)

	functional := registry.Functional(context.Background())
	require.Len(t, functional, 1)
	assert.Equal(t, "assign", functional[0].Name())
}

func TestConfigFunctional(t *testing.T) {
	assert.False(t, Config{}.Functional())
	assert.False(t, Config{Timeslots: []string{"09:00"}}.Functional())
	assert.False(t, Config{Reasons: []string{"Extension"}}.Functional())
	assert.True(t, Config{Timeslots: []string{"09:00"}, Reasons: []string{"Extension"}}.Functional())
}
