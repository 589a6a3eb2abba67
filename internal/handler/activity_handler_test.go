package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/submission-restrict-api/internal/dto"
	"github.com/campusops/submission-restrict-api/internal/form"
	"github.com/campusops/submission-restrict-api/internal/middleware"
	"github.com/campusops/submission-restrict-api/internal/mod"
	"github.com/campusops/submission-restrict-api/internal/models"
	appErrors "github.com/campusops/submission-restrict-api/pkg/errors"
	"github.com/campusops/submission-restrict-api/pkg/response"
)

type restrictServiceMock struct {
	mods          []string
	schema        *form.Schema
	renderErr     error
	submitResult  int64
	submitErr     error
	lastActor     mod.Actor
	lastMod       string
	lastValues    form.Values
	deleteErr     error
	deletedCourse int64
}

func (m *restrictServiceMock) FunctionalMods(_ context.Context) []string {
	return m.mods
}

func (m *restrictServiceMock) RenderForm(_ context.Context, modName string, _ int64, actor mod.Actor) (*form.Schema, error) {
	m.lastMod = modName
	m.lastActor = actor
	if m.renderErr != nil {
		return nil, m.renderErr
	}
	return m.schema, nil
}

func (m *restrictServiceMock) SubmitForm(_ context.Context, modName string, _ int64, values form.Values, actor mod.Actor, _, _ string) (int64, error) {
	m.lastMod = modName
	m.lastValues = values
	m.lastActor = actor
	if m.submitErr != nil {
		return 0, m.submitErr
	}
	return m.submitResult, nil
}

func (m *restrictServiceMock) DeleteActivityRestriction(_ context.Context, _ int64, _ mod.Actor, _, _ string) error {
	return m.deleteErr
}

func (m *restrictServiceMock) DeleteCourseRestrictions(_ context.Context, courseID int64, _ mod.Actor, _, _ string) error {
	m.deletedCourse = courseID
	return m.deleteErr
}

func managerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: 42, Role: models.RoleManager, Email: "manager@example.com"}
}

func TestActivityHandlerListMods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewActivityHandler(&restrictServiceMock{mods: []string{"assign"}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/mods", nil)
	c.Request = req

	handler.ListMods(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.ModsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, []string{"assign"}, envelope.Data.Mods)
}

func TestActivityHandlerGetForm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	schema := &form.Schema{}
	schema.Add(form.Field{Name: "new_due_date", Type: form.FieldSelect})
	mock := &restrictServiceMock{schema: schema}
	handler := NewActivityHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/activities/7/form", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.GetForm(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "assign", mock.lastMod)
	assert.True(t, mock.lastActor.CanOverride)
	assert.Equal(t, int64(42), mock.lastActor.UserID)

	var envelope struct {
		Data dto.FormResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, int64(7), envelope.Data.ActivityID)
	require.NotNil(t, envelope.Data.Schema)
	require.Len(t, envelope.Data.Schema.Fields, 1)
}

func TestActivityHandlerGetFormInvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewActivityHandler(&restrictServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/activities/abc/form", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.GetForm(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActivityHandlerGetFormNotFunctional(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewActivityHandler(&restrictServiceMock{renderErr: appErrors.ErrNotFunctional})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/activities/7/form", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.GetForm(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "MOD_NOT_FUNCTIONAL", envelope.Error.Code)
}

func TestActivityHandlerSubmitForm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &restrictServiceMock{submitResult: 1636707300}
	handler := NewActivityHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.SubmitFormRequest{Values: map[string]string{
		"new_due_date_enabled": "1",
		"new_due_date_time":    "1636675200",
	}})
	req, _ := http.NewRequest(http.MethodPost, "/activities/7/form?mod=assign", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.SubmitForm(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", mock.lastValues.String("new_due_date_enabled"))

	var envelope struct {
		Data dto.SubmitFormResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, int64(1636707300), envelope.Data.NewDate)
}

func TestActivityHandlerSubmitFormValidationErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &restrictServiceMock{submitErr: appErrors.FieldErrors(map[string]string{
		"override_group": "A reason is required when overriding the due date.",
	})}
	handler := NewActivityHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.SubmitFormRequest{Values: map[string]string{}})
	req, _ := http.NewRequest(http.MethodPost, "/activities/7/form", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.SubmitForm(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Contains(t, envelope.Error.Fields, "override_group")
}

func TestActivityHandlerDeleteCourseRestrictions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &restrictServiceMock{}
	handler := NewActivityHandler(mock)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/courses/3/restrictions", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.DeleteCourseRestrictions(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(3), mock.deletedCourse)
}
