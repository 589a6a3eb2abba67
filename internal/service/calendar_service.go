package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusops/submission-restrict-api/internal/models"
	"github.com/campusops/submission-restrict-api/pkg/jobs"
)

// JobTypeCalendarRefresh is the queue job type for deferred refreshes.
const JobTypeCalendarRefresh = "calendar_refresh"

type calendarEventStore interface {
	Upsert(ctx context.Context, event *models.CalendarEvent) error
	DeleteByActivity(ctx context.Context, modName string, activityID int64, eventType string) error
}

type calendarAssignmentStore interface {
	FindByID(ctx context.Context, id int64) (*models.Assignment, error)
}

// CalendarService keeps the host calendar in sync with activity deadlines.
// Refresh runs synchronously after a form submission; Schedule defers the
// same work to the queue for bulk flows such as restore.
type CalendarService struct {
	events      calendarEventStore
	assignments calendarAssignmentStore
	queue       *jobs.Queue
	logger      *zap.Logger
}

// NewCalendarService constructs the service. The queue is attached after
// construction because the queue's handler is this service.
func NewCalendarService(events calendarEventStore, assignments calendarAssignmentStore, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{events: events, assignments: assignments, logger: logger}
}

// AttachQueue wires the deferred-refresh queue. Must be called before any
// Schedule call.
func (s *CalendarService) AttachQueue(queue *jobs.Queue) {
	s.queue = queue
}

// Refresh rewrites the calendar events of one activity from its current
// dates. A date of 0 removes the matching event. Idempotent.
func (s *CalendarService) Refresh(ctx context.Context, modName string, activityID int64) error {
	assignment, err := s.assignments.FindByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Activity is gone; drop whatever events remain.
			if err := s.events.DeleteByActivity(ctx, modName, activityID, models.CalendarEventDue); err != nil {
				return err
			}
			return s.events.DeleteByActivity(ctx, modName, activityID, models.CalendarEventCutoff)
		}
		return fmt.Errorf("load assignment %d: %w", activityID, err)
	}

	if err := s.syncEvent(ctx, modName, assignment, models.CalendarEventDue, assignment.DueDate, assignment.Name+" is due"); err != nil {
		return err
	}
	return s.syncEvent(ctx, modName, assignment, models.CalendarEventCutoff, assignment.CutoffDate, assignment.Name+" closes")
}

func (s *CalendarService) syncEvent(ctx context.Context, modName string, assignment *models.Assignment, eventType string, timeStart int64, name string) error {
	if timeStart <= 0 {
		if err := s.events.DeleteByActivity(ctx, modName, assignment.ID, eventType); err != nil {
			return fmt.Errorf("delete %s event for activity %d: %w", eventType, assignment.ID, err)
		}
		return nil
	}
	event := &models.CalendarEvent{
		ModName:    modName,
		ActivityID: assignment.ID,
		EventType:  eventType,
		Name:       name,
		TimeStart:  timeStart,
	}
	if err := s.events.Upsert(ctx, event); err != nil {
		return fmt.Errorf("upsert %s event for activity %d: %w", eventType, assignment.ID, err)
	}
	return nil
}

// Schedule enqueues a deferred refresh of one activity's events.
func (s *CalendarService) Schedule(modName string, activityID int64) error {
	if s.queue == nil {
		return fmt.Errorf("calendar queue not attached")
	}
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeCalendarRefresh,
		Payload: fmt.Sprintf("%s:%d", modName, activityID),
	})
}

// HandleJob is the queue handler behind Schedule.
func (s *CalendarService) HandleJob(ctx context.Context, job jobs.Job) error {
	modName, activityID, err := parseCalendarPayload(job.Payload)
	if err != nil {
		// Unparseable payloads never succeed; log instead of retrying.
		s.logger.Error("dropping malformed calendar job", zap.String("payload", job.Payload), zap.Error(err))
		return nil
	}
	return s.Refresh(ctx, modName, activityID)
}

func parseCalendarPayload(payload string) (string, int64, error) {
	modName, rawID, found := strings.Cut(payload, ":")
	if !found || modName == "" {
		return "", 0, fmt.Errorf("malformed calendar payload %q", payload)
	}
	activityID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed calendar payload %q: %w", payload, err)
	}
	return modName, activityID, nil
}
