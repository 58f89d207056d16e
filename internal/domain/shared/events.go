// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the academic core.
const (
	// Session events
	EventSessionCreated   EventType = "session.created"
	EventSessionActivated EventType = "session.activated"
	EventSessionLocked    EventType = "session.locked"

	// Enrollment events
	EventStudentAdmitted    EventType = "enrollment.admitted"
	EventStudentPromoted    EventType = "enrollment.promoted"
	EventStudentRetained    EventType = "enrollment.retained"
	EventStudentTransferred EventType = "enrollment.transferred"
	EventStudentGraduated   EventType = "enrollment.graduated"
	EventStudentDropped     EventType = "enrollment.dropped"

	// Result events
	EventResultSaved EventType = "result.saved"

	// Configuration events - drive cache invalidation.
	EventCategoryConfigChanged     EventType = "config.category_changed"
	EventDistributionConfigChanged EventType = "config.distribution_changed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Session Events
// ═══════════════════════════════════════════════════════════════════════════

// SessionActivatedEvent is emitted when a session becomes the active one
// for a school. PreviousID is empty for the first session.
type SessionActivatedEvent struct {
	BaseEvent
	TenantID   string `json:"tenant_id"`
	SessionID  string `json:"session_id"`
	PreviousID string `json:"previous_id,omitempty"`
}

// Payload implements Event interface.
func (e SessionActivatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"tenant_id":   e.TenantID,
		"session_id":  e.SessionID,
		"previous_id": e.PreviousID,
	}
}

// NewSessionActivatedEvent creates a new SessionActivatedEvent.
func NewSessionActivatedEvent(tenantID, sessionID, previousID string) SessionActivatedEvent {
	return SessionActivatedEvent{
		BaseEvent:  NewBaseEvent(EventSessionActivated, sessionID),
		TenantID:   tenantID,
		SessionID:  sessionID,
		PreviousID: previousID,
	}
}

// SessionLockedEvent is emitted when a session is locked for edits.
type SessionLockedEvent struct {
	BaseEvent
	TenantID  string `json:"tenant_id"`
	SessionID string `json:"session_id"`
}

// Payload implements Event interface.
func (e SessionLockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"tenant_id":  e.TenantID,
		"session_id": e.SessionID,
	}
}

// NewSessionLockedEvent creates a new SessionLockedEvent.
func NewSessionLockedEvent(tenantID, sessionID string) SessionLockedEvent {
	return SessionLockedEvent{
		BaseEvent: NewBaseEvent(EventSessionLocked, sessionID),
		TenantID:  tenantID,
		SessionID: sessionID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Enrollment Events
// ═══════════════════════════════════════════════════════════════════════════

// EnrollmentChangedEvent is emitted for every enrollment lifecycle
// transition: admission, promotion, retention, transfer, graduation, drop.
// The concrete transition is carried in the event type.
type EnrollmentChangedEvent struct {
	BaseEvent
	TenantID        string `json:"tenant_id"`
	StudentID       string `json:"student_id"`
	EnrollmentID    string `json:"enrollment_id"`
	SessionID       string `json:"session_id"`
	NewEnrollmentID string `json:"new_enrollment_id,omitempty"`
	NewSessionID    string `json:"new_session_id,omitempty"`
}

// Payload implements Event interface.
func (e EnrollmentChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"tenant_id":         e.TenantID,
		"student_id":        e.StudentID,
		"enrollment_id":     e.EnrollmentID,
		"session_id":        e.SessionID,
		"new_enrollment_id": e.NewEnrollmentID,
		"new_session_id":    e.NewSessionID,
	}
}

// NewEnrollmentChangedEvent creates an enrollment lifecycle event.
func NewEnrollmentChangedEvent(eventType EventType, tenantID, studentID, enrollmentID, sessionID string) EnrollmentChangedEvent {
	return EnrollmentChangedEvent{
		BaseEvent:    NewBaseEvent(eventType, enrollmentID),
		TenantID:     tenantID,
		StudentID:    studentID,
		EnrollmentID: enrollmentID,
		SessionID:    sessionID,
	}
}

// WithSuccessor records the enrollment created by a promotion or retention.
func (e EnrollmentChangedEvent) WithSuccessor(newEnrollmentID, newSessionID string) EnrollmentChangedEvent {
	e.NewEnrollmentID = newEnrollmentID
	e.NewSessionID = newSessionID
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Result Events
// ═══════════════════════════════════════════════════════════════════════════

// ResultSavedEvent is emitted when a student's result is recomputed and saved.
type ResultSavedEvent struct {
	BaseEvent
	TenantID   string `json:"tenant_id"`
	StudentID  string `json:"student_id"`
	ResultID   string `json:"result_id"`
	TotalMarks int    `json:"total_marks"`
	Grade      string `json:"grade"`
}

// Payload implements Event interface.
func (e ResultSavedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"tenant_id":   e.TenantID,
		"student_id":  e.StudentID,
		"result_id":   e.ResultID,
		"total_marks": e.TotalMarks,
		"grade":       e.Grade,
	}
}

// NewResultSavedEvent creates a new ResultSavedEvent.
func NewResultSavedEvent(tenantID, studentID, resultID string, totalMarks int, grade string) ResultSavedEvent {
	return ResultSavedEvent{
		BaseEvent:  NewBaseEvent(EventResultSaved, resultID),
		TenantID:   tenantID,
		StudentID:  studentID,
		ResultID:   resultID,
		TotalMarks: totalMarks,
		Grade:      grade,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Configuration Events
// ═══════════════════════════════════════════════════════════════════════════

// Models that ConfigChangedEvent can refer to.
const (
	ConfigModelCategory     = "assessment_category"
	ConfigModelDistribution = "marks_distribution"
)

// ConfigChangedEvent signals that per-tenant assessment configuration
// changed and any cached view of it must be dropped.
type ConfigChangedEvent struct {
	BaseEvent
	TenantID string `json:"tenant_id"`
	Model    string `json:"model"`
}

// Payload implements Event interface.
func (e ConfigChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"tenant_id": e.TenantID,
		"model":     e.Model,
	}
}

// NewConfigChangedEvent creates a ConfigChangedEvent for the given model.
func NewConfigChangedEvent(tenantID, model string) ConfigChangedEvent {
	eventType := EventCategoryConfigChanged
	if model == ConfigModelDistribution {
		eventType = EventDistributionConfigChanged
	}
	return ConfigChangedEvent{
		BaseEvent: NewBaseEvent(eventType, tenantID),
		TenantID:  tenantID,
		Model:     model,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
