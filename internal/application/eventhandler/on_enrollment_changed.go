package eventhandler

import (
	"log/slog"

	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ENROLLMENT CHANGED HANDLER
// Журналирует каждый переход жизненного цикла зачисления. Записи о
// зачислениях не переписываются, поэтому события - единственное место,
// где переход виден как факт во времени; структурированный лог служит
// аудит-следом для завуча.
// ═══════════════════════════════════════════════════════════════════════════

// OnEnrollmentChangedHandler ведёт аудит-след переходов зачислений.
type OnEnrollmentChangedHandler struct {
	logger *slog.Logger
}

// NewOnEnrollmentChangedHandler создаёт новый обработчик.
func NewOnEnrollmentChangedHandler(logger *slog.Logger) *OnEnrollmentChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnEnrollmentChangedHandler{
		logger: logger.With("handler", "on_enrollment_changed"),
	}
}

// Handle обрабатывает событие перехода зачисления.
// Реализует интерфейс shared.EventHandler.
func (h *OnEnrollmentChangedHandler) Handle(event shared.Event) error {
	enrollmentEvent, ok := event.(shared.EnrollmentChangedEvent)
	if !ok {
		h.logger.Warn("received non-EnrollmentChangedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	attrs := []any{
		"tenant_id", enrollmentEvent.TenantID,
		"student_id", enrollmentEvent.StudentID,
		"enrollment_id", enrollmentEvent.EnrollmentID,
		"session_id", enrollmentEvent.SessionID,
	}
	if enrollmentEvent.NewEnrollmentID != "" {
		attrs = append(attrs,
			"new_enrollment_id", enrollmentEvent.NewEnrollmentID,
			"new_session_id", enrollmentEvent.NewSessionID,
		)
	}

	h.logger.Info(string(event.EventType()), attrs...)
	return nil
}

// EventTypes возвращает типы событий, которые обрабатывает этот handler.
func (h *OnEnrollmentChangedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventStudentAdmitted,
		shared.EventStudentPromoted,
		shared.EventStudentRetained,
		shared.EventStudentTransferred,
		shared.EventStudentGraduated,
		shared.EventStudentDropped,
	}
}

// Register подписывает обработчик на все события жизненного цикла.
func (h *OnEnrollmentChangedHandler) Register(subscriber shared.EventSubscriber) error {
	for _, eventType := range h.EventTypes() {
		if err := subscriber.Subscribe(eventType, h.Handle); err != nil {
			return err
		}
	}
	return nil
}
