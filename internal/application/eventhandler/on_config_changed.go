// Package eventhandler содержит обработчики доменных событий.
// Обработчики - "реактивная" часть системы: они реагируют на изменения
// и запускают побочные эффекты, такие как инвалидация кешей или
// аудит-записи.
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/mektep-io/academic-core/internal/domain/assessment"
	"github.com/mektep-io/academic-core/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON CONFIG CHANGED HANDLER
// Обрабатывает изменения конфигурации оценивания (реестр категорий,
// сетки максимальных баллов). Записанные табели никогда не пересчитываются
// задним числом, поэтому единственный побочный эффект - сброс кеша,
// чтобы следующая запись оценок увидела новую конфигурацию.
// ═══════════════════════════════════════════════════════════════════════════

// OnConfigChangedHandler сбрасывает кеш конфигурации школы.
type OnConfigChangedHandler struct {
	configCache assessment.ConfigCache
	logger      *slog.Logger
}

// NewOnConfigChangedHandler создаёт новый обработчик.
func NewOnConfigChangedHandler(configCache assessment.ConfigCache, logger *slog.Logger) *OnConfigChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnConfigChangedHandler{
		configCache: configCache,
		logger:      logger.With("handler", "on_config_changed"),
	}
}

// Handle обрабатывает событие изменения конфигурации.
// Реализует интерфейс shared.EventHandler.
func (h *OnConfigChangedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	configEvent, ok := event.(shared.ConfigChangedEvent)
	if !ok {
		h.logger.Warn("received non-ConfigChangedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	if h.configCache == nil {
		return nil
	}

	tenantID, err := shared.NewTenantID(configEvent.TenantID)
	if err != nil {
		h.logger.Error("config changed event carries invalid tenant id",
			"tenant_id", configEvent.TenantID,
			"error", err,
		)
		return nil
	}

	switch configEvent.Model {
	case shared.ConfigModelCategory:
		if err := h.configCache.InvalidateCategories(ctx, tenantID); err != nil {
			h.logger.Warn("failed to invalidate category cache",
				"tenant_id", configEvent.TenantID,
				"error", err,
			)
			return err
		}

	case shared.ConfigModelDistribution:
		if err := h.configCache.InvalidateDistributions(ctx, tenantID); err != nil {
			h.logger.Warn("failed to invalidate distribution cache",
				"tenant_id", configEvent.TenantID,
				"error", err,
			)
			return err
		}

	default:
		h.logger.Warn("unknown config model",
			"model", configEvent.Model,
		)
		return nil
	}

	h.logger.Info("config cache invalidated",
		"tenant_id", configEvent.TenantID,
		"model", configEvent.Model,
	)
	return nil
}

// EventTypes возвращает типы событий, которые обрабатывает этот handler.
func (h *OnConfigChangedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventCategoryConfigChanged,
		shared.EventDistributionConfigChanged,
	}
}

// Register подписывает обработчик на оба конфигурационных события.
func (h *OnConfigChangedHandler) Register(subscriber shared.EventSubscriber) error {
	for _, eventType := range h.EventTypes() {
		if err := subscriber.Subscribe(eventType, h.Handle); err != nil {
			return err
		}
	}
	return nil
}
