// Package events provides lightweight event emission for observability.
// Events are logged structurally; they are not the primary error
// channel for any operation.
package events

import (
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	PlanReconcileStart    EventType = "PLAN_RECONCILE_START"
	PlanReconcileComplete EventType = "PLAN_RECONCILE_COMPLETE"
	TransactionCreated    EventType = "TRANSACTION_CREATED"
	PriceSyncStart        EventType = "PRICE_SYNC_START"
	PriceSyncComplete     EventType = "PRICE_SYNC_COMPLETE"
	HoldingCreated        EventType = "HOLDING_CREATED"
	HoldingRemoved        EventType = "HOLDING_REMOVED"
	ErrorOccurred         EventType = "ERROR_OCCURRED"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// Manager handles event emission and logging
type Manager struct {
	log zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		log: log.With().Str("service", "events").Logger(),
	}
}

// Emit records an event with structured data
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	logger := m.log.Info()
	if eventType == ErrorOccurred {
		logger = m.log.Error()
	}

	logger.
		Str("event", string(event.Type)).
		Str("module", event.Module).
		Interface("data", event.Data).
		Msg("Event emitted")
}
