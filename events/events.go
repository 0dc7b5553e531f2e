package events

import (
	"context"
	"sync"

	"clubquota/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRunCompleted    EventType = "run_completed"
	EventTypeBombActivated   EventType = "bomb_activated"
	EventTypeBombDeactivated EventType = "bomb_deactivated"
	EventTypeKickRequired    EventType = "kick_required"
	EventTypeResetDetected   EventType = "reset_detected"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RunCompletedEvent carries the full result of a reconciliation run to the
// reporting layer
type RunCompletedEvent struct {
	Result *models.RunResult
}

func (e RunCompletedEvent) Type() EventType {
	return EventTypeRunCompleted
}

// BombActivatedEvent represents a bomb newly armed for a member
type BombActivatedEvent struct {
	Club   *models.Club
	Member *models.Member
	Bomb   *models.Bomb
}

func (e BombActivatedEvent) Type() EventType {
	return EventTypeBombActivated
}

// BombDeactivatedEvent represents a bomb cleared for a member
type BombDeactivatedEvent struct {
	Club   *models.Club
	Member *models.Member
	Bomb   *models.Bomb
	Reason models.BombDeactivationReason
}

func (e BombDeactivatedEvent) Type() EventType {
	return EventTypeBombDeactivated
}

// KickRequiredEvent signals that a bomb expired with the member still behind.
// The engine never removes the member itself; operators act on this.
type KickRequiredEvent struct {
	Club   *models.Club
	Member *models.Member
	Bomb   *models.Bomb
}

func (e KickRequiredEvent) Type() EventType {
	return EventTypeKickRequired
}

// ResetDetectedEvent represents a detected monthly counter reset for a club
type ResetDetectedEvent struct {
	Club *models.Club
}

func (e ResetDetectedEvent) Type() EventType {
	return EventTypeResetDetected
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the run pipeline
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus stashes events published during a unit of work and flushes
// them to the real bus only after the database commit succeeds.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events; called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	// Events outlive the transaction context, so they are emitted on a
	// background context rather than the (possibly expired) run context.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops all pending events; called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
