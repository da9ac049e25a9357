package events

import (
	"context"
	"time"
)

// Type names a push event.
type Type string

const (
	RoundOpened      Type = "round.opened"
	BetPlaced        Type = "bet.placed"
	RoundCountdown   Type = "round.countdown"
	RoundTick        Type = "round.tick"
	RoundLocked      Type = "round.locked"
	RoundFinished    Type = "round.finished"
	RoundVoided      Type = "round.voided"
	SettlementHalted Type = "settlement.halted"
	BalanceChanged   Type = "balance.changed"

	// RoundState is sent once to a new websocket client.
	RoundState Type = "round.state"
)

// Event is what subscribers receive. Payload is JSON-encodable.
type Event struct {
	Type      Type      `json:"type"`
	RoundID   string    `json:"roundId,omitempty"`
	AccountID string    `json:"accountId,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher receives engine events. Implementations must not block the caller for long.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Multi fans one event out to several publishers in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, ev)
		}
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
