package transport

import (
	"main/internal/feed"
	"main/internal/model"
	"main/internal/model/enum"
)

// Client → server actions.
const (
	ActionSubscribe         = "subscribe"
	ActionUnsubscribe       = "unsubscribe"
	ActionSubscribeMultiple = "subscribe_multiple"
)

// Server → client message types.
const (
	TypeConnection        = "connection"
	TypeSubscription      = "subscription"
	TypeSimulationStarted = "simulation_started"
	TypeKline             = "kline"
	TypeError             = "error"
)

// ClientMessage is a downstream command.
type ClientMessage struct {
	Action  string         `json:"action"`
	Market  model.Market   `json:"market,omitempty"`
	Markets []model.Market `json:"markets,omitempty"`
}

// ServerMessage is one downstream event. Connection-quality state travels in
// Type/Status, never inferred from the data shape.
type ServerMessage struct {
	Type    string        `json:"type"`
	Market  model.Market  `json:"market,omitempty"`
	Status  string        `json:"status,omitempty"`
	Source  string        `json:"source,omitempty"`
	Data    *model.Candle `json:"data,omitempty"`
	Message string        `json:"message,omitempty"`
}

// FromEvent maps a feed event onto the wire protocol. Supervisor state
// transitions ride the subscription type, except entering simulation which
// has its own type so clients can switch their UI explicitly.
func FromEvent(ev feed.Event) ServerMessage {
	if ev.Candle != nil {
		return ServerMessage{
			Type:   TypeKline,
			Market: ev.Market,
			Source: ev.Source.String(),
			Data:   ev.Candle,
		}
	}
	if ev.State == enum.FeedStateSimulated {
		return ServerMessage{
			Type:    TypeSimulationStarted,
			Market:  ev.Market,
			Status:  ev.State.String(),
			Source:  enum.FeedSourceSimulation.String(),
			Message: ev.Reason,
		}
	}
	return ServerMessage{
		Type:    TypeSubscription,
		Market:  ev.Market,
		Status:  ev.State.String(),
		Source:  ev.Source.String(),
		Message: ev.Reason,
	}
}
