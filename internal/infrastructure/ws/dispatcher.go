package ws

import (
	"github.com/goccy/go-json"
	"github.com/meetgrid/presence/internal/domain"
	"github.com/meetgrid/presence/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// Dispatcher maps every inbound event kind to its delivery rule. Keeping the
// rules in one table means adding a kind is a single entry, not a change
// scattered across the transport code.
//
// Malformed payloads are logged and dropped, unknown kinds are ignored
// outright; neither is ever surfaced to the sender. Tolerating unknown kinds
// lets old servers coexist with newer clients.
type Dispatcher struct {
	registry *Registry
	presence *Broadcaster
	logger   *zap.SugaredLogger
	metrics  *metrics.Metrics
}

func NewDispatcher(registry *Registry, presence *Broadcaster, logger *zap.SugaredLogger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		presence: presence,
		logger:   logger,
		metrics:  m,
	}
}

type handlerFunc func(d *Dispatcher, from *Client, env *Envelope)

var handlers = map[string]handlerFunc{
	EventJoin:             (*Dispatcher).handleJoin,
	EventTyping:           (*Dispatcher).handleTyping,
	EventStopTyping:       (*Dispatcher).handleTyping,
	EventMessageDelivered: (*Dispatcher).handleReceipt,
	EventMessageRead:      (*Dispatcher).handleReceipt,
	EventNewMessage:       (*Dispatcher).handleNewMessage,
	EventNewMeeting:       (*Dispatcher).handleMeeting,
	EventMeetingReminder:  (*Dispatcher).handleMeeting,
	EventCodeRequest:      (*Dispatcher).handleCodeExchange,
	EventCodeResponse:     (*Dispatcher).handleCodeExchange,
}

func (d *Dispatcher) Dispatch(from *Client, env *Envelope) {
	handle, ok := handlers[env.Type]
	if !ok {
		d.logger.Debugw("ignoring unknown event kind", "client", from.ID, "type", env.Type)
		return
	}

	d.metrics.EventsTotal.WithLabelValues(env.Type).Inc()
	handle(d, from, env)
}

func (d *Dispatcher) handleJoin(from *Client, env *Envelope) {
	var payload JoinPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil || payload.UserID == "" {
		d.logger.Warnw("rejecting join without user id", "client", from.ID)
		return
	}

	if d.registry.Join(from, payload.UserID) {
		d.presence.Announce(payload.UserID, domain.StatusOnline)
	}
	d.logger.Infow("user joined room", "client", from.ID, "user", payload.UserID)
}

func (d *Dispatcher) handleTyping(from *Client, env *Envelope) {
	var payload TypingPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil || payload.RecipientID == "" {
		d.logger.Warnw("dropping typing signal without recipient", "client", from.ID, "type", env.Type)
		return
	}

	d.registry.RouteExcluding(payload.RecipientID, from, NewTypingNotice(env.Type, payload.SenderID))
}

func (d *Dispatcher) handleReceipt(from *Client, env *Envelope) {
	var payload ReceiptPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil || payload.RecipientID == "" {
		d.logger.Warnw("dropping receipt without recipient", "client", from.ID, "type", env.Type)
		return
	}

	d.registry.RouteExcluding(payload.RecipientID, from, NewReceiptNotice(env.Type, payload.MessageID))
}

func (d *Dispatcher) handleNewMessage(from *Client, env *Envelope) {
	var routing MessageRouting
	if err := json.Unmarshal(env.Data, &routing); err != nil {
		d.logger.Warnw("dropping unparsable message", "client", from.ID)
		return
	}
	if routing.Sender.ID == "" && routing.Recipient.ID == "" {
		d.logger.Warnw("dropping message without participants", "client", from.ID)
		return
	}

	// Both rooms get the untouched message object; devices the sender has
	// open elsewhere see their own message echoed back.
	ev := NewForwarded(EventReceiveMessage, env.Data)
	d.registry.RouteExcludingMany([]string{routing.Sender.ID, routing.Recipient.ID}, from, ev)
	d.logger.Infow("message relayed", "from", routing.Sender.ID, "to", routing.Recipient.ID)
}

func (d *Dispatcher) handleMeeting(from *Client, env *Envelope) {
	var meeting MeetingPayload
	if err := json.Unmarshal(env.Data, &meeting); err != nil || meeting.SenderID == "" || meeting.RecipientID == "" {
		d.logger.Warnw("dropping meeting without participants", "client", from.ID, "type", env.Type)
		return
	}

	outType := EventReceiveMeeting
	if env.Type == EventMeetingReminder {
		outType = EventReceiveReminder
	}

	// Each side gets distinct wording: the scheduling user sees the
	// recipient's name and vice versa.
	d.registry.RouteExcluding(meeting.RecipientID, from, NewMeetingNotice(outType, meeting, false))
	d.registry.RouteExcluding(meeting.SenderID, from, NewMeetingNotice(outType, meeting, true))
	d.logger.Infow("meeting relayed", "type", env.Type, "from", meeting.SenderID, "to", meeting.RecipientID)
}

func (d *Dispatcher) handleCodeExchange(from *Client, env *Envelope) {
	var routing CodeExchangeRouting
	if err := json.Unmarshal(env.Data, &routing); err != nil || routing.RecipientID == "" {
		d.logger.Warnw("dropping code exchange without recipient", "client", from.ID, "type", env.Type)
		return
	}

	d.registry.RouteExcluding(routing.RecipientID, from, NewForwarded(env.Type, env.Data))
	d.logger.Infow("code exchange relayed",
		"type", env.Type, "from", routing.SenderID, "to", routing.RecipientID, "status", routing.Status)
}
