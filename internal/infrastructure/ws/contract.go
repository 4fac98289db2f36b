package ws

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/meetgrid/presence/internal/domain"
)

// Envelope is an inbound frame: a named event kind plus its raw payload.
// Payloads stay undecoded until the dispatcher knows the kind.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Event is an outbound frame.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Payload structs
type JoinPayload struct {
	UserID string `json:"userId"`
}

type TypingPayload struct {
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
}

type TypingNotice struct {
	SenderID string `json:"senderId"`
}

type ReceiptPayload struct {
	MessageID   string `json:"messageId"`
	RecipientID string `json:"recipientId"`
}

type ReceiptNotice struct {
	MessageID string `json:"messageId"`
}

// MessageParty carries only the routing identifier of a message participant;
// the rest of the message object is forwarded untouched.
type MessageParty struct {
	ID string `json:"_id"`
}

type MessageRouting struct {
	Sender    MessageParty `json:"sender"`
	Recipient MessageParty `json:"recipient"`
}

type MeetingPayload struct {
	SenderID      string `json:"senderId"`
	RecipientID   string `json:"recipientId"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Topic         string `json:"topic"`
	SenderName    string `json:"senderName"`
	RecipientName string `json:"recipientName"`
}

type MeetingNotice struct {
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Topic       string `json:"topic"`
	Message     string `json:"message"`
}

type CodeExchangeRouting struct {
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
	Status      string `json:"status"`
}

type UserStatusPayload struct {
	UserID string                `json:"userId"`
	Status domain.PresenceStatus `json:"status"`
}

func NewTypingNotice(eventType, senderID string) *Event {
	return &Event{
		Type: eventType,
		Data: TypingNotice{SenderID: senderID},
	}
}

func NewReceiptNotice(eventType, messageID string) *Event {
	return &Event{
		Type: eventType,
		Data: ReceiptNotice{MessageID: messageID},
	}
}

func NewUserStatus(userID string, status domain.PresenceStatus) *Event {
	return &Event{
		Type: EventUserStatus,
		Data: UserStatusPayload{UserID: userID, Status: status},
	}
}

// NewMeetingNotice shapes the meeting payload for one side of the exchange.
// The wording differs for the scheduling user and the invited user, and the
// reminder variants are flavored accordingly.
func NewMeetingNotice(eventType string, meeting MeetingPayload, forSender bool) *Event {
	var message string

	switch {
	case eventType == EventReceiveMeeting && forSender:
		message = fmt.Sprintf("You scheduled a meeting with %s on %s at %s for \"%s\"",
			meeting.RecipientName, meeting.Date, meeting.Time, meeting.Topic)
	case eventType == EventReceiveMeeting:
		message = fmt.Sprintf("New meeting scheduled with %s on %s at %s for \"%s\"",
			meeting.SenderName, meeting.Date, meeting.Time, meeting.Topic)
	case forSender:
		message = fmt.Sprintf("Reminder: You have a meeting with %s on %s at %s for \"%s\"",
			meeting.RecipientName, meeting.Date, meeting.Time, meeting.Topic)
	default:
		message = fmt.Sprintf("Reminder: Meeting with %s on %s at %s for \"%s\"",
			meeting.SenderName, meeting.Date, meeting.Time, meeting.Topic)
	}

	return &Event{
		Type: eventType,
		Data: MeetingNotice{
			SenderID:    meeting.SenderID,
			RecipientID: meeting.RecipientID,
			Date:        meeting.Date,
			Time:        meeting.Time,
			Topic:       meeting.Topic,
			Message:     message,
		},
	}
}

// NewForwarded wraps an inbound payload verbatim under a new event name.
func NewForwarded(eventType string, raw json.RawMessage) *Event {
	return &Event{
		Type: eventType,
		Data: raw,
	}
}
