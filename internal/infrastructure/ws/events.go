package ws

// Wire event names. These are the client contract and must not change.
const (
	EventJoin             = "join"
	EventTyping           = "typing"
	EventStopTyping       = "stop-typing"
	EventMessageDelivered = "message-delivered"
	EventMessageRead      = "message-read"
	EventNewMessage       = "new-message"
	EventNewMeeting       = "new-meeting"
	EventMeetingReminder  = "meeting-reminder"
	EventCodeRequest      = "code-request"
	EventCodeResponse     = "code-response"

	EventReceiveMessage  = "receive-message"
	EventReceiveMeeting  = "receive-meeting"
	EventReceiveReminder = "receive-reminder"
	EventUserStatus      = "user-status"
)
