package twilio

import (
	"context"
	"time"
)

// CallStatus is the provider's call lifecycle status.
type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusBusy       CallStatus = "busy"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no-answer"
	CallStatusCanceled   CallStatus = "canceled"
)

// Message mirrors the provider's SMS resource. Dates stay in the provider's
// RFC 2822 string form; nothing downstream does date math on them.
type Message struct {
	SID       string `json:"sid"`
	From      string `json:"from"`
	To        string `json:"to"`
	Body      string `json:"body"`
	Status    string `json:"status"`
	Direction string `json:"direction,omitempty"`
	DateSent  string `json:"date_sent,omitempty"`
	Price     string `json:"price,omitempty"`
}

// Call mirrors the provider's call resource. Duration is a string in the
// upstream JSON.
type Call struct {
	SID       string     `json:"sid"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	Status    CallStatus `json:"status"`
	Direction string     `json:"direction,omitempty"`
	Duration  string     `json:"duration,omitempty"`
	StartTime string     `json:"start_time,omitempty"`
	EndTime   string     `json:"end_time,omitempty"`
	Price     string     `json:"price,omitempty"`
}

// Participant is a call leg inside a conference.
type Participant struct {
	CallSID       string     `json:"call_sid"`
	ConferenceSID string     `json:"conference_sid"`
	Status        CallStatus `json:"status"`
	Muted         bool       `json:"muted"`
	Hold          bool       `json:"hold"`
}

// API is the surface the HTTP handlers and the forwarding service depend on.
// *Client implements it; tests substitute a fake.
type API interface {
	SendMessage(ctx context.Context, from, to, body string) (Message, error)
	CreateCall(ctx context.Context, from, to, controlURL string) (Call, error)
	ListMessages(ctx context.Context, limit int) ([]Message, error)
	ListCalls(ctx context.Context, since time.Time, limit int) ([]Call, error)
	AddConferenceParticipant(ctx context.Context, conferenceSID, to, from string) (Participant, error)
	FetchCall(ctx context.Context, callSID string) (Call, error)
}
