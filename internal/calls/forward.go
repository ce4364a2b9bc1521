// Package calls holds call orchestration that spans more than one provider
// request. Currently that is only conference forwarding.
package calls

import (
	"context"
	"time"

	"voice-gateway/internal/twilio"
	"voice-gateway/pkg/logger"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultPollAttempts = 10
)

// ConferenceClient is the slice of the provider API forwarding needs.
type ConferenceClient interface {
	AddConferenceParticipant(ctx context.Context, conferenceSID, to, from string) (twilio.Participant, error)
	FetchCall(ctx context.Context, callSID string) (twilio.Call, error)
}

// Forwarder adds a participant to a live conference and waits, best-effort,
// for their leg to connect.
type Forwarder struct {
	client   ConferenceClient
	interval time.Duration
	attempts int

	// sleep is injected so tests don't wait wall-clock time.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewForwarder(client ConferenceClient) *Forwarder {
	return &Forwarder{
		client:   client,
		interval: defaultPollInterval,
		attempts: defaultPollAttempts,
		sleep:    sleepCtx,
	}
}

// ForwardResult reports the new leg and the last status observed when
// polling stopped. FinalStatus may still be queued or ringing: the wait is
// a bounded best-effort, not a guarantee of connection.
type ForwardResult struct {
	CallSID       string
	ConferenceSID string
	FinalStatus   twilio.CallStatus
}

// Forward dials newNumber into the conference and polls the new leg's
// status every interval, stopping early once it reaches in-progress or when
// the attempt budget runs out. A provider error at any step aborts
// immediately; there is no error retry.
func (f *Forwarder) Forward(ctx context.Context, conferenceSID, newNumber, callerID string) (ForwardResult, error) {
	log := logger.From(ctx)

	participant, err := f.client.AddConferenceParticipant(ctx, conferenceSID, newNumber, callerID)
	if err != nil {
		return ForwardResult{}, err
	}

	status := twilio.CallStatusQueued
	for attempts := 0; status != twilio.CallStatusInProgress && attempts < f.attempts; attempts++ {
		call, err := f.client.FetchCall(ctx, participant.CallSID)
		if err != nil {
			return ForwardResult{}, err
		}
		status = call.Status
		log.Info("forward poll", "call_sid", participant.CallSID, "status", status, "attempt", attempts+1)

		if status == twilio.CallStatusInProgress {
			break
		}
		if err := f.sleep(ctx, f.interval); err != nil {
			// Caller went away; report what we saw last.
			return ForwardResult{
				CallSID:       participant.CallSID,
				ConferenceSID: participant.ConferenceSID,
				FinalStatus:   status,
			}, err
		}
	}

	return ForwardResult{
		CallSID:       participant.CallSID,
		ConferenceSID: participant.ConferenceSID,
		FinalStatus:   status,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
