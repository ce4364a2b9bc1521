package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voice-gateway/internal/config"
)

func testCreds() Credentials {
	return Credentials{
		AccountSID:   "AC123",
		AuthToken:    "token",
		APIKeySID:    "SK123",
		APIKeySecret: "secret",
		Mode:         config.AuthModeAccount,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(testCreds())
	c.baseURL = srv.URL
	c.hc = srv.Client()
	return c, srv
}

func TestSendMessage(t *testing.T) {
	var gotPath, gotUser, gotPass string
	var gotForm map[string]string

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		_ = r.ParseForm()
		gotForm = map[string]string{
			"From": r.PostFormValue("From"),
			"To":   r.PostFormValue("To"),
			"Body": r.PostFormValue("Body"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","from":"+1555","to":"+1666","body":"hi","status":"queued"}`))
	})

	msg, err := c.SendMessage(context.Background(), "+1555", "+1666", "hi")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if msg.SID != "SM1" || msg.Status != "queued" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if gotPath != "/Accounts/AC123/Messages.json" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotUser != "AC123" || gotPass != "token" {
		t.Fatalf("unexpected basic auth: %s/%s", gotUser, gotPass)
	}
	if gotForm["From"] != "+1555" || gotForm["To"] != "+1666" || gotForm["Body"] != "hi" {
		t.Fatalf("unexpected form: %v", gotForm)
	}
}

func TestAPIKeyAuthMode(t *testing.T) {
	var gotUser, gotPass string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sid":"CA1","status":"queued"}`))
	})
	c.creds.Mode = config.AuthModeAPIKey

	if _, err := c.FetchCall(context.Background(), "CA1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotUser != "SK123" || gotPass != "secret" {
		t.Fatalf("expected api key auth, got %s/%s", gotUser, gotPass)
	}
}

func TestCreateCall(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostFormValue("Url") != "https://example.com/voice" {
			t.Errorf("unexpected Url: %s", r.PostFormValue("Url"))
		}
		if r.PostFormValue("Method") != "POST" {
			t.Errorf("unexpected Method: %s", r.PostFormValue("Method"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"CA1","status":"queued"}`))
	})

	call, err := c.CreateCall(context.Background(), "+1555", "+1666", "https://example.com/voice")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if call.SID != "CA1" || call.Status != CallStatusQueued {
		t.Fatalf("unexpected call: %+v", call)
	}
}

func TestAddConferenceParticipant_FixedOptions(t *testing.T) {
	want := map[string]string{
		"EarlyMedia":          "true",
		"EndConferenceOnExit": "false",
		"Muted":               "false",
		"Hold":                "false",
		"Beep":                "onEnter",
	}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Accounts/AC123/Conferences/CF1/Participants.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = r.ParseForm()
		for k, v := range want {
			if got := r.PostFormValue(k); got != v {
				t.Errorf("option %s: got %q, want %q", k, got, v)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"call_sid":"CA9","conference_sid":"CF1","status":"queued"}`))
	})

	p, err := c.AddConferenceParticipant(context.Background(), "CF1", "+1777", "+1555")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.CallSID != "CA9" || p.ConferenceSID != "CF1" {
		t.Fatalf("unexpected participant: %+v", p)
	}
}

func TestListCalls_QueryParams(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("PageSize") != "5000" {
			t.Errorf("unexpected PageSize: %s", q.Get("PageSize"))
		}
		if q.Get("StartTime>") != "2025-01-01" {
			t.Errorf("unexpected StartTime filter: %s", q.Get("StartTime>"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"calls":[{"sid":"CA1","status":"completed","duration":"120"}]}`))
	})

	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	calls, err := c.ListCalls(context.Background(), since, 5000)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(calls) != 1 || calls[0].SID != "CA1" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestListMessages(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("PageSize") != "20" {
			t.Errorf("unexpected PageSize: %s", r.URL.Query().Get("PageSize"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"sid":"SM1","status":"delivered"},{"sid":"SM2","status":"sent"}]}`))
	})

	msgs, err := c.ListMessages(context.Background(), 20)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(msgs) != 2 || msgs[1].SID != "SM2" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestProviderErrorDecoding(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":20003,"message":"Authenticate","more_info":"https://www.twilio.com/docs/errors/20003","status":401}`))
	})

	_, err := c.SendMessage(context.Background(), "+1", "+2", "x")
	if err == nil {
		t.Fatalf("expected error")
	}
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Code != 20003 || apiErr.StatusCode != 401 || apiErr.Message != "Authenticate" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestMissingCredentials(t *testing.T) {
	c := NewClient(Credentials{Mode: config.AuthModeAccount})
	if _, err := c.FetchCall(context.Background(), "CA1"); err == nil {
		t.Fatalf("expected error for missing credentials")
	}
}
