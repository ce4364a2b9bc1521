package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"voice-gateway/internal/config"
)

const defaultBaseURL = "https://api.twilio.com/2010-04-01"

// Credentials carries both authentication modes the provider supports.
// The account pair (SID + auth token) and the API key pair (key SID + secret)
// are distinct upstream credentials; Mode selects which one signs REST calls.
type Credentials struct {
	AccountSID   string
	AuthToken    string
	APIKeySID    string
	APIKeySecret string
	Mode         config.AuthMode
}

func (c Credentials) basicAuth() (user, pass string, err error) {
	switch c.Mode {
	case config.AuthModeAPIKey:
		if c.APIKeySID == "" || c.APIKeySecret == "" {
			return "", "", errors.New("twilio: api key credentials not configured")
		}
		return c.APIKeySID, c.APIKeySecret, nil
	default:
		if c.AccountSID == "" || c.AuthToken == "" {
			return "", "", errors.New("twilio: account credentials not configured")
		}
		return c.AccountSID, c.AuthToken, nil
	}
}

// Client is a thin REST adapter over the provider's 2010-04-01 API.
// No retries and no caching: a single upstream failure is surfaced to the
// caller as an *APIError.
type Client struct {
	creds   Credentials
	baseURL string
	hc      *http.Client
}

func NewClient(creds Credentials) *Client {
	return &Client{
		creds:   creds,
		baseURL: defaultBaseURL,
		hc:      &http.Client{Timeout: 30 * time.Second},
	}
}

// SendMessage submits an outbound SMS.
func (c *Client) SendMessage(ctx context.Context, from, to, body string) (Message, error) {
	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Body", body)

	var msg Message
	err := c.do(ctx, http.MethodPost, "/Messages.json", form, nil, &msg)
	return msg, err
}

// CreateCall places an outbound call controlled by the markup document at
// controlURL.
func (c *Client) CreateCall(ctx context.Context, from, to, controlURL string) (Call, error) {
	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Url", controlURL)
	form.Set("Method", http.MethodPost)

	var call Call
	err := c.do(ctx, http.MethodPost, "/Calls.json", form, nil, &call)
	return call, err
}

// ListMessages fetches up to limit message records, newest first.
// One-shot: no pagination beyond the provider's own page.
func (c *Client) ListMessages(ctx context.Context, limit int) ([]Message, error) {
	query := url.Values{}
	query.Set("PageSize", strconv.Itoa(limit))

	var page struct {
		Messages []Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/Messages.json", nil, query, &page); err != nil {
		return nil, err
	}
	return page.Messages, nil
}

// ListCalls fetches up to limit call records started after since.
// A zero since applies no time filter.
func (c *Client) ListCalls(ctx context.Context, since time.Time, limit int) ([]Call, error) {
	query := url.Values{}
	query.Set("PageSize", strconv.Itoa(limit))
	if !since.IsZero() {
		// "StartTime>" is the provider's after-filter parameter.
		query.Set("StartTime>", since.UTC().Format("2006-01-02"))
	}

	var page struct {
		Calls []Call `json:"calls"`
	}
	if err := c.do(ctx, http.MethodGet, "/Calls.json", nil, query, &page); err != nil {
		return nil, err
	}
	return page.Calls, nil
}

// AddConferenceParticipant dials to into an existing conference.
// The option set is fixed: early media on, the conference survives the
// participant leaving, unmuted, not on hold, beep on enter.
func (c *Client) AddConferenceParticipant(ctx context.Context, conferenceSID, to, from string) (Participant, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("EarlyMedia", "true")
	form.Set("EndConferenceOnExit", "false")
	form.Set("Muted", "false")
	form.Set("Hold", "false")
	form.Set("Beep", "onEnter")

	var p Participant
	path := fmt.Sprintf("/Conferences/%s/Participants.json", url.PathEscape(conferenceSID))
	err := c.do(ctx, http.MethodPost, path, form, nil, &p)
	return p, err
}

// FetchCall retrieves the current state of a single call.
func (c *Client) FetchCall(ctx context.Context, callSID string) (Call, error) {
	var call Call
	path := fmt.Sprintf("/Calls/%s.json", url.PathEscape(callSID))
	err := c.do(ctx, http.MethodGet, path, nil, nil, &call)
	return call, err
}

// do issues one request under /Accounts/{sid} and decodes the JSON response
// into out. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, form, query url.Values, out any) error {
	user, pass, err := c.creds.basicAuth()
	if err != nil {
		return err
	}
	if c.creds.AccountSID == "" {
		return errors.New("twilio: account sid not configured")
	}

	reqURL := fmt.Sprintf("%s/Accounts/%s%s", c.baseURL, c.creds.AccountSID, path)
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody *strings.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	} else {
		reqBody = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("twilio: build request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.SetBasicAuth(user, pass)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("twilio: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("twilio: decode response: %w", err)
	}
	return nil
}

var _ API = (*Client)(nil)
