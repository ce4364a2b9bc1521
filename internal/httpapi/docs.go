package httpapi

import (
	_ "embed"
	"html/template"
	"net/http"

	"voice-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

//go:embed docs.gohtml
var docsTemplateSrc string

var docsTemplate = template.Must(template.New("docs").Parse(docsTemplateSrc))

// Endpoint is one row of the documentation page's API table.
type Endpoint struct {
	Method      string
	Path        string
	Description string
	Params      string
}

// Routes is the documented HTTP surface. The docs page is generated from
// this table so it cannot drift from the registered routes.
var Routes = []Endpoint{
	{http.MethodGet, "/health", "Server health and configuration presence check", ""},
	{http.MethodGet, "/token", "Issue a voice access token for client-side calling", "identity (query)"},
	{http.MethodPost, "/send-sms", "Send an SMS message", "to, message (JSON)"},
	{http.MethodPost, "/make-call", "Place an outbound call controlled by a markup URL", "to, twimlUrl (JSON)"},
	{http.MethodPost, "/calls/forward", "Dial a new participant into a conference and wait for connect", "ConferenceSid, NewNumber, core_call_number (JSON)"},
	{http.MethodPost, "/voice", "Inbound-call webhook; answers with call-control markup", "To (form)"},
	{http.MethodPost, "/dtmf-handler", "Keypad-input webhook; digit 9 forwards the call", "Digits (form)"},
	{http.MethodPost, "/call-status", "Call lifecycle webhook; logged only", "CallStatus, CallSid (form)"},
	{http.MethodGet, "/call-logs", "Recent call history from the provider", ""},
	{http.MethodGet, "/message-logs", "Recent SMS history from the provider", ""},
}

type docsCheck struct {
	Name string
	OK   bool
}

type docsData struct {
	Env    string
	Port   int
	Checks []docsCheck
	Routes []Endpoint
}

// Docs renders the status/documentation page.
func (h Handlers) Docs(c *gin.Context) {
	tw := h.Cfg.Twilio
	data := docsData{
		Env:  h.Cfg.App.Env,
		Port: h.Cfg.App.Port,
		Checks: []docsCheck{
			{"Account SID", tw.AccountSID != ""},
			{"Auth Token", tw.AuthToken != ""},
			{"API Key", tw.APIKeySID != "" && tw.APIKeySecret != ""},
			{"TwiML App", tw.TwiMLAppSID != ""},
			{"Phone Number", tw.Number != ""},
		},
		Routes: Routes,
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := docsTemplate.Execute(c.Writer, data); err != nil {
		logger.FromGin(c).Error("docs render failed", "err", err)
	}
}
