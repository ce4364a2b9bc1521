package httpapi

import (
	"net/http"
	"regexp"
	"strings"

	"voice-gateway/internal/twiml"
	"voice-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// The provider posts webhook bodies as application/x-www-form-urlencoded.
// TODO: validate the X-Twilio-Signature header before trusting these.

const (
	clientPrefix = "client:"
	dialTimeout  = 30 // seconds
)

// phonePattern accepts an optional leading + followed by 7 to 15 digits.
var phonePattern = regexp.MustCompile(`^\+?\d{7,15}$`)

// Voice handles the inbound-call webhook and answers with call-control
// markup. "client:<identity>" dials a registered client; a bare number is
// normalized to E.164 and dialed over PSTN.
func (h Handlers) Voice(c *gin.Context) {
	log := logger.FromGin(c)

	to := c.PostForm("To")
	if to == "" {
		to = c.Query("To")
	}
	if to == "" {
		log.Warn("voice webhook without destination")
		c.String(http.StatusBadRequest, "Missing 'To' parameter")
		return
	}

	dial := twiml.Dial{CallerID: h.Cfg.Twilio.Number, Timeout: dialTimeout}
	switch {
	case strings.HasPrefix(to, clientPrefix):
		dial.Client = strings.TrimPrefix(to, clientPrefix)
	case phonePattern.MatchString(to):
		if !strings.HasPrefix(to, "+") {
			to = "+" + to
		}
		dial.Number = to
	default:
		log.Warn("voice webhook with invalid destination", "to", to)
		c.String(http.StatusBadRequest, "Invalid destination format")
		return
	}

	var r twiml.Response
	r.Append(dial)
	h.writeTwiML(c, r)
}

// DTMF handles keypad input on a live call. Digit 9 forwards the call to
// the configured forwarding number with a status callback; anything else is
// rejected verbally and the call ends.
func (h Handlers) DTMF(c *gin.Context) {
	log := logger.FromGin(c)

	digits := c.PostForm("Digits")
	log.Info("dtmf received", "digits", digits, "call_sid", c.PostForm("CallSid"))

	var r twiml.Response
	if digits == "9" {
		r.Append(twiml.Say{Text: "Call is being forwarded to the forwarding number"})
		r.Append(twiml.Dial{
			CallerID: h.Cfg.Twilio.Number,
			Timeout:  dialTimeout,
			Action:   "/call-status",
			Method:   http.MethodPost,
			Number:   h.Cfg.Voice.ForwardingNumber,
		})
	} else {
		r.Append(twiml.Say{Text: "Invalid option. Continuing with the call."})
		r.Append(twiml.Say{Text: "Call ended."})
	}
	h.writeTwiML(c, r)
}

// CallStatus receives call lifecycle events. Status is logged for
// correlation; nothing is persisted.
func (h Handlers) CallStatus(c *gin.Context) {
	logger.FromGin(c).Info("call status",
		"status", c.PostForm("CallStatus"),
		"call_sid", c.PostForm("CallSid"),
	)
	c.Status(http.StatusOK)
}

func (h Handlers) writeTwiML(c *gin.Context, r twiml.Response) {
	out, err := twiml.Render(r)
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(out))
}
