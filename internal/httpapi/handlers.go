// Package httpapi contains the HTTP handlers. Keep these thin: parse and
// validate input, call the provider adapter, shape JSON.
package httpapi

import (
	"net/http"
	"time"

	"voice-gateway/internal/auth"
	"voice-gateway/internal/calls"
	"voice-gateway/internal/config"
	"voice-gateway/internal/twilio"
	"voice-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups the endpoint handlers for dependency injection.
type Handlers struct {
	Cfg       config.Config
	Issuer    *auth.Issuer
	Twilio    twilio.API
	Forwarder *calls.Forwarder

	// Now is injectable for deterministic timestamps in tests.
	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// providerError surfaces an upstream failure uniformly: HTTP 500 with
// {"success":false,"error":...}. The upstream message is kept verbatim so it
// can be correlated with provider-side logs.
func providerError(c *gin.Context, op string, err error) {
	log := logger.FromGin(c)
	if apiErr, ok := twilio.AsAPIError(err); ok {
		log.Error(op+" failed", "err", err, "provider_code", apiErr.Code, "provider_status", apiErr.StatusCode)
	} else {
		log.Error(op+" failed", "err", err)
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
}

// Health reports which required configuration fields are present. It never
// fails, whatever state the configuration is in.
func (h Handlers) Health(c *gin.Context) {
	tw := h.Cfg.Twilio
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"env_check": gin.H{
			"account_sid":  tw.AccountSID != "",
			"auth_token":   tw.AuthToken != "",
			"api_key":      tw.APIKeySID != "",
			"api_secret":   tw.APIKeySecret != "",
			"twiml_app":    tw.TwiMLAppSID != "",
			"phone_number": tw.Number != "",
		},
	})
}

// Token issues a voice access token. The identity comes from the query
// string, falling back to the configured default identity.
func (h Handlers) Token(c *gin.Context) {
	identity := c.Query("identity")
	if identity == "" {
		identity = h.Cfg.Token.DefaultIdentity
	}
	if identity == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Missing required parameter: identity",
		})
		return
	}
	if h.Issuer == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "token issuer not configured"})
		return
	}

	tok, err := h.Issuer.Issue(identity)
	if err != nil {
		logger.FromGin(c).Error("token generation failed", "identity", identity, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to generate access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     tok.Token,
		"identity":  tok.Identity,
		"timestamp": tok.IssuedAt.Format(time.RFC3339),
	})
}

type sendSMSRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// SendSMS relays an outbound SMS through the provider.
func (h Handlers) SendSMS(c *gin.Context) {
	var req sendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	if req.To == "" || req.Message == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "'to' and 'message' are required"})
		return
	}

	msg, err := h.Twilio.SendMessage(c.Request.Context(), h.Cfg.Twilio.Number, req.To, req.Message)
	if err != nil {
		providerError(c, "send sms", err)
		return
	}
	logger.FromGin(c).Info("sms sent", "sid", msg.SID, "to", req.To)
	c.JSON(http.StatusOK, gin.H{"success": true, "sid": msg.SID, "status": msg.Status})
}

type makeCallRequest struct {
	To       string `json:"to"`
	TwiMLURL string `json:"twimlUrl"`
}

// MakeCall places an outbound call whose behavior is driven by the markup
// document at twimlUrl.
func (h Handlers) MakeCall(c *gin.Context) {
	var req makeCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	if req.To == "" || req.TwiMLURL == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "'to' and 'twimlUrl' are required"})
		return
	}

	call, err := h.Twilio.CreateCall(c.Request.Context(), h.Cfg.Twilio.Number, req.To, req.TwiMLURL)
	if err != nil {
		providerError(c, "make call", err)
		return
	}
	logger.FromGin(c).Info("call created", "sid", call.SID, "to", req.To)
	c.JSON(http.StatusOK, gin.H{"success": true, "sid": call.SID, "status": call.Status})
}

type forwardRequest struct {
	ConferenceSID string `json:"ConferenceSid"`
	NewNumber     string `json:"NewNumber"`
	CallerNumber  string `json:"core_call_number"`
}

// ForwardCall adds a participant to an existing conference and waits,
// best-effort, for their leg to connect. The response carries whatever
// status polling last observed.
func (h Handlers) ForwardCall(c *gin.Context) {
	var req forwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	if req.ConferenceSID == "" || req.NewNumber == "" || req.CallerNumber == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "'ConferenceSid', 'NewNumber' and 'core_call_number' are required",
		})
		return
	}

	res, err := h.Forwarder.Forward(c.Request.Context(), req.ConferenceSID, req.NewNumber, req.CallerNumber)
	if err != nil {
		providerError(c, "forward call", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"sid":           res.CallSID,
		"ConferenceSid": res.ConferenceSID,
		"finalStatus":   res.FinalStatus,
	})
}

// CallLogs returns recent call history from the provider, filtered by the
// configured cutoff date and limit.
func (h Handlers) CallLogs(c *gin.Context) {
	list, err := h.Twilio.ListCalls(c.Request.Context(), h.Cfg.Logs.CallsSince, h.Cfg.Logs.CallLimit)
	if err != nil {
		providerError(c, "list calls", err)
		return
	}
	if list == nil {
		list = []twilio.Call{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "calls": list})
}

// MessageLogs returns recent SMS history from the provider.
func (h Handlers) MessageLogs(c *gin.Context) {
	list, err := h.Twilio.ListMessages(c.Request.Context(), h.Cfg.Logs.MessageLimit)
	if err != nil {
		providerError(c, "list messages", err)
		return
	}
	if list == nil {
		list = []twilio.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": list})
}
