package main

import (
	"voice-gateway/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic.
func registerRoutes(r *gin.Engine, h httpapi.Handlers) {
	// Status and documentation.
	r.GET("/", h.Docs)
	r.GET("/health", h.Health)

	// Client-facing API (JSON).
	r.GET("/token", h.Token)
	r.POST("/send-sms", h.SendSMS)
	r.POST("/make-call", h.MakeCall)
	r.POST("/calls/forward", h.ForwardCall)
	r.GET("/call-logs", h.CallLogs)
	r.GET("/message-logs", h.MessageLogs)

	// Provider webhooks (form-encoded).
	// NOTE: protect these with provider signature validation in production.
	r.POST("/voice", h.Voice)
	r.POST("/dtmf-handler", h.DTMF)
	r.POST("/call-status", h.CallStatus)
}
