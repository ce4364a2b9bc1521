package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values come from env (or an env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App    AppConfig
	Twilio TwilioConfig
	Token  TokenConfig
	Voice  VoiceConfig
	Logs   LogsConfig
}

type AppConfig struct {
	Env  string
	Port int
}

// AuthMode selects which credential pair the REST adapter authenticates with.
type AuthMode string

const (
	AuthModeAccount AuthMode = "account"
	AuthModeAPIKey  AuthMode = "api-key"
)

type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	APIKeySID    string
	APIKeySecret string
	TwiMLAppSID  string

	// Number is the sender/caller-id number in E.164.
	Number string

	AuthMode AuthMode
}

type TokenConfig struct {
	TTL time.Duration

	// DefaultIdentity makes GET /token work without a query parameter.
	// Leave empty to require ?identity=.
	DefaultIdentity string
}

type VoiceConfig struct {
	// ForwardingNumber is dialed when a caller presses 9.
	ForwardingNumber string

	// URL is the publicly reachable /voice webhook, if known. Informational.
	URL string
}

type LogsConfig struct {
	CallLimit    int
	MessageLimit int

	// CallsSince filters /call-logs to calls started after this date.
	CallsSince time.Time
}

func Load() (Config, error) {
	c := Config{}
	var errs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	c.App.Port = intOrDefault("PORT", 3001, &errs)

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.APIKeySID = strings.TrimSpace(os.Getenv("TWILIO_API_KEY_SID"))
	c.Twilio.APIKeySecret = os.Getenv("TWILIO_API_KEY_SECRET")
	c.Twilio.TwiMLAppSID = strings.TrimSpace(os.Getenv("TWILIO_TWIML_APP_SID"))
	c.Twilio.Number = strings.TrimSpace(os.Getenv("TWILIO_NUMBER"))
	c.Twilio.AuthMode = AuthMode(strings.TrimSpace(os.Getenv("TWILIO_AUTH_MODE")))
	if c.Twilio.AuthMode == "" {
		c.Twilio.AuthMode = AuthModeAccount
	}

	c.Token.TTL = durationOrDefault("TOKEN_TTL", time.Hour, &errs)
	c.Token.DefaultIdentity = strings.TrimSpace(os.Getenv("TOKEN_DEFAULT_IDENTITY"))

	c.Voice.ForwardingNumber = strings.TrimSpace(os.Getenv("FORWARDING_NUMBER"))
	if c.Voice.ForwardingNumber == "" {
		c.Voice.ForwardingNumber = "+916353791329"
	}
	c.Voice.URL = strings.TrimSpace(os.Getenv("VOICE_URL"))

	c.Logs.CallLimit = intOrDefault("CALL_LOG_LIMIT", 5000, &errs)
	c.Logs.MessageLimit = intOrDefault("MESSAGE_LOG_LIMIT", 5000, &errs)
	c.Logs.CallsSince = dateOrDefault("CALL_LOG_SINCE", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), &errs)

	if err := joinErrors(errs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Missing returns the env var names of required fields that are absent.
// The startup path logs these before exiting; /health reports them as booleans.
func (c Config) Missing() []string {
	var out []string
	if c.Twilio.AccountSID == "" {
		out = append(out, "TWILIO_ACCOUNT_SID")
	}
	if c.Twilio.AuthToken == "" {
		out = append(out, "TWILIO_AUTH_TOKEN")
	}
	if c.Twilio.APIKeySID == "" {
		out = append(out, "TWILIO_API_KEY_SID")
	}
	if c.Twilio.APIKeySecret == "" {
		out = append(out, "TWILIO_API_KEY_SECRET")
	}
	if c.Twilio.TwiMLAppSID == "" {
		out = append(out, "TWILIO_TWIML_APP_SID")
	}
	if c.Twilio.Number == "" {
		out = append(out, "TWILIO_NUMBER")
	}
	return out
}

func (c Config) Validate() error {
	var errs []error

	if missing := c.Missing(); len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", ")))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a valid port, got %d", c.App.Port))
	}
	switch c.Twilio.AuthMode {
	case AuthModeAccount, AuthModeAPIKey:
	default:
		errs = append(errs, fmt.Errorf("TWILIO_AUTH_MODE must be %q or %q, got %q", AuthModeAccount, AuthModeAPIKey, c.Twilio.AuthMode))
	}
	if c.Token.TTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Logs.CallLimit <= 0 {
		errs = append(errs, fmt.Errorf("CALL_LOG_LIMIT must be positive, got %d", c.Logs.CallLimit))
	}
	if c.Logs.MessageLimit <= 0 {
		errs = append(errs, fmt.Errorf("MESSAGE_LOG_LIMIT must be positive, got %d", c.Logs.MessageLimit))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func intOrDefault(key string, def int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return def
	}
	return n
}

func durationOrDefault(key string, def time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be a duration like 1h or 30m, got %q", key, v))
		return def
	}
	return d
}

func dateOrDefault(key string, def time.Time, errs *[]error) time.Time {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	*errs = append(*errs, fmt.Errorf("%s must be YYYY-MM-DD or RFC3339, got %q", key, v))
	return def
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
