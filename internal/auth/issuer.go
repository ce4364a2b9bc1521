package auth

import (
	"errors"
	"fmt"
	"time"

	"voice-gateway/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer builds short-lived capability tokens a browser/mobile client
// presents to the provider to place and receive voice calls. The token is a
// provider-compatible JWT: HS256, content type "twilio-fpa;v=1", signed with
// the API key secret, carrying a single voice grant scoped to the configured
// call-control application.
type Issuer struct {
	accountSID   string
	apiKeySID    string
	apiKeySecret []byte
	appSID       string
	ttl          time.Duration

	now func() time.Time
}

var (
	ErrMissingIdentity = errors.New("auth: identity is required")
	// ErrIncompleteConfig means the signing credentials or the application
	// id were absent; token issuance cannot proceed.
	ErrIncompleteConfig = errors.New("auth: account sid, api key pair and twiml app sid are required")
)

func NewIssuer(cfg config.TwilioConfig, ttl time.Duration) (*Issuer, error) {
	if cfg.AccountSID == "" || cfg.APIKeySID == "" || cfg.APIKeySecret == "" || cfg.TwiMLAppSID == "" {
		return nil, ErrIncompleteConfig
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{
		accountSID:   cfg.AccountSID,
		apiKeySID:    cfg.APIKeySID,
		apiKeySecret: []byte(cfg.APIKeySecret),
		appSID:       cfg.TwiMLAppSID,
		ttl:          ttl,
		now:          time.Now,
	}, nil
}

// AccessToken is the issued credential plus the metadata the /token endpoint
// echoes back.
type AccessToken struct {
	Token    string
	Identity string
	IssuedAt time.Time
}

type VoiceGrant struct {
	Outgoing OutgoingGrant `json:"outgoing"`
	Incoming IncomingGrant `json:"incoming"`
}

type OutgoingGrant struct {
	ApplicationSID string `json:"application_sid"`
}

type IncomingGrant struct {
	Allow bool `json:"allow"`
}

// Grants is the provider's grant envelope. This issuer only ever emits the
// voice grant.
type Grants struct {
	Identity string     `json:"identity"`
	Voice    VoiceGrant `json:"voice"`
}

// Claims is the access-token payload shape.
type Claims struct {
	jwt.RegisteredClaims
	Grants Grants `json:"grants"`
}

// Issue signs a token for identity. The jti follows the provider convention
// of "<api key sid>-<unix seconds>".
func (i *Issuer) Issue(identity string) (AccessToken, error) {
	if identity == "" {
		return AccessToken{}, ErrMissingIdentity
	}
	now := i.now().UTC()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        fmt.Sprintf("%s-%d", i.apiKeySID, now.Unix()),
			Issuer:    i.apiKeySID,
			Subject:   i.accountSID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Grants: Grants{
			Identity: identity,
			Voice: VoiceGrant{
				Outgoing: OutgoingGrant{ApplicationSID: i.appSID},
				Incoming: IncomingGrant{Allow: true},
			},
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["cty"] = "twilio-fpa;v=1"

	signed, err := tok.SignedString(i.apiKeySecret)
	if err != nil {
		return AccessToken{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return AccessToken{Token: signed, Identity: identity, IssuedAt: now}, nil
}

// Decode verifies a token this issuer produced and returns its claims.
// Mirrors the provider-side verification; used by tests and diagnostics.
func (i *Issuer) Decode(token string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.apiKeySecret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	return claims, nil
}
