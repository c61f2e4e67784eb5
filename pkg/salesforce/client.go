package salesforce

import (
	"net/http"
	"sync"

	"civicserve-backend/pkg/config"
	"civicserve-backend/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// Session brokers the OAuth bearer token for the Salesforce-backed proxy
// and wraps outbound HTTP calls with automatic re-authentication. One
// Session owns one token; concurrent refreshes are de-duplicated through a
// single-flight group, so at most one token request is ever in flight.
type Session struct {
	oauthURL       string
	consumerKey    string
	consumerSecret string
	username       string
	password       string
	securityToken  string

	httpClient *http.Client

	mu    sync.RWMutex
	token string
	group singleflight.Group

	// passthrough sessions perform direct fetches without auth. Used when
	// no credentials are configured (local/dev mode).
	passthrough bool
}

// NewSession creates a Session from the Salesforce credential block. When
// no credentials are configured the session runs in passthrough mode and
// logs a warning once; config validation rejects that in deployments that
// set salesforce.required.
func NewSession(cfg *config.Config, httpClient *http.Client) *Session {
	if !cfg.SalesforceConfigured() {
		logger.GlobalLogger.Printf("Salesforce credentials not configured; proxy calls will be unauthenticated")
		return &Session{httpClient: httpClient, passthrough: true}
	}

	return &Session{
		oauthURL:       cfg.Salesforce.OAuthURL,
		consumerKey:    cfg.Salesforce.ConsumerKey,
		consumerSecret: cfg.Salesforce.ConsumerSecret,
		username:       cfg.Salesforce.Username,
		password:       cfg.Salesforce.Password,
		securityToken:  cfg.Salesforce.SecurityToken,
		httpClient:     httpClient,
	}
}

// Authenticated reports whether the session attaches bearer tokens.
func (s *Session) Authenticated() bool {
	return !s.passthrough
}

func (s *Session) currentToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}
