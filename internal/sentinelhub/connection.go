package sentinelhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/agriscope/agriscope/internal/properties"
	"golang.org/x/oauth2/clientcredentials"
)

var ErrAuth = errors.New("authentication with the processing service failed")

// Credentials is the JSON blob a user can upload or paste instead of
// configuring the environment.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	TokenURL     string `json:"token_url,omitempty"`
}

// Connection manages the OAuth2 session with the processing service.
// Ensure is idempotent: once a token source has been validated the call is a
// cheap no-op, so every operation can call it without duplicating
// retry-on-auth branching.
type Connection struct {
	mu         sync.Mutex
	httpClient *http.Client
	creds      []Credentials
	tokenURL   string
}

// NewConnection builds a connection from SH_CLIENT_ID / SH_CLIENT_SECRET /
// SH_TOKEN_URL. Multiple comma-separated credential pairs are tried in
// order.
func NewConnection() *Connection {
	ids := strings.Split(properties.SentinelHubClientIDs(), ",")
	secrets := strings.Split(properties.SentinelHubClientSecrets(), ",")

	conn := &Connection{tokenURL: properties.SentinelHubTokenURL()}
	for i, id := range ids {
		if id == "" || i >= len(secrets) {
			continue
		}
		conn.creds = append(conn.creds, Credentials{ClientID: id, ClientSecret: secrets[i]})
	}
	return conn
}

// NewConnectionFromJSON builds a connection from an uploaded credential
// blob.
func NewConnectionFromJSON(data []byte) (*Connection, error) {
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("%w: malformed credentials JSON: %v", ErrAuth, err)
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: credentials JSON is missing client_id or client_secret", ErrAuth)
	}
	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = properties.SentinelHubTokenURL()
	}
	return &Connection{creds: []Credentials{creds}, tokenURL: tokenURL}, nil
}

// Ensure establishes the session if it is not already up. The first valid
// credential pair wins.
func (c *Connection) Ensure(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.httpClient != nil {
		return nil
	}

	if len(c.creds) == 0 {
		return fmt.Errorf("%w: no credentials configured (SH_CLIENT_ID, SH_CLIENT_SECRET)", ErrAuth)
	}
	if c.tokenURL == "" {
		return fmt.Errorf("%w: SH_TOKEN_URL is not set", ErrAuth)
	}

	var lastErr error
	for _, cred := range c.creds {
		config := &clientcredentials.Config{
			ClientID:     cred.ClientID,
			ClientSecret: cred.ClientSecret,
			TokenURL:     c.tokenURL,
		}

		tokenCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		_, err := config.Token(tokenCtx)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}

		c.httpClient = config.Client(context.Background())
		return nil
	}

	return fmt.Errorf("%w: %v", ErrAuth, lastErr)
}

// Connected reports whether a session has been established.
func (c *Connection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.httpClient != nil
}

func (c *Connection) client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient == nil {
		return http.DefaultClient
	}
	return c.httpClient
}
