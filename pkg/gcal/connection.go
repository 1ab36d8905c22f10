package gcal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

var (
	// Version is the app version as reported in RPCs.
	Version = "unspecified"
)

// Client is the main connection for gcal. It owns the credential lifecycle
// for the process and the Calendar API client built on top of it.
type Client struct {
	calendar *calendar.Service
}

func userAgent() string {
	return "gcal " + Version
}

// NewFake creates a client backed by a caller-supplied HTTP client, used for
// testing.
func NewFake(client *http.Client) (*Client, error) {
	svc, err := calendar.NewService(context.Background(), option.WithHTTPClient(client))
	if err != nil {
		return nil, errors.Wrap(err, "creating Calendar client")
	}
	svc.UserAgent = userAgent()
	return &Client{calendar: svc}, nil
}

// New creates a Client from the config directory.
//
// The cached token is used when still usable (valid, or expired with a
// refresh token, which the token source renews transparently). Otherwise the
// interactive consent flow runs. Every token change is written back to
// token.json.
func New(ctx context.Context, configDir string, verbose bool) (*Client, error) {
	paths, err := GetConfigPaths(configDir)
	if err != nil {
		return nil, err
	}

	if verbose {
		log.Infof("Config paths resolved:")
		log.Infof("  Directory: %s", paths.Dir)
		log.Infof("  Credentials: %s", paths.Credentials)
		log.Infof("  Token: %s", paths.Token)
	}

	auth, err := openAuthenticator(paths)
	if err != nil {
		return nil, err
	}

	tok := loadCachedToken(paths.Token)
	switch {
	case tok == nil:
		if verbose {
			log.Infof("No usable cached token, starting authorization flow")
		}
		tok, err = auth.AuthorizeLocal(ctx, os.Stderr)
		if err != nil {
			return nil, errors.Wrap(err, "interactive authorization")
		}
		if err := SaveToken(paths.Token, tok); err != nil {
			return nil, err
		}
	case tok.Valid():
		if verbose {
			log.Infof("Cached token is valid")
		}
	default:
		// Expired with a refresh token; the token source refreshes it on
		// first use and the persisting wrapper writes it back.
		if verbose {
			log.Infof("Cached token expired, will refresh")
		}
	}

	ts := &persistingTokenSource{
		src:  auth.TokenSource(ctx, tok),
		path: paths.Token,
		last: tok.AccessToken,
	}

	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, errors.Wrap(err, "creating Calendar client")
	}
	svc.UserAgent = userAgent()

	if verbose {
		log.Infof("Calendar connection ready")
	}
	return &Client{calendar: svc}, nil
}

// CalendarService returns the Calendar API service client.
func (c *Client) CalendarService() *calendar.Service {
	return c.calendar
}

func openAuthenticator(paths *ConfigPaths) (*Authenticator, error) {
	credFile, err := os.Open(paths.Credentials)
	if err != nil {
		return nil, fmt.Errorf(`credentials not found at %s

To set up authentication:
1. Go to https://console.developers.google.com
2. Create a new project (or select existing)
3. Enable the Google Calendar API
4. Create OAuth 2.0 Client ID (Desktop app)
5. Download the credentials JSON file
6. Save it to: %s
7. Run 'gcal configure' to authorize

Scope needed:
- https://www.googleapis.com/auth/calendar
`, paths.Credentials, paths.Credentials)
	}
	defer credFile.Close()

	auth, err := NewAuthenticator(credFile)
	if err != nil {
		return nil, fmt.Errorf("creating authenticator: %w", err)
	}
	return auth, nil
}

// loadCachedToken reads token.json. A missing, unreadable, or corrupt file is
// treated as no token at all, never as a fatal error.
func loadCachedToken(path string) *oauth2.Token {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	tok, err := parseToken(f)
	if err != nil {
		log.Warnf("Ignoring unreadable token file %s: %v", path, err)
		return nil
	}
	if !tok.Valid() && tok.RefreshToken == "" {
		return nil
	}
	return tok
}

// persistingTokenSource writes the token back to disk whenever the underlying
// source hands out a new access token (i.e. after a refresh).
type persistingTokenSource struct {
	src  oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := SaveToken(s.path, tok); err != nil {
			log.Warnf("Failed to persist refreshed token: %v", err)
		} else {
			s.last = tok.AccessToken
		}
	}
	return tok, nil
}
