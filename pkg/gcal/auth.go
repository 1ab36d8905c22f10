package gcal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

const (
	// DefaultConfigDir is the default location for gcal configuration.
	DefaultConfigDir = "~/.config/gcal"

	credentialsFile = "credentials.json"
	tokenFile       = "token.json"
	settingsFile    = "config.yaml"
)

// ConfigPaths holds paths to all config files.
type ConfigPaths struct {
	Dir         string
	Credentials string
	Token       string
	Settings    string
}

// GetConfigPaths returns the config paths, expanding ~ if needed.
func GetConfigPaths(configDir string) (*ConfigPaths, error) {
	if configDir == "" {
		configDir = DefaultConfigDir
	}

	// Expand ~
	if len(configDir) > 0 && configDir[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		configDir = filepath.Join(home, configDir[1:])
	}

	return &ConfigPaths{
		Dir:         configDir,
		Credentials: filepath.Join(configDir, credentialsFile),
		Token:       filepath.Join(configDir, tokenFile),
		Settings:    filepath.Join(configDir, settingsFile),
	}, nil
}

// NewAuthenticator creates an Authenticator from credentials JSON file contents.
//
// Credentials can be obtained by creating a new OAuth client ID (Desktop app)
// at the Google API console https://console.developers.google.com/apis/credentials.
func NewAuthenticator(credentials io.Reader) (*Authenticator, error) {
	cfg, err := clientFromCredentials(credentials)
	if err != nil {
		return nil, fmt.Errorf("creating config from credentials: %w", err)
	}
	return &Authenticator{
		State: generateOauthState(),
		cfg:   cfg,
	}, nil
}

// Authenticator encapsulates OAuth operations for the Calendar API.
type Authenticator struct {
	State string
	cfg   *oauth2.Config
}

// TokenSource returns a refreshing token source for a previously cached token.
func (a *Authenticator) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return a.cfg.TokenSource(ctx, tok)
}

// AuthURL returns the URL the user has to visit to authorize the
// application and obtain an auth code.
func (a *Authenticator) AuthURL(redirectURL string) string {
	a.cfg.RedirectURL = redirectURL
	return a.cfg.AuthCodeURL(a.State, oauth2.AccessTypeOffline)
}

// Exchange trades an auth code for a token.
func (a *Authenticator) Exchange(ctx context.Context, authCode string) (*oauth2.Token, error) {
	tok, err := a.cfg.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// AuthorizeLocal runs the interactive consent flow: it opens a loopback
// listener on an OS-assigned port, prints the consent URL for the user's
// browser, waits for the redirect carrying the auth code, and exchanges the
// code for a token. The listener is torn down on every exit path, including
// context cancellation.
func (a *Authenticator) AuthorizeLocal(ctx context.Context, msgw io.Writer) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, errors.Wrap(err, "opening loopback listener")
	}
	defer ln.Close()

	redirectURL := fmt.Sprintf("http://%s/", ln.Addr().String())
	authURL := a.AuthURL(redirectURL)

	fmt.Fprintf(msgw, "\nGo to the following link in your browser:\n\n%s\n\n", authURL)
	fmt.Fprintf(msgw, "Waiting for authorization...\n")

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			// Browsers also probe for favicon.ico and the like.
			if q.Get("code") == "" && q.Get("state") == "" && q.Get("error") == "" {
				http.NotFound(w, r)
				return
			}
			if errMsg := q.Get("error"); errMsg != "" {
				http.Error(w, "Authorization failed. You can close this window.", http.StatusBadRequest)
				errCh <- errors.Errorf("authorization denied: %s", errMsg)
				return
			}
			if q.Get("state") != a.State {
				http.Error(w, "State mismatch.", http.StatusBadRequest)
				errCh <- errors.New("oauth state mismatch on redirect")
				return
			}
			code := q.Get("code")
			if code == "" {
				http.Error(w, "Missing auth code.", http.StatusBadRequest)
				errCh <- errors.New("redirect carried no auth code")
				return
			}
			fmt.Fprintln(w, "Authorization complete. You can close this window.")
			codeCh <- code
		}),
	}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- errors.Wrap(err, "callback server")
		}
	}()
	defer srv.Close()

	var authCode string
	select {
	case authCode = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	log.Debugf("Received auth code on %s", redirectURL)
	return a.Exchange(ctx, authCode)
}

func clientFromCredentials(credentials io.Reader) (*oauth2.Config, error) {
	credBytes, err := io.ReadAll(credentials)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	// Write-capable scope even for read-only subcommands: quick-add needs it
	// and the scope is fixed at build time.
	return google.ConfigFromJSON(credBytes, calendar.CalendarScope)
}

func parseToken(token io.Reader) (*oauth2.Token, error) {
	tok := &oauth2.Token{}
	err := json.NewDecoder(token).Decode(tok)
	return tok, err
}

// SaveToken writes a token to path, owner-readable only.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrap(err, "creating token file")
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return errors.Wrap(err, "encoding token")
	}
	return nil
}

func generateOauthState() string {
	b := make([]byte, 128)
	if _, err := rand.Read(b); err != nil {
		// We can't really afford errors in secure random number generation.
		panic(err)
	}
	return base64.URLEncoding.EncodeToString(b)
}
