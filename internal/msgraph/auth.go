package msgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/shift-tracker/internal/config"
)

// ErrNotConfigured is returned when tenant or client ID is missing.
var ErrNotConfigured = errors.New("outlook sync is not configured (set outlook.tenant_id and outlook.client_id)")

var requiredScopes = []string{
	"https://graph.microsoft.com/Calendars.Read",
	"offline_access",
}

func msEndpoint(tenantID, path string) string {
	return "https://login.microsoftonline.com/" + tenantID + "/oauth2/v2.0/" + path
}

// TokenPath returns where tokens are cached below dataDir.
func TokenPath(dataDir string) string {
	return filepath.Join(dataDir, "auth", "msgraph_tokens.json")
}

// OAuth2Config returns the device code flow configuration for cfg.
func OAuth2Config(cfg config.OutlookConfig) (*oauth2.Config, error) {
	if cfg.TenantID == "" || cfg.ClientID == "" {
		return nil, ErrNotConfigured
	}
	return &oauth2.Config{
		ClientID: cfg.ClientID,
		Scopes:   requiredScopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: msEndpoint(cfg.TenantID, "devicecode"),
			TokenURL:      msEndpoint(cfg.TenantID, "token"),
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}, nil
}

// loadToken returns nil, nil when no token has been saved yet.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", path, err)
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// Authenticator obtains Graph tokens, caching them in TokenPath.
type Authenticator struct {
	Config    *oauth2.Config
	TokenPath string
	// Prompt receives the device code instructions.
	Prompt io.Writer
	Log    *zap.Logger
}

// NewAuthenticator builds an Authenticator for the configured tenant that
// caches tokens below dataDir.
func NewAuthenticator(cfg config.OutlookConfig, dataDir string, prompt io.Writer, log *zap.Logger) (*Authenticator, error) {
	oc, err := OAuth2Config(cfg)
	if err != nil {
		return nil, err
	}
	return &Authenticator{Config: oc, TokenPath: TokenPath(dataDir), Prompt: prompt, Log: log}, nil
}

// TokenSource returns a token source backed by a saved token, refreshing it
// if needed, or by a new device code login. Refreshed tokens are written
// back to TokenPath.
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := a.token(ctx)
	if err != nil {
		return nil, err
	}
	return &savingTokenSource{ts: a.Config.TokenSource(ctx, tok), path: a.TokenPath, log: a.Log}, nil
}

func (a *Authenticator) token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := loadToken(a.TokenPath)
	if err != nil {
		a.Log.Warn("ignoring saved token", zap.Error(err))
		tok = nil
	}
	if tok != nil && tok.Valid() {
		return tok, nil
	}

	if tok != nil && tok.RefreshToken != "" {
		refreshed, err := a.Config.TokenSource(ctx, tok).Token()
		if err == nil {
			if err := saveToken(a.TokenPath, refreshed); err != nil {
				a.Log.Warn("could not save refreshed token", zap.Error(err))
			}
			return refreshed, nil
		}
		a.Log.Info("token refresh failed, re-authenticating", zap.Error(err))
	}

	resp, err := a.Config.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device auth request failed: %w", err)
	}

	fmt.Fprintln(a.Prompt)
	fmt.Fprintln(a.Prompt, "To sign in, use a web browser to open the page:")
	fmt.Fprintf(a.Prompt, "  %s\n", resp.VerificationURI)
	fmt.Fprintf(a.Prompt, "Enter the code: %s\n", resp.UserCode)
	fmt.Fprintln(a.Prompt)

	newTok, err := a.Config.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("device authentication failed: %w", err)
	}
	if err := saveToken(a.TokenPath, newTok); err != nil {
		a.Log.Warn("could not save token", zap.Error(err))
	}
	return newTok, nil
}

// savingTokenSource persists every token handed out by ts.
type savingTokenSource struct {
	ts   oauth2.TokenSource
	path string
	log  *zap.Logger
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	if err := saveToken(s.path, tok); err != nil {
		s.log.Debug("token not saved", zap.Error(err))
	}
	return tok, nil
}
