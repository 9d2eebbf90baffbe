package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// Authorize runs the installed-app OAuth exchange and saves the resulting
// token next to the configuration. promptCode receives the consent URL and
// must return the code Google hands the user after they approve access.
func Authorize(ctx context.Context, credentialsPath, tokenPath string, promptCode func(authURL string) (string, error)) error {
	cfg, err := configFromFile(credentialsPath)
	if err != nil {
		return err
	}
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	code, err := promptCode(authURL)
	if err != nil {
		return fmt.Errorf("gcal: %w", err)
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("gcal: exchanging authorization code: %w", err)
	}
	return saveToken(tokenPath, tok)
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("gcal: saving token: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("gcal: encoding token: %w", err)
	}
	return nil
}
