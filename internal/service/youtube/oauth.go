package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

func loadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	credBytes, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(credBytes, youtube.YoutubeReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	return config, nil
}

// NewOAuthHTTPClient returns an auto-refreshing client for a token written by Authorize.
func NewOAuthHTTPClient(ctx context.Context, credentialsFile, tokenFile string) (*http.Client, error) {
	config, err := loadOAuthConfig(credentialsFile)
	if err != nil {
		return nil, err
	}

	token, err := loadToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("unable to load OAuth token %s (run the auth command first): %w", tokenFile, err)
	}

	return config.Client(ctx, token), nil
}

// AuthCodeURL returns the consent URL for an offline read-only token.
func AuthCodeURL(credentialsFile string) (string, error) {
	config, err := loadOAuthConfig(credentialsFile)
	if err != nil {
		return "", err
	}
	return config.AuthCodeURL("state-token", oauth2.AccessTypeOffline), nil
}

// Authorize exchanges an authorization code and stores the token in tokenFile.
func Authorize(ctx context.Context, credentialsFile, tokenFile, code string) error {
	config, err := loadOAuthConfig(credentialsFile)
	if err != nil {
		return err
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("unable to retrieve token: %w", err)
	}

	if err := saveToken(tokenFile, token); err != nil {
		return fmt.Errorf("unable to save token: %w", err)
	}
	return nil
}

func loadToken(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(token)
	return token, err
}

func saveToken(file string, token *oauth2.Token) error {
	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}
