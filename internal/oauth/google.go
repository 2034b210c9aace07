// Package oauth runs the Google authorization-code flow and maps the
// resulting profile to an identity assertion. Everything past the
// assertion (create/link/refresh) lives in the service layer.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"tutoria/auth/internal/config"
	"tutoria/auth/internal/models"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

type GoogleClient struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogleClient(cfg config.GoogleConfig) *GoogleClient {
	return &GoogleClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

func (c *GoogleClient) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type userInfo struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// FetchIdentity exchanges the authorization code and fetches the user's
// profile from the userinfo endpoint.
func (c *GoogleClient) FetchIdentity(ctx context.Context, code string) (models.GoogleIdentity, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return models.GoogleIdentity{}, fmt.Errorf("code exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return models.GoogleIdentity{}, err
	}

	resp, err := c.config.Client(ctx, token).Do(req)
	if err != nil {
		return models.GoogleIdentity{}, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.GoogleIdentity{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return models.GoogleIdentity{}, fmt.Errorf("decode userinfo: %w", err)
	}

	if info.Email == "" {
		return models.GoogleIdentity{}, fmt.Errorf("google profile has no email")
	}

	identity := models.GoogleIdentity{
		GoogleID:  info.Sub,
		Email:     info.Email,
		FirstName: info.GivenName,
		LastName:  info.FamilyName,
	}
	if info.Picture != "" {
		identity.AvatarURL = &info.Picture
	}
	return identity, nil
}
