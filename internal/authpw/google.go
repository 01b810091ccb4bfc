package authpw

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleIdentity is the subset of the userinfo response we keep.
type GoogleIdentity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleVerifier exchanges OAuth authorization codes produced by the client's
// popup flow and resolves them to a verified Google identity.
type GoogleVerifier struct {
	config      *oauth2.Config
	userinfoURL string
}

func NewGoogleVerifier(clientID, clientSecret, redirectURL string) *GoogleVerifier {
	return &GoogleVerifier{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userinfoURL: googleUserinfoURL,
	}
}

// AuthURL returns the consent-screen URL the client should open.
func (v *GoogleVerifier) AuthURL(state string) string {
	return v.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange swaps an authorization code for a token and fetches the userinfo.
func (v *GoogleVerifier) Exchange(ctx context.Context, code string) (GoogleIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	token, err := v.config.Exchange(ctx, code)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("exchange code: %w", err)
	}

	client := v.config.Client(ctx, token)
	resp, err := client.Get(v.userinfoURL)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GoogleIdentity{}, fmt.Errorf("userinfo http %d", resp.StatusCode)
	}

	var identity GoogleIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return GoogleIdentity{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if identity.Email == "" {
		return GoogleIdentity{}, fmt.Errorf("userinfo missing email")
	}
	return identity, nil
}
