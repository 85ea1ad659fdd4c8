package owlet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const DefaultRegion = "world"

// Region holds the cloud endpoints serving one account region.
type Region struct {
	UserURL string
	APIURL  string
}

var regions = map[string]Region{
	"world": {
		UserURL: "https://user-field-1a2039d9.aylanetworks.com",
		APIURL:  "https://ads-field-1a2039d9.aylanetworks.com/apiv1",
	},
	"europe": {
		UserURL: "https://user-field-eu-1a2039d9.aylanetworks.com",
		APIURL:  "https://ads-field-eu-1a2039d9.aylanetworks.com/apiv1",
	},
}

// Credentials holds everything needed to sign in to the device cloud.
type Credentials struct {
	User      string
	Password  string
	Region    string
	AppID     string
	AppSecret string
	// APIURL and UserURL override the region defaults when set.
	APIURL  string
	UserURL string
	// SecretID names an AWS Secrets Manager secret that fills in missing values.
	SecretID string
}

// LoadCredentials reads OWLET_* settings from the process environment, falling
// back to the given .env file when a key is unset there.
func LoadCredentials(envFilePath string) (Credentials, error) {
	fileValues := map[string]string{}
	if envFilePath != "" {
		values, err := godotenv.Read(envFilePath)
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to read .env file: %w", err)
		}
		fileValues = values
	}

	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fileValues[key]
	}

	creds := Credentials{
		User:      lookup("OWLET_USER"),
		Password:  lookup("OWLET_PASSWORD"),
		Region:    lookup("OWLET_REGION"),
		AppID:     lookup("OWLET_APP_ID"),
		AppSecret: lookup("OWLET_APP_SECRET"),
		APIURL:    lookup("OWLET_API_URL"),
		UserURL:   lookup("OWLET_USER_URL"),
		SecretID:  lookup("OWLET_SECRET_ID"),
	}
	if creds.Region == "" {
		creds.Region = DefaultRegion
	}
	return creds, nil
}

// Merge fills empty fields from a key/value set using the OWLET_* names.
func (c Credentials) Merge(values map[string]string) Credentials {
	fill := func(field *string, key string) {
		if *field == "" {
			*field = values[key]
		}
	}
	fill(&c.User, "OWLET_USER")
	fill(&c.Password, "OWLET_PASSWORD")
	fill(&c.AppID, "OWLET_APP_ID")
	fill(&c.AppSecret, "OWLET_APP_SECRET")
	fill(&c.APIURL, "OWLET_API_URL")
	fill(&c.UserURL, "OWLET_USER_URL")
	if region := values["OWLET_REGION"]; region != "" && (c.Region == "" || c.Region == DefaultRegion) {
		c.Region = region
	}
	return c
}

// Validate checks that sign-in can be attempted.
func (c Credentials) Validate() error {
	if c.User == "" {
		return fmt.Errorf("%w: OWLET_USER is not set", ErrAuthentication)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: OWLET_PASSWORD is not set", ErrAuthentication)
	}
	if _, ok := regions[strings.ToLower(c.Region)]; !ok && (c.APIURL == "" || c.UserURL == "") {
		return fmt.Errorf("%w: unknown region %q", ErrAuthentication, c.Region)
	}
	return nil
}

// Endpoints resolves the user and API base URLs.
func (c Credentials) Endpoints() Region {
	r := regions[strings.ToLower(c.Region)]
	if c.UserURL != "" {
		r.UserURL = strings.TrimRight(c.UserURL, "/")
	}
	if c.APIURL != "" {
		r.APIURL = strings.TrimRight(c.APIURL, "/")
	}
	return r
}

type signInApplication struct {
	AppID     string `json:"app_id"`
	AppSecret string `json:"app_secret"`
}

type signInUser struct {
	Email       string            `json:"email"`
	Password    string            `json:"password"`
	Application signInApplication `json:"application"`
}

type signInRequest struct {
	User signInUser `json:"user"`
}

type signInResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// signIn exchanges the credentials for an access token.
func (c *Client) signIn(ctx context.Context) (string, error) {
	if err := c.creds.Validate(); err != nil {
		return "", err
	}

	payload, err := json.Marshal(signInRequest{
		User: signInUser{
			Email:    c.creds.User,
			Password: c.creds.Password,
			Application: signInApplication{
				AppID:     c.creds.AppID,
				AppSecret: c.creds.AppSecret,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal sign-in request: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodPost, c.endpoints.UserURL+"/users/sign_in.json", payload, "")
	if err != nil {
		return "", err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound {
		return "", fmt.Errorf("%w: sign-in rejected with status %d", ErrAuthentication, status)
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("%w: sign-in failed with status %d: %s", ErrUpstreamUnavailable, status, string(body))
	}

	var resp signInResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: failed to unmarshal sign-in response: %v", ErrUpstreamUnavailable, err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: sign-in response carried no access token", ErrAuthentication)
	}

	log.Debug().Str("user", c.creds.User).Int("expires_in", resp.ExpiresIn).Msg("Signed in to Owlet cloud")
	return resp.AccessToken, nil
}
