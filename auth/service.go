package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sparksblog/sparks/model"
	Logger "github.com/sparksblog/sparks/utils/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// UserDirectory resolves a verified email into a user row, creating one on
// first sign-in. Implemented by the storage package.
type UserDirectory interface {
	UpsertByEmail(ctx context.Context, email string) (*model.User, error)
}

// Config tunes the auth service.
type Config struct {
	// BaseURL is the public URL sign-in links point back to.
	BaseURL string

	// LinkTTL bounds how long a one-time link stays valid. Default 15m.
	LinkTTL time.Duration

	// SessionTTL bounds a session's lifetime. Default 30 days.
	SessionTTL time.Duration

	// OAuth enables provider sign-in when non-nil.
	OAuth *oauth2.Config

	// OAuthEmailURL is the endpoint queried for the signed-in identity's
	// email addresses. Defaults to the GitHub API.
	OAuthEmailURL string
}

const githubEmailsURL = "https://api.github.com/user/emails"

func (c Config) withDefaults() Config {
	if c.LinkTTL <= 0 {
		c.LinkTTL = 15 * time.Minute
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * 24 * time.Hour
	}
	if c.OAuthEmailURL == "" {
		c.OAuthEmailURL = githubEmailsURL
	}
	return c
}

// GithubOAuthConfig builds the provider config from env. Returns nil when the
// client id is absent, which disables OAuth sign-in.
func GithubOAuthConfig() *oauth2.Config {
	clientID := os.Getenv("OAUTH_CLIENT_ID")
	if clientID == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: os.Getenv("OAUTH_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("OAUTH_REDIRECT_URL"),
		Scopes:       []string{"user:email"},
		Endpoint:     github.Endpoint,
	}
}

// Service owns the whole session lifecycle: issuing one-time links,
// exchanging them (or an OAuth code) for sessions, lookups and sign-out.
// Every transition is pushed into the Holder.
type Service struct {
	store  Store
	users  UserDirectory
	mailer Mailer
	holder *Holder
	config Config
}

func NewService(store Store, users UserDirectory, mailer Mailer, holder *Holder, config Config) *Service {
	return &Service{
		store:  store,
		users:  users,
		mailer: mailer,
		holder: holder,
		config: config.withDefaults(),
	}
}

// Holder exposes the observable identity this service publishes into.
func (s *Service) Holder() *Holder {
	return s.holder
}

// RequestLink issues a one-time sign-in token for email and mails the link.
func (s *Service) RequestLink(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return errors.New("a valid email address is required")
	}

	token := uuid.New().String()
	if err := s.store.SaveLinkToken(ctx, token, email, s.config.LinkTTL); err != nil {
		return errors.Wrap(err, "fail to store sign-in token")
	}

	link := fmt.Sprintf("%s/auth/verify?token=%s", s.config.BaseURL, token)
	if err := s.mailer.SendLink(ctx, email, link); err != nil {
		return errors.Wrap(err, "fail to mail sign-in link")
	}

	Logger.Log.Info("sign-in link issued for ", email)
	return nil
}

// VerifyLink consumes a one-time token and mints a session for its email.
func (s *Service) VerifyLink(ctx context.Context, token string) (string, *model.Session, error) {
	email, err := s.store.TakeLinkToken(ctx, token)
	if err != nil {
		return "", nil, err
	}
	return s.mintSession(ctx, email)
}

// OAuth exchanges a provider authorization code for a session, using the
// provider-verified primary email as the identity.
func (s *Service) OAuth(ctx context.Context, code string) (string, *model.Session, error) {
	if s.config.OAuth == nil {
		return "", nil, errors.New("oauth sign-in is not configured")
	}

	providerToken, err := s.config.OAuth.Exchange(ctx, code)
	if err != nil {
		return "", nil, errors.Wrap(err, "fail to exchange oauth code")
	}

	email, err := s.fetchPrimaryEmail(ctx, providerToken)
	if err != nil {
		return "", nil, err
	}
	return s.mintSession(ctx, email)
}

func (s *Service) fetchPrimaryEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	client := s.config.OAuth.Client(ctx, token)
	resp, err := client.Get(s.config.OAuthEmailURL)
	if err != nil {
		return "", errors.Wrap(err, "fail to fetch oauth identity")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("oauth identity request failed with status %d", resp.StatusCode)
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", errors.Wrap(err, "fail to decode oauth identity")
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return strings.ToLower(e.Email), nil
		}
	}
	return "", errors.New("oauth identity has no verified primary email")
}

func (s *Service) mintSession(ctx context.Context, email string) (string, *model.Session, error) {
	user, err := s.users.UpsertByEmail(ctx, email)
	if err != nil {
		return "", nil, errors.Wrapf(err, "fail to upsert user for %s", email)
	}

	session := &model.Session{UserID: user.Id, Email: user.Email}
	token := uuid.New().String()
	if err := s.store.SaveSession(ctx, token, session, s.config.SessionTTL); err != nil {
		return "", nil, errors.Wrap(err, "fail to store session")
	}

	s.holder.Publish(session)
	Logger.Log.Info("session minted for user ", user.Id)
	return token, session, nil
}

// SignOut deletes the session and publishes the anonymous state.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if err := s.store.DeleteSession(ctx, token); err != nil {
		return errors.Wrap(err, "fail to delete session")
	}
	s.holder.Publish(nil)
	return nil
}

// Session resolves a session token. Unknown or expired tokens resolve to a
// nil session without error; only backend failures are errors.
func (s *Service) Session(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, nil
	}
	session, err := s.store.Session(ctx, token)
	if errors.Is(err, ErrTokenNotFound) {
		return nil, nil
	}
	return session, err
}
