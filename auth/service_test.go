package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestService(t *testing.T) (*Service, *CaptureMailer) {
	t.Helper()
	mailer := &CaptureMailer{}
	service := NewService(NewMemoryStore(), NewFakeDirectory(), mailer, NewHolder(), Config{
		BaseURL: "https://sparks.test",
	})
	return service, mailer
}

// linkToken digs the token out of the most recently mailed link.
func linkToken(t *testing.T, mailer *CaptureMailer) string {
	t.Helper()
	require.NotEmpty(t, mailer.Links)
	link := mailer.Links[len(mailer.Links)-1]
	parts := strings.Split(link, "token=")
	require.Equal(t, 2, len(parts))
	return parts[1]
}

func TestRequestLinkMailsOneTimeToken(t *testing.T) {
	service, mailer := newTestService(t)

	require.NoError(t, service.RequestLink(context.Background(), "  User@Example.COM "))
	require.Equal(t, []string{"user@example.com"}, mailer.Sent)
	require.Contains(t, mailer.Links[0], "https://sparks.test/auth/verify?token=")
}

func TestRequestLinkRejectsInvalidEmail(t *testing.T) {
	service, mailer := newTestService(t)

	require.Error(t, service.RequestLink(context.Background(), ""))
	require.Error(t, service.RequestLink(context.Background(), "not-an-email"))
	require.Empty(t, mailer.Sent)
}

func TestVerifyLinkMintsSingleUseSession(t *testing.T) {
	ctx := context.Background()
	service, mailer := newTestService(t)

	require.NoError(t, service.RequestLink(ctx, "u1@example.com"))
	token := linkToken(t, mailer)

	sessionToken, session, err := service.VerifyLink(ctx, token)
	require.NoError(t, err)
	require.NotEmpty(t, sessionToken)
	require.Equal(t, "u1@example.com", session.Email)
	require.NotEmpty(t, session.UserID)
	require.Equal(t, session, service.Holder().Current())

	// the link is single use
	_, _, err = service.VerifyLink(ctx, token)
	require.ErrorIs(t, err, ErrTokenNotFound)

	// the session resolves until signed out
	resolved, err := service.Session(ctx, sessionToken)
	require.NoError(t, err)
	require.Equal(t, session, resolved)
}

func TestVerifyLinkKeepsStableUserIdentity(t *testing.T) {
	ctx := context.Background()
	service, mailer := newTestService(t)

	require.NoError(t, service.RequestLink(ctx, "u1@example.com"))
	_, first, err := service.VerifyLink(ctx, linkToken(t, mailer))
	require.NoError(t, err)

	require.NoError(t, service.RequestLink(ctx, "u1@example.com"))
	_, second, err := service.VerifyLink(ctx, linkToken(t, mailer))
	require.NoError(t, err)

	require.Equal(t, first.UserID, second.UserID)
}

func TestExpiredLinkTokenRejected(t *testing.T) {
	ctx := context.Background()
	mailer := &CaptureMailer{}
	service := NewService(NewMemoryStore(), NewFakeDirectory(), mailer, NewHolder(), Config{
		BaseURL: "https://sparks.test",
		LinkTTL: time.Nanosecond,
	})

	require.NoError(t, service.RequestLink(ctx, "u1@example.com"))
	time.Sleep(time.Millisecond)

	_, _, err := service.VerifyLink(ctx, linkToken(t, mailer))
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestSignOutPublishesAnonymous(t *testing.T) {
	ctx := context.Background()
	service, mailer := newTestService(t)

	require.NoError(t, service.RequestLink(ctx, "u1@example.com"))
	sessionToken, _, err := service.VerifyLink(ctx, linkToken(t, mailer))
	require.NoError(t, err)

	require.NoError(t, service.SignOut(ctx, sessionToken))
	require.Nil(t, service.Holder().Current())

	resolved, err := service.Session(ctx, sessionToken)
	require.NoError(t, err)
	require.Nil(t, resolved)
}

// newOAuthService stands up a fake provider: a token endpoint plus an emails
// endpoint served by the given handler.
func newOAuthService(t *testing.T, emails http.HandlerFunc) *Service {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"provider-token","token_type":"bearer"}`)
	})
	mux.HandleFunc("/emails", emails)
	provider := httptest.NewServer(mux)
	t.Cleanup(provider.Close)

	return NewService(NewMemoryStore(), NewFakeDirectory(), &CaptureMailer{}, NewHolder(), Config{
		BaseURL: "https://sparks.test",
		OAuth: &oauth2.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			Endpoint:     oauth2.Endpoint{TokenURL: provider.URL + "/token"},
		},
		OAuthEmailURL: provider.URL + "/emails",
	})
}

func TestOAuthMintsSessionFromPrimaryEmail(t *testing.T) {
	service := newOAuthService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"email":"old@example.com","primary":false,"verified":true},{"email":"U1@Example.com","primary":true,"verified":true}]`)
	})

	sessionToken, session, err := service.OAuth(context.Background(), "auth-code")
	require.NoError(t, err)
	require.NotEmpty(t, sessionToken)
	require.Equal(t, "u1@example.com", session.Email)
	require.Equal(t, session, service.Holder().Current())
}

func TestOAuthRejectsProviderErrorStatus(t *testing.T) {
	service := newOAuthService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad credentials"}`, http.StatusUnauthorized)
	})

	_, _, err := service.OAuth(context.Background(), "auth-code")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 401")
}

func TestSessionWithUnknownTokenIsAnonymous(t *testing.T) {
	service, _ := newTestService(t)

	session, err := service.Session(context.Background(), "no-such-token")
	require.NoError(t, err)
	require.Nil(t, session)

	session, err = service.Session(context.Background(), "")
	require.NoError(t, err)
	require.Nil(t, session)
}
