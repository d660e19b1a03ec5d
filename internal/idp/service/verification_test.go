package service

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kaszm/imagegallery/internal/idp/mail"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (r *recordingSender) Send(_ context.Context, m mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	return nil
}

func TestVerificationLinkRoundTrip(t *testing.T) {
	ctx := context.Background()
	creds := newCredentialService(t, newTestStore(t), newTestClock(time.Now()))
	sender := &recordingSender{}
	svc := &VerificationService{
		Credentials: creds,
		Mail:        sender,
		From:        "noreply@imagegallery.local",
		PublicURL:   "https://idp.example/",
	}

	u := mustCreateUser(t, creds, "link@example.com", "pw")
	require.NoError(t, svc.Send(ctx, u))
	require.Len(t, sender.sent, 1)
	require.Equal(t, "link@example.com", sender.sent[0].To)
	require.Equal(t, "noreply@imagegallery.local", sender.sent[0].From)

	link, err := url.Parse(svc.Link(u))
	require.NoError(t, err)
	require.Equal(t, "idp.example", link.Host)
	require.Equal(t, "/v1/account/verify-email", link.Path)
	require.Equal(t, u.ID, link.Query().Get("userId"))
	require.True(t, creds.VerifySecurityCode(ctx, u.ID, link.Query().Get("securityCode")))
	require.True(t, strings.Contains(sender.sent[0].Body, "Verify Email"))
}

func TestVerificationResend(t *testing.T) {
	ctx := context.Background()
	creds := newCredentialService(t, newTestStore(t), newTestClock(time.Now()))
	sender := &recordingSender{}
	svc := &VerificationService{Credentials: creds, Mail: sender, PublicURL: "http://localhost:8080"}

	u := mustCreateUser(t, creds, "resend@example.com", "pw")
	require.NoError(t, svc.Resend(ctx, "resend@example.com"))
	require.Len(t, sender.sent, 1)
	require.False(t, creds.VerifySecurityCode(ctx, u.ID, *u.SecurityCode))

	require.ErrorIs(t, svc.Resend(ctx, "nobody@example.com"), ErrNotFound)

	_, err := creds.ConfirmEmail(ctx, u.ID, latestCode(t, sender))
	require.NoError(t, err)
	require.ErrorIs(t, svc.Resend(ctx, "resend@example.com"), ErrEmailAlreadyVerified)
}

func latestCode(t *testing.T, r *recordingSender) string {
	t.Helper()
	body := r.sent[len(r.sent)-1].Body
	start := strings.Index(body, "href='") + len("href='")
	end := strings.Index(body[start:], "'")
	raw := strings.ReplaceAll(body[start:start+end], "&amp;", "&")
	link, err := url.Parse(raw)
	require.NoError(t, err)
	return link.Query().Get("securityCode")
}
