package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"

	"github.com/kaszm/imagegallery/internal/idp/domain"
	"github.com/kaszm/imagegallery/internal/idp/mail"
	"github.com/kaszm/imagegallery/pkg/slogx"
)

const verifyEmailPath = "/v1/account/verify-email"

// VerificationService mails email verification links.
type VerificationService struct {
	Credentials *CredentialService
	Mail        mail.Sender
	From        string

	// PublicURL is the externally reachable base URL of the identity provider.
	PublicURL string
}

// Link is the verification URL for the user's pending security code.
func (s *VerificationService) Link(u domain.User) string {
	q := url.Values{}
	q.Set("userId", u.ID)
	if u.SecurityCode != nil {
		q.Set("securityCode", *u.SecurityCode)
	}
	return strings.TrimRight(s.PublicURL, "/") + verifyEmailPath + "?" + q.Encode()
}

// Send mails the verification link to u.
func (s *VerificationService) Send(ctx context.Context, u domain.User) error {
	if u.SecurityCode == nil {
		return ErrInvalidSecurityCode
	}
	link := s.Link(u)
	err := s.Mail.Send(ctx, mail.Message{
		From:    s.From,
		To:      u.Email,
		Subject: "Email verification",
		Body: fmt.Sprintf(
			"To verify your email please click on this link <a href='%s'>Verify Email</a>",
			html.EscapeString(link),
		),
	})
	if err != nil {
		slogx.FromContext(ctx).Error("failed to send verification email",
			slog.String("user_id", u.ID),
			slog.Any("error", err),
		)
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// Resend issues a new security code for email and mails it.
func (s *VerificationService) Resend(ctx context.Context, email string) error {
	u, err := s.Credentials.ReissueSecurityCode(ctx, email)
	if err != nil {
		return err
	}
	return s.Send(ctx, u)
}
