package service

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/kaszm/imagegallery/internal/idp/domain"
	"github.com/kaszm/imagegallery/internal/idp/store"
	"github.com/kaszm/imagegallery/pkg/metricsx"
	"github.com/kaszm/imagegallery/pkg/slogx"
)

const (
	totpSecretSize = 20 // 160 bits
	totpPeriod     = 30
	totpSkew       = 1
	qrCodeSize     = 256
)

// MFA stages reported to metrics.
const (
	mfaStageEnroll    = "enroll"
	mfaStageChallenge = "challenge"
	mfaStageDisable   = "disable"
)

var b32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

type MFAService struct {
	Store   store.Store
	Metrics *metricsx.Metrics
	Issuer  string // shown in authenticator apps

	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

func (s *MFAService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Enroll provisions a TOTP secret for the user, or returns the one already
// provisioned when enrollment was started but not confirmed.
func (s *MFAService) Enroll(ctx context.Context, userID string) (domain.MFAEnrollment, error) {
	var key *otp.Key
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := activeUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		switch u.MFAState() {
		case domain.MFAEnrolled:
			return ErrMFAAlreadyEnabled

		case domain.MFASecretProvisioned:
			raw, err := b32NoPadding.DecodeString(*u.TOTPSecret)
			if err != nil {
				return fmt.Errorf("stored TOTP secret is not base32: %w", err)
			}
			key, err = s.generate(u.Email, raw)
			return err

		default:
			key, err = s.generate(u.Email, nil)
			if err != nil {
				return err
			}
			secret := key.Secret()
			u.TOTPSecret = &secret
			_, err = saveUser(ctx, tx, u, s.now())
			return err
		}
	})
	if err != nil {
		return domain.MFAEnrollment{}, err
	}

	qr, err := qrCodePNG(key)
	if err != nil {
		return domain.MFAEnrollment{}, err
	}

	return domain.MFAEnrollment{
		Secret:    key.Secret(),
		URL:       key.URL(),
		QRCodePNG: qr,
		Issuer:    key.Issuer(),
		Account:   key.AccountName(),
	}, nil
}

// ConfirmEnrollment turns two-factor on once the user proves their
// authenticator produces valid codes.
func (s *MFAService) ConfirmEnrollment(ctx context.Context, userID, code string) error {
	now := s.now()
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := activeUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		switch u.MFAState() {
		case domain.MFANoSecret:
			return ErrMFANotEnrolled
		case domain.MFAEnrolled:
			return ErrMFAAlreadyEnabled
		}

		if !validateTOTP(code, *u.TOTPSecret, now) {
			return ErrInvalidCode
		}

		u.TwoFactorEnabled = true
		_, err = saveUser(ctx, tx, u, now)
		return err
	})
	s.Metrics.MFAChallenge(mfaStageEnroll, err == nil)
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("MFA enabled", slog.String("user_id", userID))
	return nil
}

// VerifyChallenge checks a code for a login. Users without a secret get
// ErrMFANotEnrolled and must be sent to enrollment.
func (s *MFAService) VerifyChallenge(ctx context.Context, userID, code string) error {
	err := s.verify(ctx, s.Store, userID, code)
	s.Metrics.MFAChallenge(mfaStageChallenge, err == nil)
	return err
}

// Disable removes the secret after checking a current code.
func (s *MFAService) Disable(ctx context.Context, userID, code string) error {
	now := s.now()
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := activeUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if u.MFAState() != domain.MFAEnrolled {
			return ErrMFANotEnrolled
		}
		if !validateTOTP(code, *u.TOTPSecret, now) {
			return ErrInvalidCode
		}

		u.TOTPSecret = nil
		u.TwoFactorEnabled = false
		_, err = saveUser(ctx, tx, u, now)
		return err
	})
	s.Metrics.MFAChallenge(mfaStageDisable, err == nil)
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("MFA disabled", slog.String("user_id", userID))
	return nil
}

func (s *MFAService) verify(ctx context.Context, st store.Store, userID, code string) error {
	u, err := activeUser(ctx, st, userID)
	if err != nil {
		return err
	}
	if u.MFAState() == domain.MFANoSecret {
		return ErrMFANotEnrolled
	}
	if !validateTOTP(code, *u.TOTPSecret, s.now()) {
		return ErrInvalidCode
	}
	return nil
}

func (s *MFAService) generate(account string, secret []byte) (*otp.Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: account,
		Period:      totpPeriod,
		SecretSize:  totpSecretSize,
		Secret:      secret,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}
	return key, nil
}

// validateTOTP accepts the code for the current step and one step either side.
func validateTOTP(code, secret string, now time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, now, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func qrCodePNG(key *otp.Key) (string, error) {
	img, err := key.Image(qrCodeSize, qrCodeSize)
	if err != nil {
		return "", fmt.Errorf("failed to render QR code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func activeUser(ctx context.Context, st store.Store, userID string) (domain.User, error) {
	u, err := st.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, mapStoreErr(err)
	}
	if !u.IsActive {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

// isCodeFailure reports whether err is a wrong or unusable code rather than
// a storage failure.
func isCodeFailure(err error) bool {
	return errors.Is(err, ErrInvalidCode) || errors.Is(err, ErrMFANotEnrolled)
}
