package app

import (
	"fmt"
	"log/slog"

	"github.com/kaszm/imagegallery/pkg/cryptox"
	"github.com/kaszm/imagegallery/pkg/jwtx"
)

// InitSigningKey loads the Ed25519 signing key from cfg.SigningKeyFile,
// generating it on first start, and publishes its public half in a KeySet.
// Tokens survive restarts as long as the file is kept.
func InitSigningKey(cfg Config, logger *slog.Logger) (*jwtx.EdDSASigner, *jwtx.KeySet, error) {
	pemKey, err := cryptox.LoadOrCreateEd25519Key(cfg.SigningKeyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load signing key: %w", err)
	}

	signer, err := jwtx.NewSignerEdDSA("", pemKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse signing key: %w", err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, nil, fmt.Errorf("failed to publish signing key: %w", err)
	}

	logger.Info("signing key loaded",
		"algorithm", "EdDSA",
		"kid", signer.KID(),
		"issuer", cfg.Issuer,
	)
	return signer, keys, nil
}
