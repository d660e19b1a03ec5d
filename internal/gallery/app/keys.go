package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/kaszm/imagegallery/pkg/authsdk"
	"github.com/kaszm/imagegallery/pkg/jwtx"
)

// KeyRefresher keeps a KeySet in sync with the identity provider's JWKS.
// A failed fetch keeps the previous keys.
type KeyRefresher struct {
	Client   *authsdk.Client
	Keys     *jwtx.KeySet
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewKeyRefresher(client *authsdk.Client, keys *jwtx.KeySet, logger *slog.Logger, interval time.Duration) *KeyRefresher {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &KeyRefresher{
		Client:   client,
		Keys:     keys,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Refresh fetches the JWKS once and swaps it in.
func (k *KeyRefresher) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	set, err := k.Client.FetchJWKS(ctx)
	if err != nil {
		return err
	}
	if err := k.Keys.ResetFromJWKS(set); err != nil {
		return err
	}
	k.Logger.Debug("identity provider keys refreshed", slog.Int("keys", len(set.Keys)))
	return nil
}

// Start refreshes in the background until Stop is called. While no keys
// are loaded it retries every few seconds instead of waiting a full interval.
func (k *KeyRefresher) Start() {
	go k.run()
	k.Logger.Info("key refresher started", slog.Duration("interval", k.Interval))
}

func (k *KeyRefresher) Stop() {
	close(k.stopCh)
	<-k.doneCh
	k.Logger.Info("key refresher stopped")
}

func (k *KeyRefresher) run() {
	defer close(k.doneCh)

	for {
		if err := k.Refresh(context.Background()); err != nil {
			k.Logger.Warn("failed to refresh identity provider keys", slog.Any("error", err))
		}

		wait := k.Interval
		if !k.Keys.IsReady() {
			wait = min(wait, 5*time.Second)
		}

		select {
		case <-time.After(wait):
		case <-k.stopCh:
			return
		}
	}
}
