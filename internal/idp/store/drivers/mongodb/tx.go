package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/kaszm/imagegallery/internal/idp/store"
)

// txStore is bound to the context it was started with; Commit and Rollback
// end the session.
type txStore struct {
	ctx  context.Context
	db   *mongo.Database
	sess *mongo.Session
	done bool
}

func (t *txStore) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.sess.EndSession(t.ctx)
	return t.sess.CommitTransaction(t.ctx)
}

func (t *txStore) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.sess.EndSession(t.ctx)
	return t.sess.AbortTransaction(t.ctx)
}

// Close is a no-op; the owning Store keeps the client connected.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, ErrNestedTx
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return ErrNestedTx
}

func (t *txStore) Users() store.Users                 { return &usersRepo{db: t.db, sess: t.sess} }
func (t *txStore) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{db: t.db, sess: t.sess} }
func (t *txStore) MFASessions() store.MFASessions     { return &mfaSessionsRepo{db: t.db, sess: t.sess} }

func (t *txStore) ApplyMigrations() error { return nil }
