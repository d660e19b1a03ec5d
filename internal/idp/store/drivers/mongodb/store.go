package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/kaszm/imagegallery/internal/idp/store"
)

const (
	usersCollection         = "users"
	refreshTokensCollection = "refresh_tokens"
	mfaSessionsCollection   = "mfa_sessions"
)

// ErrNestedTx is returned when a transaction is started from inside another.
var ErrNestedTx = errors.New("mongodb: nested transactions are not supported")

// Store keeps users with their claims and logins embedded in one document.
// Transactions need a replica set or sharded cluster.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// ApplyMigrations creates the indexes the repositories rely on. It is safe
// to run on every start.
func (s *Store) ApplyMigrations() error {
	ctx := context.Background()

	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{
				// One active account per email. Deactivated users keep their email.
				Keys: bson.D{{Key: "email", Value: 1}},
				Options: options.Index().
					SetName("users_active_email_idx").
					SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "is_active", Value: true}}),
			},
			{
				Keys:    bson.D{{Key: "logins.provider", Value: 1}, {Key: "logins.provider_key", Value: 1}},
				Options: options.Index().SetName("users_logins_idx"),
			},
		},
		refreshTokensCollection: {
			{
				Keys:    bson.D{{Key: "token_hash", Value: 1}},
				Options: options.Index().SetName("refresh_tokens_hash_idx").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().SetName("refresh_tokens_user_idx"),
			},
		},
		mfaSessionsCollection: {
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetName("mfa_sessions_expiry_idx"),
			},
		},
	}

	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, err
	}
	if err := sess.StartTransaction(); err != nil {
		sess.EndSession(ctx)
		return nil, err
	}
	return &txStore{ctx: ctx, db: s.db, sess: sess}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Users() store.Users                 { return &usersRepo{db: s.db} }
func (s *Store) RefreshTokens() store.RefreshTokens { return &refreshTokensRepo{db: s.db} }
func (s *Store) MFASessions() store.MFASessions     { return &mfaSessionsRepo{db: s.db} }

// bind attaches sess to ctx so the operation joins the transaction.
func bind(ctx context.Context, sess *mongo.Session) context.Context {
	if sess == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, sess)
}

func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func mapWriteErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrAlreadyExists
	}
	return err
}
