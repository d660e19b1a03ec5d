package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/kaszm/imagegallery/internal/idp/domain"
)

type refreshTokensRepo struct {
	db   *mongo.Database
	sess *mongo.Session
}

func (r *refreshTokensRepo) coll() *mongo.Collection {
	return r.db.Collection(refreshTokensCollection)
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.coll().InsertOne(bind(ctx, r.sess), refreshTokenDoc{
		ID:        t.ID,
		UserID:    t.UserID,
		ClientID:  t.ClientID,
		TokenHash: t.TokenHash,
		SessionID: t.SessionID,
		Scopes:    t.Scopes,
		AMR:       t.AMR,
		ExpiresAt: t.ExpiresAt.UTC(),
		Revoked:   t.Revoked,
		CreatedAt: t.CreatedAt.UTC(),
		UpdatedAt: t.UpdatedAt.UTC(),
	})
	return mapWriteErr(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	var doc refreshTokenDoc
	err := r.coll().FindOne(bind(ctx, r.sess), bson.D{{Key: "token_hash", Value: hash}}).Decode(&doc)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return doc.toDomain(), nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string) error {
	_, err := r.coll().UpdateOne(bind(ctx, r.sess),
		bson.D{{Key: "token_hash", Value: hash}},
		revokeUpdate(),
	)
	return err
}

func (r *refreshTokensRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID string) error {
	_, err := r.coll().UpdateMany(bind(ctx, r.sess),
		bson.D{{Key: "user_id", Value: userID}, {Key: "revoked", Value: false}},
		revokeUpdate(),
	)
	return err
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll().DeleteMany(bind(ctx, r.sess), bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: now.UTC()}}}},
		bson.D{{Key: "revoked", Value: true}},
	}}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func revokeUpdate() bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "revoked", Value: true},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}
}

type mfaSessionsRepo struct {
	db   *mongo.Database
	sess *mongo.Session
}

func (r *mfaSessionsRepo) coll() *mongo.Collection {
	return r.db.Collection(mfaSessionsCollection)
}

func (r *mfaSessionsRepo) CreateMFASession(ctx context.Context, s domain.MFASession) error {
	_, err := r.coll().InsertOne(bind(ctx, r.sess), mfaSessionDoc{
		ID:        s.ID,
		UserID:    s.UserID,
		ClientID:  s.ClientID,
		Scopes:    s.Scopes,
		AMR:       s.AMR,
		SessionID: s.SessionID,
		Attempts:  s.Attempts,
		CreatedAt: s.CreatedAt.UTC(),
		ExpiresAt: s.ExpiresAt.UTC(),
	})
	return mapWriteErr(err)
}

func (r *mfaSessionsRepo) GetMFASession(ctx context.Context, id string, now time.Time) (domain.MFASession, error) {
	var doc mfaSessionDoc
	err := r.coll().FindOne(bind(ctx, r.sess), bson.D{
		{Key: "_id", Value: id},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now.UTC()}}},
	}).Decode(&doc)
	if err != nil {
		return domain.MFASession{}, mapNotFound(err)
	}
	return doc.toDomain(), nil
}

func (r *mfaSessionsRepo) IncrementMFASessionAttempts(ctx context.Context, id string) (domain.MFASession, error) {
	var doc mfaSessionDoc
	err := r.coll().FindOneAndUpdate(bind(ctx, r.sess),
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "attempts", Value: 1}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return domain.MFASession{}, mapNotFound(err)
	}
	return doc.toDomain(), nil
}

func (r *mfaSessionsRepo) DeleteMFASession(ctx context.Context, id string) error {
	_, err := r.coll().DeleteOne(bind(ctx, r.sess), bson.D{{Key: "_id", Value: id}})
	return err
}

func (r *mfaSessionsRepo) DeleteExpiredMFASessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll().DeleteMany(bind(ctx, r.sess),
		bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: now.UTC()}}}},
	)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
