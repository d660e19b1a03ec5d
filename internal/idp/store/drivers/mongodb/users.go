package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/kaszm/imagegallery/internal/idp/domain"
	"github.com/kaszm/imagegallery/internal/idp/store"
)

type usersRepo struct {
	db   *mongo.Database
	sess *mongo.Session
}

func (r *usersRepo) coll() *mongo.Collection { return r.db.Collection(usersCollection) }

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.coll().InsertOne(bind(ctx, r.sess), toUserDoc(u))
	return mapWriteErr(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *usersRepo) GetActiveUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, bson.D{
		{Key: "email", Value: email},
		{Key: "is_active", Value: true},
	})
}

func (r *usersRepo) GetActiveUserByLogin(ctx context.Context, provider, providerKey string) (domain.User, error) {
	return r.findOne(ctx, bson.D{
		{Key: "logins", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "provider", Value: provider},
			{Key: "provider_key", Value: providerKey},
		}}}},
		{Key: "is_active", Value: true},
	})
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User, expectedStamp string) error {
	ctx = bind(ctx, r.sess)

	res, err := r.coll().ReplaceOne(ctx, bson.D{
		{Key: "_id", Value: u.ID},
		{Key: "concurrency_stamp", Value: expectedStamp},
	}, toUserDoc(u))
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	count, err := r.coll().CountDocuments(ctx, bson.D{{Key: "_id", Value: u.ID}})
	if err != nil {
		return err
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

func (r *usersRepo) findOne(ctx context.Context, filter bson.D) (domain.User, error) {
	var doc userDoc
	if err := r.coll().FindOne(bind(ctx, r.sess), filter).Decode(&doc); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return doc.toDomain(), nil
}
