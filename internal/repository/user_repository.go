package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/summer-camp-booking/internal/model"
)

// UsersCollection is the name of the user collection.
const UsersCollection = "users"

// UserRepo encapsulates all queries against the users collection.  The
// collection handle comes from the process-wide client opened in main.
type UserRepo struct{ coll *mongo.Collection }

// NewUserRepo binds a UserRepo to db.users.
func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{coll: db.Collection(UsersCollection)}
}

// List returns every user document.
func (r *UserRepo) List(ctx context.Context) (docs []model.Document, err error) {
	ctx, span := startSpan(ctx, UsersCollection, "find")
	defer func() { endSpan(span, err) }()
	return findAll(ctx, r.coll, bson.M{})
}

// FindByEmail fetches the user with exactly this email, or ErrNotFound.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.Document, error) {
	ctx, span := startSpan(ctx, UsersCollection, "findOne")
	doc, err := findOne(ctx, r.coll, bson.M{model.FieldEmail: email})
	if errors.Is(err, ErrNotFound) {
		endSpan(span, nil)
	} else {
		endSpan(span, err)
	}
	return doc, err
}

// FindByID fetches a user by its hex ObjectID.
func (r *UserRepo) FindByID(ctx context.Context, id string) (model.Document, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, UsersCollection, "findOne")
	doc, err := findOne(ctx, r.coll, bson.M{model.FieldID: oid})
	if errors.Is(err, ErrNotFound) {
		endSpan(span, nil)
	} else {
		endSpan(span, err)
	}
	return doc, err
}

// CreateIfAbsent inserts doc unless a user with the same email exists.  It
// runs as a single upsert with $setOnInsert so concurrent registrations of
// one email produce exactly one document; the unique index on email (see
// database.EnsureIndexes) turns a lost race into a duplicate key error,
// which is reported the same as an existing user.  created is false when
// the user already existed.
func (r *UserRepo) CreateIfAbsent(ctx context.Context, email string, doc model.Document) (res InsertResult, created bool, err error) {
	ctx, span := startSpan(ctx, UsersCollection, "upsert")
	defer func() { endSpan(span, err) }()

	onInsert := bson.M{}
	for k, v := range doc {
		if k == model.FieldID || k == model.FieldEmail {
			continue
		}
		onInsert[k] = v
	}
	update := bson.M{"$setOnInsert": onInsert}
	if len(onInsert) == 0 {
		// $setOnInsert rejects an empty document
		update = bson.M{"$setOnInsert": bson.M{model.FieldEmail: email}}
	}

	ur, err := r.coll.UpdateOne(ctx, bson.M{model.FieldEmail: email}, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return InsertResult{}, false, nil
		}
		return InsertResult{}, false, err
	}
	if ur.UpsertedCount == 0 {
		return InsertResult{}, false, nil
	}
	return InsertResult{Acknowledged: true, InsertedID: ur.UpsertedID}, true, nil
}

// DeleteByID removes the user with this id.  A missing id yields a zero
// count, not an error.
func (r *UserRepo) DeleteByID(ctx context.Context, id string) (res DeleteResult, err error) {
	oid, err := ParseID(id)
	if err != nil {
		return DeleteResult{}, err
	}
	ctx, span := startSpan(ctx, UsersCollection, "deleteOne")
	defer func() { endSpan(span, err) }()
	dr, err := r.coll.DeleteOne(ctx, bson.M{model.FieldID: oid})
	if err != nil {
		return DeleteResult{}, err
	}
	return deleteResult(dr), nil
}

// UpdateRole sets the role field of the user with this id.
func (r *UserRepo) UpdateRole(ctx context.Context, id string, role model.Role) (res UpdateResult, err error) {
	oid, err := ParseID(id)
	if err != nil {
		return UpdateResult{}, err
	}
	ctx, span := startSpan(ctx, UsersCollection, "updateOne")
	defer func() { endSpan(span, err) }()
	ur, err := r.coll.UpdateOne(ctx,
		bson.M{model.FieldID: oid},
		bson.M{"$set": bson.M{model.FieldRole: string(role)}})
	if err != nil {
		return UpdateResult{}, err
	}
	return updateResult(ur), nil
}

// findAll drains a cursor into a non-nil slice so empty results encode as [].
func findAll(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]model.Document, error) {
	cur, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	docs := []model.Document{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}

func findOne(ctx context.Context, coll *mongo.Collection, filter bson.M) (model.Document, error) {
	var doc model.Document
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}
