package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iliyamo/summer-camp-booking/internal/model"
)

// CartCollection is the name of the cart item collection.
const CartCollection = "cart"

// CartRepo encapsulates queries against the cart collection.
type CartRepo struct{ coll *mongo.Collection }

func NewCartRepo(db *mongo.Database) *CartRepo {
	return &CartRepo{coll: db.Collection(CartCollection)}
}

// Insert stores a new cart item.
func (r *CartRepo) Insert(ctx context.Context, doc model.Document) (res InsertResult, err error) {
	ctx, span := startSpan(ctx, CartCollection, "insertOne")
	defer func() { endSpan(span, err) }()
	ir, err := r.coll.InsertOne(ctx, withoutID(doc))
	if err != nil {
		return InsertResult{}, err
	}
	return insertResult(ir), nil
}

// ListByEmail returns the cart items owned by email.
func (r *CartRepo) ListByEmail(ctx context.Context, email string) (docs []model.Document, err error) {
	ctx, span := startSpan(ctx, CartCollection, "find")
	defer func() { endSpan(span, err) }()
	return findAll(ctx, r.coll, bson.M{model.FieldEmail: email})
}

// DeleteByID removes one cart item by id.
func (r *CartRepo) DeleteByID(ctx context.Context, id string) (res DeleteResult, err error) {
	oid, err := ParseID(id)
	if err != nil {
		return DeleteResult{}, err
	}
	ctx, span := startSpan(ctx, CartCollection, "deleteOne")
	defer func() { endSpan(span, err) }()
	dr, err := r.coll.DeleteOne(ctx, bson.M{model.FieldID: oid})
	if err != nil {
		return DeleteResult{}, err
	}
	return deleteResult(dr), nil
}
