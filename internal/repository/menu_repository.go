package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iliyamo/summer-camp-booking/internal/model"
)

// MenuCollection is the name of the menu item collection.
const MenuCollection = "menu"

// MenuRepo encapsulates queries against the menu collection.
type MenuRepo struct{ coll *mongo.Collection }

func NewMenuRepo(db *mongo.Database) *MenuRepo {
	return &MenuRepo{coll: db.Collection(MenuCollection)}
}

// List returns every menu item.
func (r *MenuRepo) List(ctx context.Context) (docs []model.Document, err error) {
	ctx, span := startSpan(ctx, MenuCollection, "find")
	defer func() { endSpan(span, err) }()
	return findAll(ctx, r.coll, bson.M{})
}

// ListByInstructor returns the items whose instructorEmail equals email.
func (r *MenuRepo) ListByInstructor(ctx context.Context, email string) (docs []model.Document, err error) {
	ctx, span := startSpan(ctx, MenuCollection, "find")
	defer func() { endSpan(span, err) }()
	return findAll(ctx, r.coll, bson.M{model.FieldInstructorEmail: email})
}

// Insert stores a new menu item.
func (r *MenuRepo) Insert(ctx context.Context, doc model.Document) (res InsertResult, err error) {
	ctx, span := startSpan(ctx, MenuCollection, "insertOne")
	defer func() { endSpan(span, err) }()
	ir, err := r.coll.InsertOne(ctx, withoutID(doc))
	if err != nil {
		return InsertResult{}, err
	}
	return insertResult(ir), nil
}

// withoutID drops a client supplied _id so the driver generates an ObjectID.
func withoutID(doc model.Document) model.Document {
	if _, ok := doc[model.FieldID]; !ok {
		return doc
	}
	out := make(model.Document, len(doc))
	for k, v := range doc {
		if k != model.FieldID {
			out[k] = v
		}
	}
	return out
}
