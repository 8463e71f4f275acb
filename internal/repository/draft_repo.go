package repository

import (
	"context"
	"doraform/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DraftRepo handles MongoDB operations for saved drafts
type DraftRepo interface {
	Save(ctx context.Context, draft *model.Draft) error
	GetByID(ctx context.Context, id string) (*model.Draft, error)
	ListByUser(ctx context.Context, userName string) ([]*model.Draft, error)
	Delete(ctx context.Context, id string) error
}

type draftRepo struct {
	collection *mongo.Collection
}

// NewDraftRepo creates a new draft repository
func NewDraftRepo(db *mongo.Database) DraftRepo {
	return &draftRepo{
		collection: db.Collection("drafts"),
	}
}

// Save replaces the stored draft with the same id, inserting it when absent.
func (r *draftRepo) Save(ctx context.Context, draft *model.Draft) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": draft.ID}, draft, opts)
	return err
}

func (r *draftRepo) GetByID(ctx context.Context, id string) (*model.Draft, error) {
	var draft model.Draft
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&draft)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// ListByUser returns the user's drafts, newest first.
func (r *draftRepo) ListByUser(ctx context.Context, userName string) ([]*model.Draft, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userName": userName}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	drafts := []*model.Draft{}
	if err := cursor.All(ctx, &drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

func (r *draftRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
