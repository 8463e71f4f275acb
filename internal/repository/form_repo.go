package repository

import (
	"context"
	"doraform/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FormRepo handles MongoDB operations for submitted forms
type FormRepo interface {
	Save(ctx context.Context, record *model.SubmissionRecord) error
	GetByID(ctx context.Context, id string) (*model.SubmissionRecord, error)
	ListByUser(ctx context.Context, userName string) ([]*model.SubmissionRecord, error)
}

type formRepo struct {
	collection *mongo.Collection
}

// NewFormRepo creates a new submitted-form repository
func NewFormRepo(db *mongo.Database) FormRepo {
	return &formRepo{
		collection: db.Collection("forms"),
	}
}

func (r *formRepo) Save(ctx context.Context, record *model.SubmissionRecord) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": record.ID}, record, opts)
	return err
}

func (r *formRepo) GetByID(ctx context.Context, id string) (*model.SubmissionRecord, error) {
	var record model.SubmissionRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByUser returns the user's submitted forms, newest first.
func (r *formRepo) ListByUser(ctx context.Context, userName string) ([]*model.SubmissionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userName": userName}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []*model.SubmissionRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
