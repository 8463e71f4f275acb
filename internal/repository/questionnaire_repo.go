package repository

import (
	"context"
	"doraform/internal/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuestionnaireRepo handles MongoDB operations for questionnaires
type QuestionnaireRepo interface {
	Upsert(ctx context.Context, q *model.Questionnaire) error
	GetByID(ctx context.Context, id string) (*model.Questionnaire, error)
	GetActive(ctx context.Context) (*model.Questionnaire, error)
}

type questionnaireRepo struct {
	collection *mongo.Collection
}

// NewQuestionnaireRepo creates a new questionnaire repository
func NewQuestionnaireRepo(db *mongo.Database) QuestionnaireRepo {
	return &questionnaireRepo{
		collection: db.Collection("questionnaires"),
	}
}

// Upsert stores q keyed by slug and version, replacing an earlier copy.
func (r *questionnaireRepo) Upsert(ctx context.Context, q *model.Questionnaire) error {
	now := time.Now().UTC()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = now

	filter := bson.M{"slug": q.Slug, "version": q.Version}
	opts := options.Replace().SetUpsert(true)
	result, err := r.collection.ReplaceOne(ctx, filter, q, opts)
	if err != nil {
		return err
	}
	if oid, ok := result.UpsertedID.(primitive.ObjectID); ok {
		q.ID = oid.Hex()
	}
	return nil
}

func (r *questionnaireRepo) GetByID(ctx context.Context, id string) (*model.Questionnaire, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// embedded catalogs use slug@version ids that never hit the store
		return nil, nil
	}

	var q model.Questionnaire
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&q)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	q.ID = id
	return &q, nil
}

// GetActive returns the highest active version, or nil when none is stored.
func (r *questionnaireRepo) GetActive(ctx context.Context) (*model.Questionnaire, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})

	var q model.Questionnaire
	err := r.collection.FindOne(ctx, bson.M{"active": true}, opts).Decode(&q)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}
