package repository

import (
	"bytes"
	"context"
	"doraform/internal/model"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const documentBucket = "reports"

// DocumentRepo stores generated report PDFs in GridFS
type DocumentRepo interface {
	Archive(ctx context.Context, filename string, data []byte, record *model.SubmissionRecord) error
	OpenBySubmission(ctx context.Context, submissionID string) ([]byte, string, error)
}

type documentRepo struct {
	db *mongo.Database
}

// NewDocumentRepo creates a new GridFS document repository
func NewDocumentRepo(db *mongo.Database) DocumentRepo {
	return &documentRepo{db: db}
}

// bucket is created per call: deadlines are bucket state in the driver.
func (r *documentRepo) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(r.db, options.GridFSBucket().SetName(documentBucket))
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := b.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
		if err := b.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (r *documentRepo) Archive(ctx context.Context, filename string, data []byte, record *model.SubmissionRecord) error {
	b, err := r.bucket(ctx)
	if err != nil {
		return err
	}
	meta := bson.D{
		{Key: "submissionId", Value: record.ID},
		{Key: "userName", Value: record.UserName},
		{Key: "providerName", Value: record.ProviderName},
		{Key: "financialEntityName", Value: record.FinancialEntityName},
		{Key: "contentType", Value: "application/pdf"},
	}
	_, err = b.UploadFromStream(filename, bytes.NewReader(data), options.GridFSUpload().SetMetadata(meta))
	if err != nil {
		return fmt.Errorf("upload %s: %w", filename, err)
	}
	return nil
}

// OpenBySubmission returns the newest archived document for a submission and
// its file name, or nil when none exists.
func (r *documentRepo) OpenBySubmission(ctx context.Context, submissionID string) ([]byte, string, error) {
	b, err := r.bucket(ctx)
	if err != nil {
		return nil, "", err
	}

	opts := options.GridFSFind().SetSort(bson.D{{Key: "uploadDate", Value: -1}}).SetLimit(1)
	cursor, err := b.FindContext(ctx, bson.M{"metadata.submissionId": submissionID}, opts)
	if err != nil {
		return nil, "", err
	}
	defer cursor.Close(ctx)

	var files []struct {
		ID       primitive.ObjectID `bson:"_id"`
		Filename string             `bson:"filename"`
	}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, "", err
	}
	if len(files) == 0 {
		return nil, "", nil
	}

	var buf bytes.Buffer
	if _, err := b.DownloadToStream(files[0].ID, &buf); err != nil {
		return nil, "", fmt.Errorf("download %s: %w", files[0].Filename, err)
	}
	return buf.Bytes(), files[0].Filename, nil
}
