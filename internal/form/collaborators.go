package form

import (
	"context"
	"doraform/internal/model"
)

// DraftSaver persists drafts handed off by SaveDraft. Ownership of the draft
// passes to the saver.
type DraftSaver interface {
	SaveDraft(ctx context.Context, draft *model.Draft) error
}

// SubmitListener is notified once a submission has been delivered.
type SubmitListener interface {
	OnSubmitted(ctx context.Context, record *model.SubmissionRecord) error
}

// VisualExporter renders the aggregate into an image artifact. It is called
// best-effort; a failure never fails a submission.
type VisualExporter interface {
	ExportVisual(ctx context.Context, scores []model.CategoryScore, locale model.Locale) ([]byte, error)
}

// DeliveryRequest is everything the document service needs for one attempt.
type DeliveryRequest struct {
	Record     *model.SubmissionRecord
	Questions  []model.Question
	Categories []model.Category
	Locale     model.Locale
	Visual     []byte // nil when the export was unavailable
}

// Deliverer generates and delivers the report. It returns false (or an error)
// when the document could not be delivered.
type Deliverer interface {
	Deliver(ctx context.Context, req DeliveryRequest) (bool, error)
}

// Collaborators bundles the external services a session calls out to. Any of
// them may be nil: a nil Deliverer makes every submission fail.
type Collaborators struct {
	Drafts    DraftSaver
	Submitted SubmitListener
	Exporter  VisualExporter
	Delivery  Deliverer
}
