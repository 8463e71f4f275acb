// Package report renders the submission report as a PDF and delivers it to
// the configured Telegram chats.
package report

import (
	"context"
	"doraform/internal/form"
	"doraform/internal/i18n"
	"doraform/internal/logger"
	"doraform/internal/model"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"
)

var (
	ErrNoRecipients     = errors.New("no delivery recipients configured")
	ErrDeliveryDisabled = errors.New("document delivery is disabled")
)

// Sender uploads one document to one chat.
type Sender interface {
	SendDocument(ctx context.Context, chatID, filename, caption string, data []byte) error
}

// Archive keeps a copy of every delivered report.
type Archive interface {
	Archive(ctx context.Context, filename string, data []byte, record *model.SubmissionRecord) error
}

// Service implements form.Deliverer.
type Service struct {
	sender  Sender
	chatIDs []string
	archive Archive // optional
	log     *logger.Logger
}

// NewService creates a new delivery service
func NewService(sender Sender, chatIDs []string, archive Archive, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		sender:  sender,
		chatIDs: chatIDs,
		archive: archive,
		log:     log.With("service", "ReportService"),
	}
}

// Deliver renders the PDF and sends it to every chat in parallel. It succeeds
// only when every chat accepted the document. Archiving afterwards is
// best-effort.
func (s *Service) Deliver(ctx context.Context, req form.DeliveryRequest) (bool, error) {
	if len(s.chatIDs) == 0 {
		return false, ErrNoRecipients
	}

	doc, err := RenderPDF(req)
	if err != nil {
		return false, err
	}
	filename := Filename(req.Record)
	caption := fmt.Sprintf(i18n.T(req.Locale, i18n.MsgDeliveryCaption), req.Record.ProviderName, req.Record.FinancialEntityName)

	g, gctx := errgroup.WithContext(ctx)
	for _, chatID := range s.chatIDs {
		g.Go(func() error {
			if err := s.sender.SendDocument(gctx, chatID, filename, caption, doc); err != nil {
				return fmt.Errorf("chat %s: %w", chatID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	s.log.Info("report delivered", "submission_id", req.Record.ID, "chats", len(s.chatIDs), "bytes", len(doc))

	if s.archive != nil {
		if err := s.archive.Archive(ctx, filename, doc, req.Record); err != nil {
			s.log.Warn("failed to archive report (ignored)", "submission_id", req.Record.ID, "error", err)
		}
	}
	return true, nil
}

// Disabled is the deliverer used when no transport is configured. Every
// attempt fails so a misconfigured deployment never reports a false success.
type Disabled struct {
	log *logger.Logger
}

func NewDisabled(log *logger.Logger) *Disabled {
	if log == nil {
		log = logger.Nop()
	}
	return &Disabled{log: log.With("service", "ReportService")}
}

func (d *Disabled) Deliver(_ context.Context, req form.DeliveryRequest) (bool, error) {
	d.log.Warn("delivery disabled, submission not sent", "submission_id", req.Record.ID)
	return false, ErrDeliveryDisabled
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename returns the report file name: provider, entity and UTC date.
func Filename(rec *model.SubmissionRecord) string {
	part := func(s string) string {
		s = strings.Trim(unsafeChars.ReplaceAllString(strings.TrimSpace(s), "_"), "_")
		if s == "" {
			return "NA"
		}
		return s
	}
	return fmt.Sprintf("DORA_%s_%s_%s.pdf",
		part(rec.ProviderName),
		part(rec.FinancialEntityName),
		rec.Date.UTC().Format("2006-01-02"))
}
