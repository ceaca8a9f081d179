// Package service exposes report administration (list, load, delete and
// export of stored case records) to the CLI and HTTP layers.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/jess/internal/db"
	"github.com/alexanderramin/jess/internal/domain"
	"github.com/alexanderramin/jess/internal/export"
	"github.com/alexanderramin/jess/internal/repository"
	"github.com/alexanderramin/jess/internal/workflow"
)

// DefaultListLimit is used when a caller asks for zero or fewer reports.
const DefaultListLimit = 10

// ErrNotCompleted is returned when exporting a record whose notes were
// never turned into a report.
var ErrNotCompleted = errors.New("report has not been generated yet")

// ExportResult is a rendered document ready to be written or served.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	Body        string
}

// ReportService administers stored case records.
type ReportService interface {
	List(ctx context.Context, limit int) ([]domain.RecordSummary, error)
	Get(ctx context.Context, id string) (*domain.CaseRecord, error)
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteAll removes every id or none of them. An unknown id aborts the
	// batch with repository.ErrNotFound.
	DeleteAll(ctx context.Context, ids []string) error

	// Export regenerates the report for a completed record and renders it.
	Export(ctx context.Context, id string, format export.Format) (*ExportResult, error)
}

// EngineFactory builds a fresh wizard engine.
type EngineFactory func() *workflow.Engine

// TxRepoFactory builds a case record repository bound to a transaction.
type TxRepoFactory func(tx db.DBTX) repository.CaseRecordRepo

type reportService struct {
	records   repository.CaseRecordRepo
	uow       db.UnitOfWork
	txRepo    TxRepoFactory
	newEngine EngineFactory
	observer  UseCaseObserver
}

// NewReportService wires the report use cases. Bulk deletes run inside uow
// against repositories built by txRepo.
func NewReportService(records repository.CaseRecordRepo, uow db.UnitOfWork, txRepo TxRepoFactory, newEngine EngineFactory, observers ...UseCaseObserver) ReportService {
	return &reportService{
		records:   records,
		uow:       uow,
		txRepo:    txRepo,
		newEngine: newEngine,
		observer:  useCaseObserverOrNoop(observers),
	}
}

// SQLiteTxRepo is the TxRepoFactory for the SQLite store.
func SQLiteTxRepo(tx db.DBTX) repository.CaseRecordRepo {
	return repository.NewSQLiteCaseRecordRepo(tx)
}

func (s *reportService) List(ctx context.Context, limit int) (out []domain.RecordSummary, err error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	fields := map[string]any{"limit": limit}
	defer observe(ctx, s.observer, "list-reports", fields, &err)()

	for sum := range repository.Summaries(ctx, s.records, limit, &err) {
		out = append(out, sum)
	}
	fields["count"] = len(out)
	return out, err
}

func (s *reportService) Get(ctx context.Context, id string) (rec *domain.CaseRecord, err error) {
	defer observe(ctx, s.observer, "get-report", map[string]any{"record_id": id}, &err)()
	return s.records.Get(ctx, id)
}

func (s *reportService) Delete(ctx context.Context, id string) (removed bool, err error) {
	fields := map[string]any{"record_id": id}
	defer observe(ctx, s.observer, "delete-report", fields, &err)()

	removed, err = s.records.Delete(ctx, id)
	fields["removed"] = removed
	return removed, err
}

func (s *reportService) DeleteAll(ctx context.Context, ids []string) (err error) {
	fields := map[string]any{"count": len(ids)}
	defer observe(ctx, s.observer, "delete-reports", fields, &err)()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := s.txRepo(tx)
		for _, id := range ids {
			removed, err := repo.Delete(ctx, id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("record %s: %w", id, repository.ErrNotFound)
			}
		}
		return nil
	})
}

func (s *reportService) Export(ctx context.Context, id string, format export.Format) (res *ExportResult, err error) {
	fields := map[string]any{"record_id": id, "format": string(format)}
	defer observe(ctx, s.observer, "export-report", fields, &err)()

	engine := s.newEngine()
	if err = engine.Resume(ctx, id); err != nil {
		return nil, err
	}
	rec := engine.Record()
	if !rec.Completed {
		return nil, fmt.Errorf("record %s: %w", id, ErrNotCompleted)
	}

	var body string
	body, err = engine.Regenerate(ctx)
	if err != nil {
		return nil, err
	}
	res, err = Render(rec, body, format)
	if res != nil {
		fields["bytes"] = len(res.Data)
	}
	return res, err
}

// Render turns a generated report body into an export for rec.
func Render(rec *domain.CaseRecord, body string, format export.Format) (*ExportResult, error) {
	doc := export.Document{
		Kind:        rec.Kind,
		SubjectName: rec.SubjectName,
		RecordID:    rec.ID,
		Body:        body,
	}
	data, err := export.Render(doc, format)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    doc.Filename(format),
		ContentType: format.ContentType(),
		Data:        data,
		Body:        body,
	}, nil
}
