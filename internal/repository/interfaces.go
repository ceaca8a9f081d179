package repository

import (
	"context"
	"iter"

	"github.com/alexanderramin/jess/internal/domain"
)

// CaseRecordRepo stores case records keyed by their short id.
type CaseRecordRepo interface {
	// Put upserts the full record and returns its id, assigning one on the
	// first write.
	Put(ctx context.Context, rec *domain.CaseRecord) (string, error)
	Get(ctx context.Context, id string) (*domain.CaseRecord, error)
	// List returns at most limit summaries, most recently updated first.
	List(ctx context.Context, limit int) ([]domain.RecordSummary, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

// Summaries adapts a listing into an iterator. Each range re-queries the
// store, so the sequence can be walked more than once. Errors end the
// sequence early and are reported through errp when it is non-nil.
func Summaries(ctx context.Context, repo CaseRecordRepo, limit int, errp *error) iter.Seq[domain.RecordSummary] {
	return func(yield func(domain.RecordSummary) bool) {
		list, err := repo.List(ctx, limit)
		if errp != nil {
			*errp = err
		}
		if err != nil {
			return
		}
		for _, s := range list {
			if !yield(s) {
				return
			}
		}
	}
}
