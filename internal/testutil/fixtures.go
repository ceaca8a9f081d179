package testutil

import (
	"maps"

	"github.com/alexanderramin/jess/internal/domain"
)

// Record options
type RecordOption func(*domain.CaseRecord)

func WithFields(fields map[string]string) RecordOption {
	return func(r *domain.CaseRecord) {
		r.Merge(maps.Clone(fields))
	}
}

func WithStage(stage int) RecordOption {
	return func(r *domain.CaseRecord) {
		r.CurrentStage = stage
	}
}

func WithCompleted() RecordOption {
	return func(r *domain.CaseRecord) {
		r.Completed = true
	}
}

func WithID(id string) RecordOption {
	return func(r *domain.CaseRecord) {
		r.ID = id
	}
}

// NewTestRecord returns an unsaved EHC assessment record for subject.
func NewTestRecord(subject string, opts ...RecordOption) *domain.CaseRecord {
	r := domain.NewCaseRecord(domain.KindEHCAssessment)
	r.Merge(map[string]string{domain.SubjectField: subject})
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SampleStageZero is a first-stage submission used across packages.
func SampleStageZero() map[string]string {
	return map[string]string{
		"child_name":      "A.B.",
		"referral_reason": "reading difficulty",
	}
}
