package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"maps"
	"strings"
	"time"
)

// UnknownSubject is the placeholder subject name used until the child's
// name has been captured.
const UnknownSubject = "Unknown"

// SubjectField is the field key whose value names the record's subject.
const SubjectField = "child_name"

// CaseRecord is one case being collected through the report wizard.
type CaseRecord struct {
	ID           string
	Kind         RecordKind
	SubjectName  string
	Fields       map[string]string
	CurrentStage int
	Completed    bool
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewCaseRecord returns an empty, unsaved record of the given kind.
// The ID is assigned on first persist.
func NewCaseRecord(kind RecordKind) *CaseRecord {
	return &CaseRecord{
		Kind:   kind,
		Fields: make(map[string]string),
	}
}

// Merge overwrites Fields with values by key. Keys are never removed.
func (r *CaseRecord) Merge(values map[string]string) {
	if r.Fields == nil {
		r.Fields = make(map[string]string, len(values))
	}
	maps.Copy(r.Fields, values)
	r.SubjectName = r.subject()
}

func (r *CaseRecord) subject() string {
	if name := strings.TrimSpace(r.Fields[SubjectField]); name != "" {
		return name
	}
	return UnknownSubject
}

// Clone returns a deep copy so callers can hand records across session
// boundaries without sharing the Fields map.
func (r *CaseRecord) Clone() *CaseRecord {
	c := *r
	c.Fields = maps.Clone(r.Fields)
	if c.Fields == nil {
		c.Fields = make(map[string]string)
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// RecordSummary is the listing view of a stored record.
type RecordSummary struct {
	ID          string
	Kind        RecordKind
	SubjectName string
	UpdatedAt   time.Time
	Completed   bool
}

// GenerateRecordID derives a short convenience id from the subject name,
// record kind and a nanosecond timestamp. It is not a security token.
func GenerateRecordID(subjectName string, kind RecordKind, now time.Time) string {
	if strings.TrimSpace(subjectName) == "" {
		subjectName = UnknownSubject
	}
	seed := fmt.Sprintf("%s_%s_%d", subjectName, kind, now.UnixNano())
	sum := md5.Sum([]byte(seed))
	return hex.EncodeToString(sum[:])[:RecordIDLength]
}

// RecordIDLength is the width of generated record ids in hex characters.
const RecordIDLength = 8
