// Package workflow drives the staged case-notes wizard for one record and
// turns the collected notes into a generated report.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/jess/internal/domain"
	"github.com/alexanderramin/jess/internal/llm"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// MaxFieldLength caps a single free-text answer, in characters.
const MaxFieldLength = 20000

// RecordStore is the persistence the engine needs.
type RecordStore interface {
	Put(ctx context.Context, rec *domain.CaseRecord) (string, error)
	Get(ctx context.Context, id string) (*domain.CaseRecord, error)
}

// State is the engine's position in the wizard.
type State string

const (
	StateCollecting State = "collecting"
	StateCompleted  State = "completed"
)

// submission is the boundary shape checked by the validator before any
// value is merged.
type submission struct {
	Stage  int               `validate:"gte=0"`
	Values map[string]string `validate:"dive,keys,required,endkeys,max=20000"`
}

// Engine is the wizard state for one session. It is not safe for
// concurrent use; callers serialize operations per session.
type Engine struct {
	stages   *StageSet
	store    RecordStore
	gen      llm.LLMClient
	log      *zap.Logger
	validate *validator.Validate

	record   *domain.CaseRecord
	document string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for transition events.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine returns an engine positioned at the first stage of a fresh record.
func NewEngine(stages *StageSet, store RecordStore, gen llm.LLMClient, opts ...Option) *Engine {
	e := &Engine{
		stages:   stages,
		store:    store,
		gen:      gen,
		log:      zap.NewNop(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("workflow")
	e.Reset()
	return e
}

// Reset discards in-memory progress and starts a new record.
func (e *Engine) Reset() {
	e.record = domain.NewCaseRecord(e.stages.Kind)
	e.document = ""
}

// Stages returns the stage table the engine walks.
func (e *Engine) Stages() *StageSet { return e.stages }

// State reports whether the engine is still collecting.
func (e *Engine) State() State {
	if e.record.Completed {
		return StateCompleted
	}
	return StateCollecting
}

// StageIndex is the current cursor.
func (e *Engine) StageIndex() int { return e.record.CurrentStage }

// CurrentStage returns the stage under the cursor.
func (e *Engine) CurrentStage() Stage { return e.stages.At(e.record.CurrentStage) }

// Record returns a copy of the in-memory record.
func (e *Engine) Record() *domain.CaseRecord { return e.record.Clone() }

// RecordID returns the record id, empty before the first save.
func (e *Engine) RecordID() string { return e.record.ID }

// Document returns the cached report, if one has been generated this session.
func (e *Engine) Document() (string, bool) {
	return e.document, e.document != ""
}

// Progress formats the cursor as "Section i of n: Title".
func (e *Engine) Progress() string {
	i := e.record.CurrentStage
	return fmt.Sprintf("Section %d of %d: %s", i+1, e.stages.Count(), e.stages.At(i).Title)
}

// Advance merges values for the current stage. Before the last stage it
// saves and moves the cursor forward; on the last stage it finalizes.
func (e *Engine) Advance(ctx context.Context, values map[string]string) error {
	if e.record.CurrentStage == e.stages.Last() {
		_, err := e.finalize(ctx, "advance", values)
		return err
	}
	next, err := e.merged("advance", values)
	if err != nil {
		return err
	}
	next.CurrentStage++
	if err := e.persist(ctx, "advance", next); err != nil {
		return err
	}
	e.log.Debug("stage_advanced",
		zap.String("record_id", next.ID),
		zap.Int("stage", next.CurrentStage))
	return nil
}

// Retreat moves the cursor back one stage without saving.
func (e *Engine) Retreat() error {
	if e.record.Completed {
		return domain.Fail(domain.StepValidation, "retreat", ErrCompleted)
	}
	if e.record.CurrentStage == 0 {
		return domain.Fail(domain.StepValidation, "retreat", ErrAtFirstStage)
	}
	e.record.CurrentStage--
	e.log.Debug("stage_retreated", zap.Int("stage", e.record.CurrentStage))
	return nil
}

// SaveAndExit merges values and saves at the current stage. In-memory
// progress is kept; the returned id resumes it later.
func (e *Engine) SaveAndExit(ctx context.Context, values map[string]string) (string, error) {
	next, err := e.merged("save", values)
	if err != nil {
		return "", err
	}
	if err := e.persist(ctx, "save", next); err != nil {
		return "", err
	}
	e.log.Info("record_saved",
		zap.String("record_id", next.ID),
		zap.Int("stage", next.CurrentStage))
	return next.ID, nil
}

// Resume replaces in-memory progress with the stored record id.
func (e *Engine) Resume(ctx context.Context, id string) error {
	rec, err := e.store.Get(ctx, id)
	if err != nil {
		return domain.Fail(domain.StepPersistence, "resume", err)
	}
	if rec.CurrentStage < 0 || rec.CurrentStage > e.stages.Last() {
		rec.CurrentStage = min(max(rec.CurrentStage, 0), e.stages.Last())
	}
	if rec.Kind == "" {
		rec.Kind = e.stages.Kind
	}
	e.record = rec
	e.document = ""
	e.log.Info("record_resumed",
		zap.String("record_id", rec.ID),
		zap.Int("stage", rec.CurrentStage),
		zap.Bool("completed", rec.Completed))
	return nil
}

// Finalize merges the last stage's values, saves the data, generates the
// report and only then marks the record completed. A generation failure
// leaves the stored record incomplete.
func (e *Engine) Finalize(ctx context.Context, values map[string]string) (string, error) {
	return e.finalize(ctx, "finalize", values)
}

func (e *Engine) finalize(ctx context.Context, op string, values map[string]string) (string, error) {
	if e.record.CurrentStage != e.stages.Last() {
		return "", domain.Fail(domain.StepValidation, op,
			fmt.Errorf("%w: finalize is only allowed on the last stage", ErrValidation))
	}
	next, err := e.merged(op, values)
	if err != nil {
		return "", err
	}
	if err := e.checkRequired(op, next.Fields); err != nil {
		return "", err
	}
	if err := e.persist(ctx, op, next); err != nil {
		return "", err
	}

	doc, err := e.generate(ctx, op)
	if err != nil {
		return "", err
	}
	e.document = doc

	done := e.record.Clone()
	done.Completed = true
	if err := e.persist(ctx, op, done); err != nil {
		return doc, err
	}
	e.log.Info("report_generated",
		zap.String("record_id", done.ID),
		zap.Int("chars", len(doc)))
	return doc, nil
}

// Regenerate produces a new report from the current fields without saving
// and replaces the cached document.
func (e *Engine) Regenerate(ctx context.Context) (string, error) {
	doc, err := e.generate(ctx, "regenerate")
	if err != nil {
		return "", err
	}
	e.document = doc
	return doc, nil
}

func (e *Engine) generate(ctx context.Context, op string) (string, error) {
	notes := RenderNotes(e.stages, e.record.Fields)
	resp, err := e.gen.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskReport,
		SystemPrompt: ReportSystemPrompt(e.record.Kind),
		UserPrompt:   reportPrompt(notes),
	})
	if err != nil {
		e.log.Warn("report_generation_failed",
			zap.String("record_id", e.record.ID),
			zap.Error(err))
		return "", domain.Fail(domain.StepGeneration, op, err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// merged validates values against the current stage and returns a copy of
// the record with them applied. The engine's record is untouched.
func (e *Engine) merged(op string, values map[string]string) (*domain.CaseRecord, error) {
	if e.record.Completed {
		return nil, domain.Fail(domain.StepValidation, op, ErrCompleted)
	}
	if err := e.check(values); err != nil {
		return nil, domain.Fail(domain.StepValidation, op, err)
	}
	next := e.record.Clone()
	next.Merge(values)
	return next, nil
}

func (e *Engine) check(values map[string]string) error {
	stage := e.CurrentStage()
	for k := range values {
		if !stage.Owns(k) {
			return fmt.Errorf("%w: field %q does not belong to stage %q", ErrValidation, k, stage.Title)
		}
	}
	sub := submission{Stage: e.record.CurrentStage, Values: values}
	if err := e.validate.Struct(sub); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func (e *Engine) checkRequired(op string, fields map[string]string) error {
	var missing []string
	for _, st := range e.stages.Stages {
		for _, f := range st.Fields {
			if f.Required && e.validate.Var(strings.TrimSpace(fields[f.Key]), "required") != nil {
				missing = append(missing, f.Key)
			}
		}
	}
	if len(missing) > 0 {
		return domain.Fail(domain.StepValidation, op,
			fmt.Errorf("%w: required fields are empty: %s", ErrValidation, strings.Join(missing, ", ")))
	}
	return nil
}

// persist saves rec and adopts it as the engine's record on success.
func (e *Engine) persist(ctx context.Context, op string, rec *domain.CaseRecord) error {
	if _, err := e.store.Put(ctx, rec); err != nil {
		return domain.Fail(domain.StepPersistence, op, err)
	}
	e.record = rec
	return nil
}
