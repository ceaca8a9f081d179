// Package composer turns one EP utterance plus conversation history into a
// single assistant reply, using one model pass or a factual pass followed
// by an engagement pass.
package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/jess/internal/domain"
	"github.com/alexanderramin/jess/internal/llm"
	"go.uber.org/zap"
)

// ErrEmptyUtterance is returned when there is nothing to respond to.
var ErrEmptyUtterance = errors.New("empty utterance")

// Reply is the outcome of one Respond call.
type Reply struct {
	Text        string
	Mode        domain.ResponseMode
	Composition domain.Composition // empty in simple mode

	// Factual is the factual pass output in dual mode. It is never written
	// to the conversation history on its own.
	Factual string

	// Degraded is set when the engagement pass failed and Text is the
	// factual pass alone.
	Degraded bool
}

// framing is the engagement pass payload in structured composition.
type framing struct {
	Warmth   string `json:"warmth"`
	Question string `json:"question"`
}

// Composer runs the generation passes. It holds no conversation state and
// is safe for concurrent use when its client is.
type Composer struct {
	gen         llm.LLMClient
	composition domain.Composition
	log         *zap.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithComposition selects how dual-mode passes are merged.
func WithComposition(c domain.Composition) Option {
	return func(cm *Composer) { cm.composition = c }
}

// WithLogger sets the composer's logger.
func WithLogger(l *zap.Logger) Option {
	return func(cm *Composer) { cm.log = l }
}

// New returns a Composer using carry composition unless configured otherwise.
func New(gen llm.LLMClient, opts ...Option) *Composer {
	c := &Composer{gen: gen, composition: domain.ComposeCarry, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("composer")
	return c
}

// Composition returns the configured dual-mode composition.
func (c *Composer) Composition() domain.Composition { return c.composition }

// Respond produces one reply and returns state extended with exactly one
// (user, assistant) exchange. On error state is returned unchanged.
func (c *Composer) Respond(ctx context.Context, utterance string, state domain.ConversationState, mode domain.ResponseMode) (Reply, domain.ConversationState, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return Reply{}, state, domain.Fail(domain.StepValidation, "respond", ErrEmptyUtterance)
	}
	if err := state.Validate(); err != nil {
		return Reply{}, state, domain.Fail(domain.StepValidation, "respond", err)
	}

	var (
		reply Reply
		err   error
	)
	switch mode {
	case domain.ModeDual:
		reply, err = c.dual(ctx, utterance, state)
	case domain.ModeSimple, "":
		reply, err = c.simple(ctx, utterance, state)
	default:
		err = domain.Fail(domain.StepValidation, "respond", fmt.Errorf("unknown response mode %q", mode))
	}
	if err != nil {
		return Reply{}, state, err
	}
	return reply, state.WithExchange(utterance, reply.Text), nil
}

func (c *Composer) simple(ctx context.Context, utterance string, state domain.ConversationState) (Reply, error) {
	resp, err := c.gen.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskChat,
		SystemPrompt: chatSystemPrompt,
		UserPrompt:   chatPrompt(state, utterance),
	})
	if err != nil {
		return Reply{}, domain.Fail(domain.StepGeneration, "respond", err)
	}
	return Reply{Text: strings.TrimSpace(resp.Text), Mode: domain.ModeSimple}, nil
}

func (c *Composer) dual(ctx context.Context, utterance string, state domain.ConversationState) (Reply, error) {
	resp, err := c.gen.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskFactual,
		SystemPrompt: factualSystemPrompt,
		UserPrompt:   factualPrompt(state, utterance),
	})
	if err != nil {
		return Reply{}, domain.Fail(domain.StepGeneration, "factual pass", err)
	}
	factual := strings.TrimSpace(resp.Text)

	reply := Reply{Mode: domain.ModeDual, Composition: c.composition, Factual: factual}
	text, err := c.engage(ctx, utterance, factual)
	if err != nil {
		c.log.Warn("engagement_pass_failed",
			zap.String("composition", string(c.composition)),
			zap.Error(err))
		reply.Text = factual
		reply.Degraded = true
		return reply, nil
	}
	reply.Text = text
	return reply, nil
}

// engage runs the engagement pass and merges it with factual according to
// the configured composition.
func (c *Composer) engage(ctx context.Context, utterance, factual string) (string, error) {
	if c.composition == domain.ComposeStructured {
		resp, err := c.gen.Generate(ctx, llm.GenerateRequest{
			Task:         llm.TaskEngagement,
			SystemPrompt: structuredSystemPrompt,
			UserPrompt:   structuredPrompt(utterance, factual),
		})
		if err != nil {
			return "", err
		}
		f, err := llm.ExtractJSON[framing](resp.Text, validateFraming)
		if err != nil {
			return "", err
		}
		var followUps []string
		if q := strings.TrimSpace(f.Question); q != "" {
			followUps = []string{q}
		}
		return FormatProfessionalResponse(factual, strings.TrimSpace(f.Warmth), followUps), nil
	}

	resp, err := c.gen.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskEngagement,
		SystemPrompt: engagementSystemPrompt,
		UserPrompt:   engagementPrompt(utterance, factual),
	})
	if err != nil {
		return "", err
	}
	engagement := strings.TrimSpace(resp.Text)

	if c.composition == domain.ComposeConcat {
		return CombineResponses(factual, engagement), nil
	}
	return carry(factual, engagement), nil
}

// carry uses the engagement text as the reply when it keeps the factual
// content and asks at most one question. Otherwise the reply is the factual
// text followed by the first question the engagement pass asked, if any.
func carry(factual, engagement string) string {
	if engagement != "" && Preserves(engagement, factual) && countQuestions(engagement) <= 1 {
		return engagement
	}
	if countQuestions(factual) > 0 {
		return factual
	}
	for q := range FollowUpQuestions(engagement) {
		if !strings.Contains(factual, q) {
			return CombineResponses(factual, q)
		}
	}
	return factual
}

func validateFraming(f framing) error {
	if q := strings.TrimSpace(f.Question); q != "" && !strings.HasSuffix(q, "?") {
		return fmt.Errorf("question must end with '?', got %q", q)
	}
	if countQuestions(f.Warmth) > 0 {
		return fmt.Errorf("warmth must not ask a question")
	}
	return nil
}
