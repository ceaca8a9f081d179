package httpapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/jess/internal/domain"
	"github.com/alexanderramin/jess/internal/export"
	"github.com/alexanderramin/jess/internal/service"
	"github.com/alexanderramin/jess/internal/session"
	"github.com/alexanderramin/jess/internal/workflow"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

var errBadRequest = errors.New("bad request")

type chatRequest struct {
	Message string `json:"message" validate:"required,max=20000"`
	Mode    string `json:"mode" validate:"omitempty,oneof=simple dual"`
}

type chatResponse struct {
	Reply    string `json:"reply"`
	Mode     string `json:"mode"`
	Degraded bool   `json:"degraded"`
	Turns    int    `json:"turns"`
}

type valuesRequest struct {
	Values map[string]string `json:"values"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=100,dive,len=8,hexadecimal"`
}

type resumeRequest struct {
	RecordID string `json:"record_id" validate:"required,len=8,hexadecimal"`
}

type fieldView struct {
	Key       string `json:"key"`
	Prompt    string `json:"prompt"`
	Help      string `json:"help,omitempty"`
	Multiline bool   `json:"multiline"`
}

type wizardView struct {
	StageIndex int               `json:"stage_index"`
	StageCount int               `json:"stage_count"`
	Progress   string            `json:"progress"`
	StageKey   string            `json:"stage_key"`
	StageTitle string            `json:"stage_title"`
	Fields     []fieldView       `json:"fields"`
	Values     map[string]string `json:"values"`
	RecordID   string            `json:"record_id,omitempty"`
	Completed  bool              `json:"completed"`
	HasReport  bool              `json:"has_report"`
}

type documentResponse struct {
	RecordID string `json:"record_id"`
	Document string `json:"document"`
}

type summaryView struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	SubjectName string    `json:"subject_name"`
	UpdatedAt   time.Time `json:"updated_at"`
	Completed   bool      `json:"completed"`
}

type recordView struct {
	summaryView
	CurrentStage int               `json:"current_stage"`
	Fields       map[string]string `json:"fields"`
	CreatedAt    time.Time         `json:"created_at"`
}

func (s *Server) bind(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return s.check(out)
	}
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return s.check(out)
}

func (s *Server) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) session(c *fiber.Ctx) (*session.Session, error) {
	return s.sessions.Get(utils.CopyString(c.Params("id")))
}

func (s *Server) createSession(c *fiber.Ctx) error {
	sess := s.sessions.Create()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":          sess.ID,
		"ttl_seconds": int(s.sessions.TTL().Seconds()),
	})
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	s.sessions.Delete(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) resetSession(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	sess.StartFresh()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	sess, err := s.session(c)
	if err != nil {
		return err
	}

	var resp chatResponse
	err = sess.Do(func(st *session.State) error {
		mode := st.Mode
		if req.Mode != "" {
			mode, _ = domain.ParseResponseMode(req.Mode)
			st.Mode = mode
		}
		reply, next, err := s.composer.Respond(c.UserContext(), req.Message, st.Conversation, mode)
		if err != nil {
			return err
		}
		st.Conversation = next
		resp = chatResponse{
			Reply:    reply.Text,
			Mode:     string(reply.Mode),
			Degraded: reply.Degraded,
			Turns:    next.Len(),
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func viewOf(e *workflow.Engine) wizardView {
	stage := e.CurrentStage()
	rec := e.Record()
	fields := make([]fieldView, len(stage.Fields))
	for i, f := range stage.Fields {
		fields[i] = fieldView{Key: f.Key, Prompt: f.Prompt, Help: f.Help, Multiline: f.Multiline}
	}
	_, hasReport := e.Document()
	return wizardView{
		StageIndex: e.StageIndex(),
		StageCount: e.Stages().Count(),
		Progress:   e.Progress(),
		StageKey:   stage.Key,
		StageTitle: stage.Title,
		Fields:     fields,
		Values:     rec.Fields,
		RecordID:   rec.ID,
		Completed:  rec.Completed,
		HasReport:  hasReport,
	}
}

// withEngine runs fn against the session's engine and replies with the
// resulting wizard view.
func (s *Server) withEngine(c *fiber.Ctx, fn func(*session.State) error) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var view wizardView
	err = sess.Do(func(st *session.State) error {
		if err := fn(st); err != nil {
			return err
		}
		view = viewOf(st.Engine)
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (s *Server) wizardState(c *fiber.Ctx) error {
	return s.withEngine(c, func(*session.State) error { return nil })
}

func (s *Server) wizardAdvance(c *fiber.Ctx) error {
	var req valuesRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	return s.withEngine(c, func(st *session.State) error {
		st.InWorkflow = true
		return st.Engine.Advance(c.UserContext(), req.Values)
	})
}

func (s *Server) wizardRetreat(c *fiber.Ctx) error {
	return s.withEngine(c, func(st *session.State) error {
		return st.Engine.Retreat()
	})
}

func (s *Server) wizardSave(c *fiber.Ctx) error {
	var req valuesRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	return s.withEngine(c, func(st *session.State) error {
		if _, err := st.Engine.SaveAndExit(c.UserContext(), req.Values); err != nil {
			return err
		}
		st.InWorkflow = false
		return nil
	})
}

func (s *Server) wizardResume(c *fiber.Ctx) error {
	var req resumeRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	return s.withEngine(c, func(st *session.State) error {
		if err := st.Engine.Resume(c.UserContext(), req.RecordID); err != nil {
			return err
		}
		st.InWorkflow = true
		return nil
	})
}

func (s *Server) generate(c *fiber.Ctx, run func(*workflow.Engine) (string, error)) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var resp documentResponse
	err = sess.Do(func(st *session.State) error {
		doc, err := run(st.Engine)
		if err != nil {
			return err
		}
		resp = documentResponse{RecordID: st.Engine.RecordID(), Document: doc}
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (s *Server) wizardFinalize(c *fiber.Ctx) error {
	var req valuesRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	return s.generate(c, func(e *workflow.Engine) (string, error) {
		return e.Finalize(c.UserContext(), req.Values)
	})
}

func (s *Server) wizardRegenerate(c *fiber.Ctx) error {
	return s.generate(c, func(e *workflow.Engine) (string, error) {
		return e.Regenerate(c.UserContext())
	})
}

func (s *Server) wizardDocument(c *fiber.Ctx) error {
	format, err := export.ParseFormat(c.Query("format", string(export.FormatMarkdown)))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var res *service.ExportResult
	err = sess.Do(func(st *session.State) error {
		doc, ok := st.Engine.Document()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no report has been generated in this session")
		}
		res, err = service.Render(st.Engine.Record(), doc, format)
		return err
	})
	if err != nil {
		return err
	}
	return sendExport(c, res)
}

func sendExport(c *fiber.Ctx, res *service.ExportResult) error {
	c.Set(fiber.HeaderContentType, res.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.Filename))
	return c.Send(res.Data)
}

func summaryOf(r domain.RecordSummary) summaryView {
	return summaryView{
		ID:          r.ID,
		Kind:        string(r.Kind),
		SubjectName: r.SubjectName,
		UpdatedAt:   r.UpdatedAt,
		Completed:   r.Completed,
	}
}

func (s *Server) listReports(c *fiber.Ctx) error {
	list, err := s.reports.List(c.UserContext(), c.QueryInt("limit", service.DefaultListLimit))
	if err != nil {
		return err
	}
	out := make([]summaryView, len(list))
	for i, r := range list {
		out[i] = summaryOf(r)
	}
	return c.JSON(fiber.Map{"reports": out})
}

func (s *Server) getReport(c *fiber.Ctx) error {
	rec, err := s.reports.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(recordView{
		summaryView: summaryOf(domain.RecordSummary{
			ID:          rec.ID,
			Kind:        rec.Kind,
			SubjectName: rec.SubjectName,
			UpdatedAt:   rec.UpdatedAt,
			Completed:   rec.Completed,
		}),
		CurrentStage: rec.CurrentStage,
		Fields:       rec.Fields,
		CreatedAt:    rec.CreatedAt,
	})
}

func (s *Server) deleteReport(c *fiber.Ctx) error {
	removed, err := s.reports.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"removed": removed})
}

func (s *Server) deleteReports(c *fiber.Ctx) error {
	var req bulkDeleteRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	if err := s.reports.DeleteAll(c.UserContext(), req.IDs); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"removed": len(req.IDs)})
}

func (s *Server) exportReport(c *fiber.Ctx) error {
	format, err := export.ParseFormat(c.Query("format", string(export.FormatMarkdown)))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	res, err := s.reports.Export(c.UserContext(), c.Params("id"), format)
	if err != nil {
		return err
	}
	return sendExport(c, res)
}
