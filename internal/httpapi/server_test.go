package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/jess/internal/composer"
	"github.com/alexanderramin/jess/internal/db"
	"github.com/alexanderramin/jess/internal/llm"
	"github.com/alexanderramin/jess/internal/repository"
	"github.com/alexanderramin/jess/internal/service"
	"github.com/alexanderramin/jess/internal/session"
	"github.com/alexanderramin/jess/internal/testutil"
	"github.com/alexanderramin/jess/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type apiFixture struct {
	srv  *Server
	repo *repository.SQLiteCaseRecordRepo
	gen  *testutil.FakeLLM
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLiteCaseRecordRepo(database)
	gen := testutil.NewFakeLLM()
	newEngine := func() *workflow.Engine {
		return workflow.NewEngine(workflow.DefaultStages(), repo, gen)
	}
	srv := New(Deps{
		Sessions: session.NewManager(time.Hour, 0, newEngine),
		Composer: composer.New(gen),
		Reports:  service.NewReportService(repo, db.NewSQLiteUnitOfWork(database), service.SQLiteTxRepo, newEngine),
		Logger:   zaptest.NewLogger(t),
	})
	return apiFixture{srv: srv, repo: repo, gen: gen}
}

func (f apiFixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.srv.App().Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (f apiFixture) newSession(t *testing.T) string {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)
	resp := f.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChat_SimpleAndDual(t *testing.T) {
	f := newAPIFixture(t)
	f.gen.Reply(llm.TaskChat, "Consider a phonological screen.")
	f.gen.Reply(llm.TaskFactual, "Try phonics-based intervention X.")
	f.gen.Reply(llm.TaskEngagement, "Good thinking. Try phonics-based intervention X. What age is the child?")
	id := f.newSession(t)

	resp := f.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/chat", map[string]string{"message": "reading concerns"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decode[chatResponse](t, resp)
	assert.Equal(t, "Consider a phonological screen.", first.Reply)
	assert.Equal(t, 2, first.Turns)

	resp = f.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/chat", map[string]string{"message": "what next?", "mode": "dual"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decode[chatResponse](t, resp)
	assert.Contains(t, second.Reply, "phonics-based intervention X")
	assert.Equal(t, "dual", second.Mode)
	assert.Equal(t, 4, second.Turns)

	// The chosen mode sticks for the session.
	resp = f.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/chat", map[string]string{"message": "and then?"})
	assert.Equal(t, "dual", decode[chatResponse](t, resp).Mode)
}

func TestSessions_InterleavedRequestsStayIsolated(t *testing.T) {
	f := newAPIFixture(t)
	f.gen.Reply(llm.TaskChat, "Reply one.", "Reply two.", "Reply three.", "Reply four.")
	a := f.newSession(t)
	b := f.newSession(t)
	chat := func(id, msg string) chatResponse {
		resp := f.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/chat", map[string]string{"message": msg})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[chatResponse](t, resp)
	}
	wizard := func(id string) wizardView {
		resp := f.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/wizard", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[wizardView](t, resp)
	}

	resp := f.do(t, http.MethodPost, "/api/v1/sessions/"+a+"/wizard/advance", valuesRequest{Values: testutil.SampleStageZero()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, chat(a, "first from a").Turns)

	for range 10 {
		wizard(b)
		resp = f.do(t, http.MethodGet, "/api/v1/sessions/00000000-0000-0000-0000-000000000000/wizard", nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	}

	assert.Equal(t, 2, chat(b, "first from b").Turns)
	assert.Equal(t, 4, chat(a, "second from a").Turns)

	resp = f.do(t, http.MethodPost, "/api/v1/sessions/"+b+"/wizard/save", valuesRequest{Values: map[string]string{"child_name": "C.D."}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	savedB := decode[wizardView](t, resp)
	require.Len(t, savedB.RecordID, 8)

	resp = f.do(t, http.MethodPost, "/api/v1/sessions/"+a+"/wizard/save", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	savedA := decode[wizardView](t, resp)
	require.Len(t, savedA.RecordID, 8)
	assert.NotEqual(t, savedA.RecordID, savedB.RecordID)

	viewA, viewB := wizard(a), wizard(b)
	assert.Equal(t, 1, viewA.StageIndex)
	assert.Equal(t, savedA.RecordID, viewA.RecordID)
	assert.Equal(t, 0, viewB.StageIndex)
	assert.Equal(t, savedB.RecordID, viewB.RecordID)
	assert.Equal(t, "C.D.", viewB.Values["child_name"])

	assert.Equal(t, 6, chat(a, "third from a").Turns)
	assert.Equal(t, 4, chat(b, "second from b").Turns)

	reqs := f.gen.Requests()
	require.Len(t, reqs, 5)
	assert.NotContains(t, reqs[2].UserPrompt, "first from b")
	assert.Contains(t, reqs[2].UserPrompt, "first from a")
	assert.NotContains(t, reqs[4].UserPrompt, "from a")
}

func TestChat_Errors(t *testing.T) {
	f := newAPIFixture(t)
	id := f.newSession(t)

	resp := f.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/chat", map[string]string{"message": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/chat", map[string]string{"message": "hi", "mode": "triple"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/v1/sessions/unknown/chat", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	f.gen.Fail(llm.TaskChat, fmt.Errorf("%w: deadline", llm.ErrTimeout))
	resp = f.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/chat", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	body := decode[errorBody](t, resp)
	assert.Equal(t, "generation", body.Step)

	f.gen.Fail(llm.TaskChat, fmt.Errorf("%w: 503", llm.ErrUnavailable))
	resp = f.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/chat", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestWizard_SaveResumeFlow(t *testing.T) {
	f := newAPIFixture(t)
	id := f.newSession(t)
	base := "/api/v1/sessions/" + id + "/wizard"

	resp := f.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[wizardView](t, resp)
	assert.Equal(t, 0, view.StageIndex)
	assert.Equal(t, 8, view.StageCount)
	assert.Equal(t, "child_name", view.Fields[0].Key)

	resp = f.do(t, http.MethodPost, base+"/advance", valuesRequest{Values: testutil.SampleStageZero()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[wizardView](t, resp).StageIndex)

	resp = f.do(t, http.MethodPost, base+"/save", valuesRequest{Values: map[string]string{"family_background": "two siblings"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decode[wizardView](t, resp)
	require.Len(t, saved.RecordID, 8)

	other := f.newSession(t)
	resp = f.do(t, http.MethodPost, "/api/v1/sessions/"+other+"/wizard/resume", resumeRequest{RecordID: saved.RecordID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resumed := decode[wizardView](t, resp)
	assert.Equal(t, 1, resumed.StageIndex)
	assert.False(t, resumed.Completed)
	assert.Equal(t, "two siblings", resumed.Values["family_background"])
	assert.Equal(t, "A.B.", resumed.Values["child_name"])
}

func TestWizard_Errors(t *testing.T) {
	f := newAPIFixture(t)
	id := f.newSession(t)
	base := "/api/v1/sessions/" + id + "/wizard"

	resp := f.do(t, http.MethodPost, base+"/retreat", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", decode[errorBody](t, resp).Step)

	resp = f.do(t, http.MethodPost, base+"/advance", valuesRequest{Values: map[string]string{"provision": "too early"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, base+"/resume", resumeRequest{RecordID: "deadbeef"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodPost, base+"/resume", resumeRequest{RecordID: "not-an-id"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodGet, base+"/document", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWizard_FinalizeAndDownload(t *testing.T) {
	f := newAPIFixture(t)
	f.gen.Reply(llm.TaskReport, "SUMMARY\n\nA.B. is progressing.")
	id := f.newSession(t)
	base := "/api/v1/sessions/" + id + "/wizard"

	stages := workflow.DefaultStages()
	for i := 0; i < stages.Last(); i++ {
		resp := f.do(t, http.MethodPost, base+"/advance", valuesRequest{
			Values: map[string]string{stages.At(i).Fields[0].Key: "note"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := f.do(t, http.MethodPost, base+"/finalize", valuesRequest{Values: map[string]string{"provision": "weekly"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decode[documentResponse](t, resp)
	assert.Equal(t, "SUMMARY\n\nA.B. is progressing.", doc.Document)
	assert.Len(t, doc.RecordID, 8)

	resp = f.do(t, http.MethodGet, base+"/document?format=rtf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/rtf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "ehc_assessment_"+doc.RecordID+".rtf")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `{\rtf1`))

	resp = f.do(t, http.MethodGet, base+"/document?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Completed records reject further edits.
	resp = f.do(t, http.MethodPost, base+"/advance", valuesRequest{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, http.MethodPost, base+"/regenerate", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReports_Admin(t *testing.T) {
	f := newAPIFixture(t)
	ctx := t.Context()
	done, err := f.repo.Put(ctx, testutil.NewTestRecord("Done", testutil.WithStage(7), testutil.WithCompleted()))
	require.NoError(t, err)
	draft, err := f.repo.Put(ctx, testutil.NewTestRecord("Draft"))
	require.NoError(t, err)

	resp := f.do(t, http.MethodGet, "/api/v1/reports?limit=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[map[string][]summaryView](t, resp)
	require.Len(t, list["reports"], 1)
	assert.Equal(t, draft, list["reports"][0].ID)

	resp = f.do(t, http.MethodGet, "/api/v1/reports/"+done, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[recordView](t, resp)
	assert.Equal(t, "Done", rec.SubjectName)
	assert.True(t, rec.Completed)

	f.gen.Reply(llm.TaskReport, "REPORT BODY")
	resp = f.do(t, http.MethodGet, "/api/v1/reports/"+done+"/export?format=html", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp = f.do(t, http.MethodGet, "/api/v1/reports/"+draft+"/export", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, http.MethodDelete, "/api/v1/reports/"+draft, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]bool{"removed": true}, decode[map[string]bool](t, resp))

	resp = f.do(t, http.MethodDelete, "/api/v1/reports/"+draft, nil)
	assert.Equal(t, map[string]bool{"removed": false}, decode[map[string]bool](t, resp))

	resp = f.do(t, http.MethodGet, "/api/v1/reports/"+draft, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReports_BulkDelete(t *testing.T) {
	f := newAPIFixture(t)
	ctx := t.Context()
	a, err := f.repo.Put(ctx, testutil.NewTestRecord("A.B."))
	require.NoError(t, err)
	b, err := f.repo.Put(ctx, testutil.NewTestRecord("C.D."))
	require.NoError(t, err)

	resp := f.do(t, http.MethodPost, "/api/v1/reports/delete", map[string]any{"ids": []string{a, "0000beef"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_, err = f.repo.Get(ctx, a)
	require.NoError(t, err)

	resp = f.do(t, http.MethodPost, "/api/v1/reports/delete", map[string]any{"ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/v1/reports/delete", map[string]any{"ids": []string{a, b}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]int{"removed": 2}, decode[map[string]int](t, resp))

	_, err = f.repo.Get(ctx, b)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSession_ResetAndDelete(t *testing.T) {
	f := newAPIFixture(t)
	id := f.newSession(t)

	resp := f.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/reset", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/reset", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(repository.ErrNotFound))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(llm.ErrTimeout))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(llm.ErrCanceled))
	assert.Equal(t, http.StatusBadGateway, statusFor(llm.ErrRetryExhausted))
	assert.Equal(t, http.StatusInternalServerError, statusFor(repository.ErrStorage))
	assert.Equal(t, http.StatusBadRequest, statusFor(workflow.ErrAtFirstStage))
}
