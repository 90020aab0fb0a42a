package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/casegen-backend/internal/domain"
	"github.com/yungbote/casegen-backend/internal/platform/apierr"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
	"github.com/yungbote/casegen-backend/internal/services"
)

type fakeRequirements struct {
	got     services.UploadInput
	content string
	rows    []*types.Requirement
}

func (f *fakeRequirements) Upload(_ context.Context, _ string, in services.UploadInput) (*types.Requirement, error) {
	f.got = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.content = string(b)
	return &types.Requirement{ReqID: "Login-Flow", Title: "Login Flow", FileURI: "https://cdn.test/login.pdf"}, nil
}

func (f *fakeRequirements) List(context.Context, string) ([]*types.Requirement, error) {
	return f.rows, nil
}

type fakeGeneration struct {
	services.GenerationService
	results []services.ItemResult
	patch   map[string]any
	getErr  error
	regen   *services.RegenerateResult
}

func (f *fakeGeneration) Create(context.Context, string, services.CreateInput) ([]services.ItemResult, error) {
	return f.results, nil
}

func (f *fakeGeneration) Patch(_ context.Context, _, _, tcID string, patch map[string]any) (types.Testcase, error) {
	f.patch = patch
	return types.Testcase{TCID: tcID, Title: "patched"}, nil
}

func (f *fakeGeneration) Get(context.Context, string, string) (*types.GeneratedSet, error) {
	return nil, f.getErr
}

func (f *fakeGeneration) RegenerateRequirement(_ context.Context, _, reqID string, _ []string, _ string) (*services.RegenerateResult, error) {
	return f.regen, nil
}

type fakeJira struct{}

func (fakeJira) Mirror(context.Context, string, string, string) (*services.JiraResult, error) {
	return &services.JiraResult{Parent: "QA-1", Subtask: "QA-2"}, nil
}

func newTestRouter(reqs *fakeRequirements, gen *fakeGeneration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	rh := NewRequirementHandler(log, reqs, 1<<10)
	th := NewTestcaseHandler(log, gen, fakeJira{})

	r := gin.New()
	r.POST("/requirements/upload", rh.Upload)
	r.GET("/requirements", rh.List)
	r.POST("/testcases", th.Create)
	r.PATCH("/testcases/:genId/:tcId", th.Patch)
	r.POST("/testcases/:genId/:tcId/jira", th.Jira)
	r.POST("/requirements/:reqId/regenerate", th.RegenerateRequirement)
	r.GET("/generated/:genId", th.GetGenerated)
	return r
}

func do(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func multipartRequest(t *testing.T, field, name, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/requirements/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestRequirementUpload(t *testing.T) {
	reqs := &fakeRequirements{}
	r := newTestRouter(reqs, &fakeGeneration{})

	rec, body := do(r, multipartRequest(t, "file", "Login Flow.pdf", "%PDF-1.4"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Login-Flow", body["req_id"])
	require.Equal(t, "Login Flow", body["title"])
	require.Equal(t, "https://cdn.test/login.pdf", body["fileUri"])
	require.Equal(t, "Login Flow.pdf", reqs.got.FileName)
	require.Equal(t, "%PDF-1.4", reqs.content)
}

func TestRequirementUploadErrors(t *testing.T) {
	r := newTestRouter(&fakeRequirements{}, &fakeGeneration{})

	rec, body := do(r, multipartRequest(t, "attachment", "a.txt", "x"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "missing_file", body["code"])

	rec, body = do(r, multipartRequest(t, "file", "big.txt", strings.Repeat("x", 3<<20)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "file_too_large", body["code"])
}

func TestRequirementListIsKeyedByReqID(t *testing.T) {
	reqs := &fakeRequirements{rows: []*types.Requirement{
		{ReqID: "A", Title: "Alpha", FileURI: "u1"},
		{ReqID: "B", Title: "Beta", FileURI: "u2"},
	}}
	r := newTestRouter(reqs, &fakeGeneration{})

	rec, body := do(r, httptest.NewRequest(http.MethodGet, "/requirements", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]any{"id": "B", "title": "Beta", "fileUri": "u2"}, body["B"])
	require.Len(t, body, 2)
}

func TestCreateAggregatesSuccess(t *testing.T) {
	gen := &fakeGeneration{results: []services.ItemResult{
		{ReqID: "A", Success: true, GenID: "g1", Count: 2},
		{ReqID: "B", Success: false, Error: "model returned no testcases"},
	}}
	r := newTestRouter(&fakeRequirements{}, gen)

	req := httptest.NewRequest(http.MethodPost, "/testcases", strings.NewReader(`{"selectedRequirements":["A","B"]}`))
	req.Header.Set("Content-Type", "application/json")
	rec, body := do(r, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["success"])
	require.Len(t, body["results"], 2)

	bad := httptest.NewRequest(http.MethodPost, "/testcases", strings.NewReader(`{`))
	bad.Header.Set("Content-Type", "application/json")
	rec, body = do(r, bad)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_body", body["code"])
}

func TestPatchDropsUnknownFields(t *testing.T) {
	gen := &fakeGeneration{}
	r := newTestRouter(&fakeRequirements{}, gen)

	req := httptest.NewRequest(http.MethodPatch, "/testcases/g1/T1", strings.NewReader(`{"title":"x","owner":"me"}`))
	req.Header.Set("Content-Type", "application/json")
	rec, body := do(r, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]any{"title": "x"}, gen.patch)
	require.Equal(t, true, body["success"])

	req = httptest.NewRequest(http.MethodPatch, "/testcases/g1/T1", strings.NewReader(`{"owner":"me"}`))
	req.Header.Set("Content-Type", "application/json")
	rec, body = do(r, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "empty_patch", body["code"])
}

func TestGetGeneratedNotFound(t *testing.T) {
	gen := &fakeGeneration{getErr: apierr.NotFound("generated_set_not_found", "generated set %s not found", "g1")}
	r := newTestRouter(&fakeRequirements{}, gen)

	rec, body := do(r, httptest.NewRequest(http.MethodGet, "/generated/g1", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "generated_set_not_found", body["code"])
}

func TestRegenerateRequirementAcceptsEmptyBody(t *testing.T) {
	gen := &fakeGeneration{regen: &services.RegenerateResult{GenID: "g1", Count: 3, RequirementID: "A", RequirementTitle: "Alpha"}}
	r := newTestRouter(&fakeRequirements{}, gen)

	rec, body := do(r, httptest.NewRequest(http.MethodPost, "/requirements/A/regenerate", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "g1", body["genId"])
	require.Equal(t, float64(3), body["count"])
	require.Equal(t, "Alpha", body["requirementTitle"])
}

func TestJiraMirrorResponse(t *testing.T) {
	r := newTestRouter(&fakeRequirements{}, &fakeGeneration{})

	rec, body := do(r, httptest.NewRequest(http.MethodPost, "/testcases/g1/T1/jira", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]any{"parent": "QA-1", "subtask": "QA-2"}, body["jira"])
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealthCheckReportsDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, tc := range []struct {
		pinger Pinger
		status int
	}{
		{nil, http.StatusOK},
		{fakePinger{}, http.StatusOK},
		{fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	} {
		r := gin.New()
		r.GET("/healthcheck", NewHealthHandler(tc.pinger).HealthCheck)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
		require.Equal(t, tc.status, rec.Code)
	}
}
