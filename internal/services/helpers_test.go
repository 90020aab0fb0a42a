package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/casegen-backend/internal/data/repos"
	"github.com/yungbote/casegen-backend/internal/data/repos/testutil"
	types "github.com/yungbote/casegen-backend/internal/domain"
	"github.com/yungbote/casegen-backend/internal/platform/audit"
	"github.com/yungbote/casegen-backend/internal/platform/dbctx"
	"github.com/yungbote/casegen-backend/internal/platform/gcp"
	"github.com/yungbote/casegen-backend/internal/platform/llm"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
	"github.com/yungbote/casegen-backend/internal/testgen"
)

type fakeExtractor struct {
	texts map[string]string
}

func (f *fakeExtractor) Extract(_ context.Context, ref DocumentRef) string {
	return f.texts[ref.Name]
}

// scriptedModel replays responses in order and records every prompt.
type scriptedModel struct {
	mu        sync.Mutex
	responses []string
	calls     [][]llm.Part
}

func (m *scriptedModel) Generate(_ context.Context, parts []llm.Part) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := len(m.calls)
	m.calls = append(m.calls, parts)
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return "", fmt.Errorf("no scripted response for call %d", i+1)
}

func (m *scriptedModel) script(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

type memBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemBucket() *memBucket { return &memBucket{objects: map[string][]byte{}} }

func (b *memBucket) UploadFile(_ dbctx.Context, category gcp.BucketCategory, key, contentType string, file io.Reader) (gcp.StoredObject, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return gcp.StoredObject{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return gcp.StoredObject{
		Bucket:      string(category),
		Key:         key,
		URI:         b.GetPublicURL(category, key),
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

func (b *memBucket) DownloadFile(_ context.Context, _ gcp.BucketCategory, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBucket) DeleteFile(_ dbctx.Context, _ gcp.BucketCategory, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *memBucket) GetPublicURL(category gcp.BucketCategory, key string) string {
	return "https://cdn.test/" + string(category) + "/" + key
}

type testEnv struct {
	db        *gorm.DB
	log       *logger.Logger
	model     *scriptedModel
	extractor *fakeExtractor
	auditDir  string
	reqs      repos.RequirementRepo
	standards repos.StandardRepo
	sets      repos.GeneratedSetRepo
	gen       GenerationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	env := &testEnv{
		db:        db,
		log:       log,
		model:     &scriptedModel{},
		extractor: &fakeExtractor{texts: map[string]string{}},
		auditDir:  t.TempDir(),
		reqs:      repos.NewRequirementRepo(db, log),
		standards: repos.NewStandardRepo(db, log),
		sets:      repos.NewGeneratedSetRepo(db, log),
	}
	sink, err := audit.NewFileSink(env.auditDir)
	if err != nil {
		t.Fatalf("audit sink: %v", err)
	}
	composer := testgen.NewComposer(testgen.DefaultTemplates(), false)
	engine := testgen.NewEngine(log, env.model, composer, sink)
	env.gen = NewGenerationService(log, env.reqs, env.standards, env.sets, env.extractor, composer, engine)
	return env
}

func (e *testEnv) seedRequirement(t *testing.T, userID, reqID, text string) *types.Requirement {
	t.Helper()
	name := reqID + ".txt"
	row, err := e.reqs.Upsert(dbctx.Background(), &types.Requirement{
		UserID:     userID,
		ReqID:      reqID,
		Title:      "Title of " + reqID,
		FileName:   name,
		MimeType:   "text/plain",
		StorageKey: "requirements/" + name,
	})
	if err != nil {
		t.Fatalf("seed requirement: %v", err)
	}
	e.extractor.texts[name] = text
	return row
}

func (e *testEnv) seedStandard(t *testing.T, userID, name, text string) {
	t.Helper()
	if _, err := e.standards.Upsert(dbctx.Background(), &types.Standard{
		UserID:     userID,
		Name:       name,
		MimeType:   "text/plain",
		StorageKey: "standards/" + name,
	}); err != nil {
		t.Fatalf("seed standard: %v", err)
	}
	e.extractor.texts[name] = text
}

func partTexts(parts []llm.Part) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.Text)
	}
	return out
}
