package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/casegen-backend/internal/platform/dbctx"
	"github.com/yungbote/casegen-backend/internal/platform/gcp"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

type fakeDocument struct {
	text string
	err  error
	mime string
}

func (d *fakeDocument) ExtractText(_ context.Context, _ []byte, mimeType string) (string, error) {
	d.mime = mimeType
	return d.text, d.err
}

func (d *fakeDocument) Close() error { return nil }

func documentServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/plain.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("  The system shall lock accounts.  "))
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><h1>Login</h1><p>Users <b>must</b> log in.</p></body></html>"))
	})
	mux.HandleFunc("/big.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	})
	mux.HandleFunc("/slow.txt", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	mux.HandleFunc("/doc.pdf", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.7 binary"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestExtractFromURI(t *testing.T) {
	srv := documentServer(t)
	doc := &fakeDocument{text: "pdf text"}
	svc := NewTextExtractService(logger.Nop(), nil, doc, TextExtractConfig{Timeout: 200 * time.Millisecond, MaxBytes: 1024, MaxChars: 10})
	ctx := context.Background()

	require.Equal(t, "The system", svc.Extract(ctx, DocumentRef{Name: "plain.txt", FileURI: srv.URL + "/plain.txt"}))

	html := NewTextExtractService(logger.Nop(), nil, nil, TextExtractConfig{MaxBytes: 1024})
	got := html.Extract(ctx, DocumentRef{Name: "page.html", FileURI: srv.URL + "/page.html", MimeType: "text/html; charset=utf-8"})
	require.Contains(t, got, "# Login")
	require.Contains(t, got, "Users **must** log in.")

	require.Equal(t, "pdf text", svc.Extract(ctx, DocumentRef{Name: "doc.pdf", FileURI: srv.URL + "/doc.pdf"}))
	require.Equal(t, "application/pdf", doc.mime)
}

func TestExtractDegradesToEmpty(t *testing.T) {
	srv := documentServer(t)
	svc := NewTextExtractService(logger.Nop(), nil, nil, TextExtractConfig{Timeout: 200 * time.Millisecond, MaxBytes: 1024})
	ctx := context.Background()

	cases := map[string]DocumentRef{
		"too large":    {Name: "big.txt", FileURI: srv.URL + "/big.txt"},
		"not found":    {Name: "missing.txt", FileURI: srv.URL + "/missing.txt"},
		"timeout":      {Name: "slow.txt", FileURI: srv.URL + "/slow.txt"},
		"no extractor": {Name: "doc.pdf", FileURI: srv.URL + "/doc.pdf"},
		"no location":  {Name: "orphan.txt"},
		"non http uri": {Name: "x.txt", FileURI: "gs://bucket/x.txt"},
	}
	for name, ref := range cases {
		require.Equal(t, "", svc.Extract(ctx, ref), name)
	}

	failing := NewTextExtractService(logger.Nop(), nil, &fakeDocument{err: errors.New("quota")}, TextExtractConfig{})
	require.Equal(t, "", failing.Extract(ctx, DocumentRef{Name: "doc.pdf", FileURI: srv.URL + "/doc.pdf"}))
}

func TestExtractPrefersStorageKey(t *testing.T) {
	bucket := newMemBucket()
	_, err := bucket.UploadFile(dbctx.Background(), gcp.BucketCategoryStandard, "standards/iso.md", "text/markdown", strings.NewReader("ISO text"))
	require.NoError(t, err)
	svc := NewTextExtractService(logger.Nop(), bucket, nil, TextExtractConfig{})

	got := svc.Extract(context.Background(), DocumentRef{
		Category:   gcp.BucketCategoryStandard,
		Name:       "iso.md",
		StorageKey: "standards/iso.md",
		FileURI:    "http://127.0.0.1:1/unreachable",
	})

	require.Equal(t, "ISO text", got)
}

func TestTruncateRunes(t *testing.T) {
	require.Equal(t, "héllo", truncateRunes("héllo wörld", 5))
	require.Equal(t, "short", truncateRunes("short", 10))
}
