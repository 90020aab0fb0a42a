package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/yungbote/casegen-backend/internal/platform/envutil"
	"github.com/yungbote/casegen-backend/internal/platform/gcp"
	"github.com/yungbote/casegen-backend/internal/platform/httpx"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

var errTooLarge = errors.New("document exceeds byte limit")

// DocumentRef points at a stored document. StorageKey wins over FileURI.
type DocumentRef struct {
	Category   gcp.BucketCategory
	Name       string
	StorageKey string
	FileURI    string
	MimeType   string
}

// TextExtractService never fails: any fetch or parse problem yields "".
type TextExtractService interface {
	Extract(ctx context.Context, ref DocumentRef) string
}

type TextExtractConfig struct {
	Timeout  time.Duration
	MaxBytes int64
	MaxChars int
}

func TextExtractConfigFromEnv() TextExtractConfig {
	return TextExtractConfig{
		Timeout:  envutil.Seconds("EXTRACT_TIMEOUT_SECONDS", 30*time.Second),
		MaxBytes: envutil.Int64("EXTRACT_MAX_BYTES", 20<<20),
		MaxChars: envutil.Int("EXTRACT_MAX_CHARS", 60000),
	}
}

type textExtractService struct {
	log    *logger.Logger
	bucket gcp.BucketService
	doc    gcp.Document
	http   *http.Client
	html   *md.Converter
	cfg    TextExtractConfig
}

// NewTextExtractService accepts a nil bucket (URI download only) and a nil
// doc (binary formats then yield "").
func NewTextExtractService(log *logger.Logger, bucket gcp.BucketService, doc gcp.Document, cfg TextExtractConfig) TextExtractService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 20 << 20
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 60000
	}
	return &textExtractService{
		log:    log.With("service", "TextExtractService"),
		bucket: bucket,
		doc:    doc,
		http:   &http.Client{},
		html:   md.NewConverter("", true, nil),
		cfg:    cfg,
	}
}

func (s *textExtractService) Extract(ctx context.Context, ref DocumentRef) string {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	data, err := s.fetch(ctx, ref)
	if err != nil {
		s.log.Warn("document fetch failed", "name", ref.Name, "key", ref.StorageKey, "error", err)
		return ""
	}
	text, err := s.toText(ctx, ref, data)
	if err != nil {
		s.log.Warn("document text extraction failed", "name", ref.Name, "mime", ref.MimeType, "error", err)
		return ""
	}
	return truncateRunes(strings.TrimSpace(text), s.cfg.MaxChars)
}

func (s *textExtractService) fetch(ctx context.Context, ref DocumentRef) ([]byte, error) {
	var body io.ReadCloser
	switch {
	case s.bucket != nil && strings.TrimSpace(ref.StorageKey) != "":
		rc, err := s.bucket.DownloadFile(ctx, ref.Category, ref.StorageKey)
		if err != nil {
			return nil, err
		}
		body = rc
	case strings.HasPrefix(ref.FileURI, "http://") || strings.HasPrefix(ref.FileURI, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.FileURI, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_ = resp.Body.Close()
			return nil, &httpx.StatusError{Service: "document", StatusCode: resp.StatusCode, Body: string(snippet)}
		}
		body = resp.Body
	default:
		return nil, fmt.Errorf("no storage key or http uri for %q", ref.Name)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, s.cfg.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		return nil, errTooLarge
	}
	return data, nil
}

func (s *textExtractService) toText(ctx context.Context, ref DocumentRef, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	switch mt := mediaType(ref); {
	case mt == "text/html" || mt == "application/xhtml+xml":
		return s.html.ConvertString(strings.ToValidUTF8(string(data), ""))
	case strings.HasPrefix(mt, "text/") || mt == "application/json":
		return strings.ToValidUTF8(string(data), ""), nil
	case s.doc != nil:
		return s.doc.ExtractText(ctx, data, mt)
	default:
		return "", fmt.Errorf("no extractor for %s", mt)
	}
}

// mediaType prefers the recorded mime type and falls back to the extension.
func mediaType(ref DocumentRef) string {
	if mt, _, err := mime.ParseMediaType(ref.MimeType); err == nil && mt != "application/octet-stream" {
		return strings.ToLower(mt)
	}
	name := ref.Name
	if name == "" {
		name = ref.StorageKey
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".markdown", ".csv":
		return "text/plain"
	case ".html", ".htm":
		return "text/html"
	case ".json":
		return "application/json"
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
