package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/casegen-backend/internal/platform/apierr"
)

func TestRequirementUploadDerivesIDAndReplacesFile(t *testing.T) {
	env := newTestEnv(t)
	bucket := newMemBucket()
	svc := NewRequirementService(env.log, bucket, env.reqs, 1024)
	ctx := context.Background()

	first, err := svc.Upload(ctx, "u1", UploadInput{FileName: "Login Flow (v2).txt", Body: strings.NewReader("v1")})
	require.NoError(t, err)
	require.Equal(t, "Login-Flow-v2", first.ReqID)
	require.Equal(t, "Login Flow (v2)", first.Title)
	require.Equal(t, "text/plain", first.MimeType)
	require.True(t, strings.HasPrefix(first.FileURI, "https://cdn.test/requirement/requirements/u1/"))

	second, err := svc.Upload(ctx, "u1", UploadInput{FileName: "Login Flow (v2).txt", Body: strings.NewReader("v2")})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.NotEqual(t, first.StorageKey, second.StorageKey)
	require.Equal(t, []string{first.StorageKey}, bucket.deleted)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRequirementUploadLimits(t *testing.T) {
	env := newTestEnv(t)
	bucket := newMemBucket()
	svc := NewRequirementService(env.log, bucket, env.reqs, 8)
	ctx := context.Background()

	cases := map[string]UploadInput{
		"declared size": {FileName: "a.txt", Size: 9, Body: strings.NewReader("x")},
		"actual size":   {FileName: "a.txt", Body: strings.NewReader("123456789")},
		"empty file":    {FileName: "a.txt", Body: strings.NewReader("")},
		"missing name":  {FileName: "  ", Body: strings.NewReader("x")},
		"missing body":  {FileName: "a.txt"},
	}
	for name, in := range cases {
		_, err := svc.Upload(ctx, "u1", in)
		status, _ := apierr.StatusOf(err)
		require.Equal(t, http.StatusBadRequest, status, name)
	}
	require.Empty(t, bucket.objects)
}

func TestStandardUploadKeepsFileName(t *testing.T) {
	env := newTestEnv(t)
	svc := NewStandardService(env.log, newMemBucket(), env.standards, 0)

	row, err := svc.Upload(context.Background(), "u1", UploadInput{FileName: "ISO 29119.pdf", ContentType: "application/pdf", Body: strings.NewReader("%PDF-1.4")})

	require.NoError(t, err)
	require.Equal(t, "ISO 29119.pdf", row.Name)
	require.Equal(t, "application/pdf", row.MimeType)

	_, err = NewStandardService(env.log, nil, env.standards, 0).Upload(context.Background(), "u1", UploadInput{FileName: "x.txt", Body: strings.NewReader("x")})
	status, code := apierr.StatusOf(err)
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "storage_not_configured", code)
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "REQ-12_login.v2", slugify(" REQ 12_login.v2 "))
	require.Equal(t, "requirement", slugify("***"))
}
