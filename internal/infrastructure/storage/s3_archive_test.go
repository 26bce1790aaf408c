package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	buckets map[string]bool
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	f := &fakeS3{objects: map[string][]byte{}, buckets: map[string]bool{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		path := strings.TrimPrefix(r.URL.Path, "/")
		bucket, key, _ := strings.Cut(path, "/")
		switch {
		case key == "" && r.Method == http.MethodHead:
			if !f.buckets[bucket] {
				w.WriteHeader(http.StatusNotFound)
			}
		case key == "" && r.Method == http.MethodPut:
			f.buckets[bucket] = true
		case r.Method == http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.objects[path] = body
			w.Header().Set("ETag", `"etag"`)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func newTestArchive(t *testing.T, endpoint, prefix string) *S3PayloadArchive {
	t.Helper()
	clock := func() time.Time { return time.Date(2026, 5, 1, 9, 30, 0, 42, time.UTC) }
	a, err := NewS3PayloadArchive(context.Background(), ArchiveConfig{
		Endpoint:     endpoint,
		Bucket:       "payloads",
		AccessKey:    "key",
		SecretKey:    "secret",
		UsePathStyle: true,
		Prefix:       prefix,
	}, WithClock(clock))
	require.NoError(t, err)
	return a
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNewS3PayloadArchive_Validation(t *testing.T) {
	_, err := NewS3PayloadArchive(context.Background(), ArchiveConfig{})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewS3PayloadArchive(context.Background(), ArchiveConfig{Bucket: "b", AccessKey: "k"})
	assert.ErrorContains(t, err, "must be set together")
}

func TestWithScheme(t *testing.T) {
	assert.Equal(t, "http://minio:9000", withScheme("http://minio:9000"))
	assert.Equal(t, "https://s3.example.com", withScheme("s3.example.com"))
}

// ---------------------------------------------------------------------------
// Keys
// ---------------------------------------------------------------------------

func TestObjectKey(t *testing.T) {
	at := time.Date(2026, 5, 1, 9, 30, 0, 42, time.UTC)

	a := &S3PayloadArchive{prefix: "orders"}
	assert.Equal(t, "orders/R1001/20260501T093000.000000042Z.json", a.ObjectKey("R1001", at))
	assert.Equal(t, "orders/_R_10_01/20260501T093000.000000042Z.json", a.ObjectKey("#R/10 01", at))

	bare := &S3PayloadArchive{}
	assert.Equal(t, "R1001/20260501T093000.000000042Z.json", bare.ObjectKey("R1001", at))
}

// ---------------------------------------------------------------------------
// Store / EnsureBucket
// ---------------------------------------------------------------------------

func TestS3PayloadArchive_Store(t *testing.T) {
	fake, srv := newFakeS3(t)
	a := newTestArchive(t, srv.URL, "/orders/")

	key, err := a.Store(context.Background(), "R1001", []byte(`{"number":"R1001"}`))
	require.NoError(t, err)
	assert.Equal(t, "orders/R1001/20260501T093000.000000042Z.json", key)
	assert.Contains(t, string(fake.objects["payloads/"+key]), `"number":"R1001"`)

	_, err = a.Store(context.Background(), "", []byte(`{}`))
	assert.Error(t, err)
}

func TestS3PayloadArchive_EnsureBucket(t *testing.T) {
	fake, srv := newFakeS3(t)
	a := newTestArchive(t, srv.URL, "")

	require.NoError(t, a.EnsureBucket(context.Background()))
	assert.True(t, fake.buckets["payloads"])
	require.NoError(t, a.EnsureBucket(context.Background()))
	assert.Equal(t, "payloads", a.Bucket())
}

func TestNoopArchive(t *testing.T) {
	key, err := NoopArchive{}.Store(context.Background(), "R1", []byte("{}"))
	require.NoError(t, err)
	assert.Empty(t, key)
}
