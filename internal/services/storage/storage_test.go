package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/phambaophuc/rewind-photos/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Upsert      string
	Cache       string
	Auth        string
	Body        []byte
}

func newSupabaseServer(t *testing.T, uploadStatus int) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			Upsert:      r.Header.Get("x-upsert"),
			Cache:       r.Header.Get("cache-control"),
			Auth:        r.Header.Get("Authorization"),
			Body:        body,
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/storage/v1/object/list/"):
			_, _ = w.Write([]byte(`[]`))
		case r.Method == http.MethodPost:
			w.WriteHeader(uploadStatus)
			if uploadStatus >= 400 {
				_, _ = w.Write([]byte(`{"statusCode":"409","error":"Duplicate","message":"The resource already exists"}`))
				return
			}
			_, _ = w.Write([]byte(`{"Key":"rewind-photos` + strings.TrimPrefix(r.URL.Path, "/storage/v1/object/rewind-photos") + `"}`))
		case r.Method == http.MethodDelete:
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestSupabaseStore(srv *httptest.Server) *SupabaseStore {
	return NewSupabaseStore(config.SupabaseConfig{URL: srv.URL, ServiceKey: "service-key"}, "rewind-photos", zap.NewNop())
}

func TestSupabaseUpload(t *testing.T) {
	srv, requests := newSupabaseServer(t, http.StatusOK)
	store := newTestSupabaseStore(srv)

	url, err := store.Upload(context.Background(), []byte("jpeg-bytes"), "photos/user-1_1700000000000.jpg", ContentTypeJPEG)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/public/rewind-photos/photos/user-1_1700000000000.jpg", url)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/storage/v1/object/rewind-photos/photos/user-1_1700000000000.jpg", req.Path)
	assert.Equal(t, "image/jpeg", req.ContentType)
	assert.Equal(t, "false", req.Upsert)
	assert.Equal(t, "3600", req.Cache)
	assert.Equal(t, "Bearer service-key", req.Auth)
	assert.Equal(t, []byte("jpeg-bytes"), req.Body)
}

func TestSupabaseUploadFailure(t *testing.T) {
	srv, _ := newSupabaseServer(t, http.StatusConflict)
	store := newTestSupabaseStore(srv)

	_, err := store.Upload(context.Background(), []byte("x"), "photos/a.jpg", ContentTypeJPEG)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Contains(t, err.Error(), "already exists")
}

func TestSupabaseDeleteUsesJSONClient(t *testing.T) {
	srv, requests := newSupabaseServer(t, http.StatusOK)
	store := newTestSupabaseStore(srv)

	_, err := store.Upload(context.Background(), []byte("x"), "photos/a.jpg", ContentTypeJPEG)
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), "photos/a.jpg"))

	require.Len(t, *requests, 2)
	del := (*requests)[1]
	assert.Equal(t, http.MethodDelete, del.Method)
	assert.Equal(t, "/storage/v1/object/rewind-photos", del.Path)
	assert.Equal(t, "application/json", del.ContentType)

	var body struct {
		Prefixes []string `json:"prefixes"`
	}
	require.NoError(t, json.Unmarshal(del.Body, &body))
	assert.Equal(t, []string{"photos/a.jpg"}, body.Prefixes)
}

func TestSupabaseHealthCheck(t *testing.T) {
	srv, requests := newSupabaseServer(t, http.StatusOK)
	store := newTestSupabaseStore(srv)

	require.NoError(t, store.HealthCheck(context.Background()))
	assert.Equal(t, "healthy", Status(context.Background(), store))
	assert.Equal(t, "/storage/v1/object/list/rewind-photos", (*requests)[0].Path)
}

func TestSupabaseUploadCancelled(t *testing.T) {
	srv, requests := newSupabaseServer(t, http.StatusOK)
	store := newTestSupabaseStore(srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Upload(ctx, []byte("x"), "photos/a.jpg", ContentTypeJPEG)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *requests)
}

type fakeStore struct {
	mu       sync.Mutex
	failPath string
	uploaded map[string][]byte
	deleted  []string
}

func newFakeStore(failPath string) *fakeStore {
	return &fakeStore{failPath: failPath, uploaded: map[string][]byte{}}
}

func (f *fakeStore) Upload(_ context.Context, data []byte, path, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if path == f.failPath {
		return "", errors.New("disk full")
	}
	f.uploaded[path] = data
	return "https://cdn.example/" + path, nil
}

func (f *fakeStore) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeStore) HealthCheck(context.Context) error { return nil }
func (f *fakeStore) Name() string                      { return "fake" }

func TestUploadMultiple(t *testing.T) {
	store := newFakeStore("")
	objects := []Object{
		{Path: "photos/a.jpg", Data: []byte("main"), ContentType: ContentTypeJPEG},
		{Path: "thumbnails/a_thumb.jpg", Data: []byte("thumb"), ContentType: ContentTypeJPEG},
	}

	urls, err := UploadMultiple(context.Background(), store, objects, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example/photos/a.jpg", "https://cdn.example/thumbnails/a_thumb.jpg"}, urls)
	assert.Empty(t, store.deleted)
}

func TestUploadMultipleRollsBackOnFailure(t *testing.T) {
	store := newFakeStore("thumbnails/a_thumb.jpg")
	objects := []Object{
		{Path: "photos/a.jpg", Data: []byte("main"), ContentType: ContentTypeJPEG},
		{Path: "thumbnails/a_thumb.jpg", Data: []byte("thumb"), ContentType: ContentTypeJPEG},
		{Path: "photos/b.jpg", Data: []byte("other"), ContentType: ContentTypeJPEG},
	}

	_, err := UploadMultiple(context.Background(), store, objects, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	sort.Strings(store.deleted)
	assert.Equal(t, []string{"photos/a.jpg", "photos/b.jpg"}, store.deleted)
}

func TestNewObjectStore(t *testing.T) {
	cfg := &config.Config{
		Storage:  config.StorageConfig{Backend: "supabase", Bucket: "rewind-photos"},
		Supabase: config.SupabaseConfig{URL: "https://example.supabase.co", ServiceKey: "k"},
	}
	store, err := NewObjectStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "supabase", store.Name())

	cfg.Storage.Backend = "ftp"
	_, err = NewObjectStore(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestMinioObjectURL(t *testing.T) {
	store, err := NewMinioStore(config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}, "rewind-photos", zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "minio", store.Name())
	assert.Equal(t, "http://localhost:9000/rewind-photos/photos/a.jpg", store.ObjectURL("photos/a.jpg"))
}
