package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/filevault/pkg/api"
	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/storage"
	"github.com/yeisme/filevault/pkg/internal/storage/blob"
	dbc "github.com/yeisme/filevault/pkg/internal/storage/db"
	kvc "github.com/yeisme/filevault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/filevault/pkg/internal/storage/mq"
	"github.com/yeisme/filevault/pkg/internal/types"
)

type testServer struct {
	*httptest.Server
	dir string
	db  *gorm.DB
}

func newTestServer(t *testing.T, mutate func(*configs.AppConfig)) *testServer {
	t.Helper()

	cfg := configs.Default()
	cfg.Auth.Secret = "test-secret-value"
	cfg.Auth.BcryptCost = 4
	cfg.Blob.FS.Dir = filepath.Join(t.TempDir(), "uploads", "files")

	if mutate != nil {
		mutate(&cfg)
	}

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(model.All()...))

	mem, err := kvc.NewMemoryKV(context.Background(), &cfg.KV)
	require.NoError(t, err)

	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})

	mgr := storage.NewManager(
		&dbc.Client{DB: gdb},
		blob.NewFSStore(cfg.Blob.FS.Dir),
		&kvc.Client{KVStore: mem, Type: configs.KVTypeMemory},
		mqc.NewFromPubSub(configs.MQTypeGoChannel, pubsub, pubsub),
	)
	t.Cleanup(func() { _ = mgr.Close() })

	engine := api.NewEngine(api.Options{
		Config:   &cfg,
		Storage:  mgr,
		Services: api.NewServices(&cfg, mgr, nil),
	})

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, dir: cfg.Blob.FS.Dir, db: gdb}
}

func (s *testServer) client(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, c *http.Client, url string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := c.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))

	return v
}

// loggedIn signs up and logs in username, returning a client holding the
// session cookie.
func (s *testServer) loggedIn(t *testing.T, username string) *http.Client {
	t.Helper()

	c := s.client(t)

	resp := postJSON(t, c, s.URL+"/api/auth/signup", types.SignupRequest{
		FullName: "Test User", Username: username, Password: "secret1",
		ConfirmPassword: "secret1", Gender: "female",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, c, s.URL+"/api/auth/login", types.LoginRequest{Username: username, Password: "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	return c
}

func upload(t *testing.T, c *http.Client, url, name, contentType string, data []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer

	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, name))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	require.NoError(t, err)

	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, err := c.Post(url+"/api/files/upload", w.FormDataContentType(), &body)
	require.NoError(t, err)

	return resp
}

func do(t *testing.T, c *http.Client, method, url string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)

	return resp
}

func TestUploadListDownloadDelete(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.loggedIn(t, "alice")

	content := []byte("0123456789")

	resp := upload(t, c, s.URL, "a.txt", "text/plain", content)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	up := decode[types.Response[types.UploadResult]](t, resp)
	assert.True(t, up.Success)
	require.NotEmpty(t, up.Data.FileID)
	assert.Contains(t, up.Data.FileName, "a.txt")

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	resp = do(t, c, http.MethodGet, s.URL+"/api/files")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := decode[types.Response[[]types.FileSummary]](t, resp)
	assert.Equal(t, "files retrieved", list.Message)
	require.Len(t, list.Data, 1)
	assert.Equal(t, up.Data.FileID, list.Data[0].ID)
	assert.Equal(t, "a.txt", list.Data[0].OriginalName)
	assert.Equal(t, "text/plain", list.Data[0].MimeType)
	assert.EqualValues(t, 10, list.Data[0].Size)

	resp = do(t, c, http.MethodGet, s.URL+"/api/files/"+up.Data.FileID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment; filename=a.txt", resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "10", resp.Header.Get("Content-Length"))

	got, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, content, got)

	resp = do(t, c, http.MethodDelete, s.URL+"/api/files/"+up.Data.FileID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "file deleted", decode[types.Response[any]](t, resp).Message)

	entries, err = os.ReadDir(s.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	resp = do(t, c, http.MethodDelete, s.URL+"/api/files/"+up.Data.FileID)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, types.CodeNotFound, decode[types.ErrorResponse](t, resp).Code)
}

func TestUploadRejections(t *testing.T) {
	s := newTestServer(t, func(cfg *configs.AppConfig) {
		cfg.Files.MaxUploadBytes = 64
	})
	c := s.loggedIn(t, "bob")

	cases := []struct {
		name, file, contentType string
		data                    []byte
		msg                     string
	}{
		{"disallowed type", "a.zip", "application/zip", []byte("PK"), "unsupported type"},
		{"empty file", "a.txt", "text/plain", nil, "no file"},
		{"too large", "big.txt", "text/plain", bytes.Repeat([]byte("x"), 65), "file too large"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := upload(t, c, s.URL, tc.file, tc.contentType, tc.data)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			body := decode[types.ErrorResponse](t, resp)
			assert.False(t, body.Success)
			assert.Equal(t, types.CodeValidation, body.Code)
			assert.Equal(t, tc.msg, body.Message)
		})
	}

	var count int64
	require.NoError(t, s.db.Model(&model.File{}).Count(&count).Error)
	assert.Zero(t, count)

	_, err := os.Stat(s.dir)
	if err == nil {
		entries, err := os.ReadDir(s.dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	}
}

func TestUploadWithoutFileField(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.loggedIn(t, "carol")

	var body bytes.Buffer

	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("other", "value"))
	require.NoError(t, w.Close())

	resp, err := c.Post(s.URL+"/api/files/upload", w.FormDataContentType(), &body)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "no file", decode[types.ErrorResponse](t, resp).Message)
}

func TestRoutesRequireSession(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/files"},
		{http.MethodGet, "/api/files/01ABC"},
		{http.MethodDelete, "/api/files/01ABC"},
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/scheduler/jobs"},
	} {
		resp := do(t, c, r.method, s.URL+r.path)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, r.path)
		assert.Equal(t, types.CodeUnauthorized, decode[types.ErrorResponse](t, resp).Code)
	}
}

func TestOwnerIsolationAndMissingFile(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.loggedIn(t, "alice")
	mallory := s.loggedIn(t, "mallory")

	resp := upload(t, alice, s.URL, "secret.txt", "text/plain", []byte("alice only"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decode[types.Response[types.UploadResult]](t, resp).Data.FileID

	resp = do(t, mallory, http.MethodGet, s.URL+"/api/files/"+id)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, mallory, http.MethodDelete, s.URL+"/api/files/"+id)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, mallory, http.MethodGet, s.URL+"/api/files")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[types.Response[[]types.FileSummary]](t, resp).Data)

	resp = do(t, alice, http.MethodGet, s.URL+"/api/files/does-not-exist")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestSameNameTwiceKeepsBoth(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.loggedIn(t, "dave")

	var names []string

	for range 2 {
		resp := upload(t, c, s.URL, "same.txt", "text/plain", []byte("same"))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		names = append(names, decode[types.Response[types.UploadResult]](t, resp).Data.FileName)
	}

	assert.NotEqual(t, names[0], names[1])

	resp := do(t, c, http.MethodGet, s.URL+"/api/files")
	list := decode[types.Response[[]types.FileSummary]](t, resp)
	require.Len(t, list.Data, 2)
	assert.GreaterOrEqual(t, list.Data[0].UploadedAt, list.Data[1].UploadedAt)
}

func TestListAfterCacheTTL(t *testing.T) {
	s := newTestServer(t, func(cfg *configs.AppConfig) {
		cfg.Files.ListCacheTTL = 50 * time.Millisecond
	})
	c := s.loggedIn(t, "erin")

	resp := upload(t, c, s.URL, "a.txt", "text/plain", []byte("a"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	for range 2 {
		resp = do(t, c, http.MethodGet, s.URL+"/api/files")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[types.Response[[]types.FileSummary]](t, resp).Data, 1)

		time.Sleep(100 * time.Millisecond)
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	resp := postJSON(t, c, s.URL+"/api/auth/signup", map[string]string{
		"fullName": "Eve", "username": "eve", "password": "secret1", "confirmPassword": "other", "gender": "female",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, types.CodeValidation, decode[types.ErrorResponse](t, resp).Code)

	c = s.loggedIn(t, "eve")

	resp = postJSON(t, s.client(t), s.URL+"/api/auth/signup", types.SignupRequest{
		FullName: "Eve", Username: "eve", Password: "secret1", ConfirmPassword: "secret1", Gender: "female",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, s.client(t), s.URL+"/api/auth/login", types.LoginRequest{Username: "eve", Password: "wrong-pass"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, c, http.MethodGet, s.URL+"/api/auth/me")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[types.Response[model.User]](t, resp)
	assert.Equal(t, "eve", me.Data.Username)

	resp = do(t, c, http.MethodPost, s.URL+"/api/auth/logout")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, c, http.MethodGet, s.URL+"/api/auth/me")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestBearerTokenIsRevokedOnLogout(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.loggedIn(t, "frank")

	resp := postJSON(t, s.client(t), s.URL+"/api/auth/login", types.LoginRequest{Username: "frank", Password: "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var token string

	for _, ck := range resp.Cookies() {
		if ck.Name == configs.DefaultAuthCookieName {
			token = "Bearer " + ck.Value
		}
	}

	require.NotEmpty(t, token)

	bearer := func() int {
		req, err := http.NewRequest(http.MethodGet, s.URL+"/api/auth/me", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, bearer())

	req, err := http.NewRequest(http.MethodPost, s.URL+"/api/auth/logout", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", token)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, bearer())

	// The cookie session of the first login is unaffected.
	resp = do(t, c, http.MethodGet, s.URL+"/api/auth/me")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(cfg *configs.AppConfig) {
		cfg.RateLimit = configs.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1, Key: "global"}
	})
	c := s.client(t)

	resp := do(t, c, http.MethodGet, s.URL+"/health/mq")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, c, http.MethodGet, s.URL+"/health/mq")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Equal(t, types.CodeRateLimited, decode[types.ErrorResponse](t, resp).Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	c := s.client(t)

	resp := do(t, c, http.MethodGet, s.URL+"/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	h := decode[types.Response[types.Health]](t, resp)
	assert.True(t, h.Success)
	assert.True(t, h.Data.Healthy())

	for _, component := range []string{"db", "blob", "kv", "mq"} {
		resp := do(t, c, http.MethodGet, s.URL+"/health/"+component)
		assert.Equal(t, http.StatusOK, resp.StatusCode, component)
		assert.Equal(t, component, decode[types.Response[types.ComponentHealth]](t, resp).Data.Component)
	}
}

func TestHealthReportsBrokenBlobStore(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := newTestServer(t, func(cfg *configs.AppConfig) {
		cfg.Blob.FS.Dir = filepath.Join(blocker, "files")
	})

	resp := do(t, s.client(t), http.MethodGet, s.URL+"/health/blob")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, types.StatusUnhealthy, decode[types.Response[types.ComponentHealth]](t, resp).Data.Status)

	resp = do(t, s.client(t), http.MethodGet, s.URL+"/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, nil)

	resp := do(t, s.client(t), http.MethodGet, s.URL+"/nope")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, types.CodeNotFound, decode[types.ErrorResponse](t, resp).Code)
}
