package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filevault/pkg/client"
)

func fastRetry() client.Option {
	return client.WithRetry(time.Millisecond, 0, 3)
}

func TestUploadRetriesOn429(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, fh, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		assert.Equal(t, "text/plain", fh.Header.Get("Content-Type"))

		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"message":"file uploaded","data":{"fileId":"01F","fileName":"tok-a.txt"}}`))
	}))
	defer srv.Close()

	c, err := client.New(srv.URL, fastRetry())
	require.NoError(t, err)

	res, err := c.Upload(context.Background(), "a.txt", []byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, "01F", res.FileID)
	assert.Equal(t, "tok-a.txt", res.FileName)
	assert.EqualValues(t, 3, calls.Load())
}

func TestRateLimitedAfterRetries(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := client.New(srv.URL, fastRetry())
	require.NoError(t, err)

	_, err = c.Upload(context.Background(), "a.txt", []byte("x"))
	require.ErrorIs(t, err, client.ErrRateLimited)
	assert.EqualValues(t, 4, calls.Load())
	assert.Equal(t, "too many requests, please wait a moment before uploading more files", client.Describe(err))
}

func TestRetryStopsWithContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := client.New(srv.URL, client.WithRetry(time.Hour, 0, 3))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = c.List(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"success":false,"message":"unhealthy","data":{"db":{"component":"db","status":"unhealthy"}}}`))
		case "/api/files":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"message":"session expired","code":"unauthorized"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"file not found","code":"not_found"}`))
		}
	}))

	c, err := client.New(srv.URL, fastRetry())
	require.NoError(t, err)

	ctx := context.Background()

	h, err := c.Health(ctx)
	require.ErrorIs(t, err, client.ErrUnhealthy)
	assert.Equal(t, "unhealthy", h.DB.Status)
	assert.Equal(t, client.FailureHealth, client.Classify(err))

	_, err = c.List(ctx)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "unauthorized", apiErr.Code)
	assert.Equal(t, client.FailureAuth, client.Classify(err))

	err = c.Delete(ctx, "missing")
	assert.Equal(t, client.FailureGeneric, client.Classify(err))
	assert.Equal(t, "file not found", client.Describe(err))

	srv.Close()

	_, err = c.List(ctx)
	assert.Equal(t, client.FailureHealth, client.Classify(err))

	messages := map[string]bool{}
	for _, class := range []client.Failure{client.FailureHealth, client.FailureAuth, client.FailureGeneric} {
		var e error

		switch class {
		case client.FailureHealth:
			e = client.ErrUnhealthy
		case client.FailureAuth:
			e = &client.APIError{Status: http.StatusUnauthorized}
		default:
			e = &client.APIError{Status: http.StatusInternalServerError, Message: "boom"}
		}

		messages[client.Describe(e)] = true
	}

	assert.Len(t, messages, 3)
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := client.New("localhost:8080")
	assert.Error(t, err)
}

func TestDetectMimeType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	assert.Equal(t, "text/plain", client.DetectMimeType("a.txt", []byte("hello")))
	assert.Equal(t, "application/pdf", client.DetectMimeType("doc.pdf", nil))
	assert.Equal(t, "image/png", client.DetectMimeType("no-extension", png))
}
