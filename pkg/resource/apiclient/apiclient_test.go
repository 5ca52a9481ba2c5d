package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vnykmshr/gobridge/internal/testutil"
	gberrors "github.com/vnykmshr/gobridge/pkg/common/errors"
	"github.com/vnykmshr/gobridge/pkg/dispatch"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/headers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("X-Token")))
	})
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Query().Get("q")))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T) *Client {
	t.Helper()

	srv := newTestServer(t)
	c, err := New(Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Close()
	})
	return c
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{})
	testutil.AssertErrorIs(t, err, gberrors.ErrInvalidConfiguration)

	_, err = New(Config{BaseURL: "://bad"})
	testutil.AssertErrorIs(t, err, gberrors.ErrInvalidConfiguration)
}

func TestGet(t *testing.T) {
	c := newTestClient(t)

	body, err := c.Get(context.Background(), "/ping")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(body), "pong")
}

func TestGetParityAcrossPaths(t *testing.T) {
	c := newTestClient(t)

	syncBody, err := c.Get(context.Background(), "/ping")
	testutil.AssertNoError(t, err)

	asyncBody, err := c.Get(dispatch.WithAsync(context.Background()), "/ping")
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, string(syncBody), string(asyncBody))
}

func TestPost(t *testing.T) {
	c := newTestClient(t)

	body, err := c.Post(context.Background(), "/echo", []byte("payload"))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(body), "payload")
}

func TestRequestOptions(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	body, err := c.Get(ctx, "/headers", WithHeader("X-Token", "secret"))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(body), "secret")

	body, err = c.Get(ctx, "/query", WithQuery("q", "needle"))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(body), "needle")
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Get(context.Background(), "/missing")
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, gberrors.IsResource(err), true)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	testutil.AssertEqual(t, se.Code, http.StatusNotFound)
}

func TestStatusErrorParityAcrossPaths(t *testing.T) {
	c := newTestClient(t)

	_, syncErr := c.Get(context.Background(), "/missing")
	_, asyncErr := c.Get(dispatch.WithAsync(context.Background()), "/missing")

	testutil.AssertError(t, syncErr)
	testutil.AssertError(t, asyncErr)
	testutil.AssertEqual(t, syncErr.Error(), asyncErr.Error())

	var se *StatusError
	testutil.AssertEqual(t, errors.As(asyncErr, &se), true)
	testutil.AssertEqual(t, se.Code, http.StatusNotFound)
}

func TestEmptyPathIsCallerError(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Get(context.Background(), "")
	testutil.AssertErrorIs(t, err, gberrors.ErrInvalidConfiguration)
}

func TestGetAsync(t *testing.T) {
	c := newTestClient(t)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	body, err := c.GetAsync(ctx, "/ping").Wait(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(body), "pong")

	_, err = c.GetAsync(ctx, "").Wait(ctx)
	testutil.AssertErrorIs(t, err, gberrors.ErrInvalidConfiguration)
}

func TestPostAsync(t *testing.T) {
	c := newTestClient(t)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	body, err := c.PostAsync(ctx, "/echo", []byte("async")).Wait(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(body), "async")
}

func TestNativeAsyncSession(t *testing.T) {
	srv := newTestServer(t)

	c, err := New(Config{
		BaseURL:         srv.URL,
		HTTPClient:      srv.Client(),
		AsyncHTTPClient: srv.Client(),
	})
	testutil.AssertNoError(t, err)
	defer func() { _ = c.Close() }()

	// Async callers use the native session; the pool stays idle.
	body, err := c.Get(dispatch.WithAsync(context.Background()), "/ping")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(body), "pong")
	testutil.AssertEqual(t, c.pool.Submitted(), int64(0))
}
