package gateway_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-cowork-client/gateway"
	cerrors "github.com/jrsteele09/go-cowork-client/internal/errors"
	"github.com/jrsteele09/go-cowork-client/session"
	fakesessionrepo "github.com/jrsteele09/go-cowork-client/session/repofake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// testFixture holds a gateway wired to a test server
type testFixture struct {
	server *httptest.Server
	store  *session.Store
	client *gateway.Client
}

func setupTestFixture(t *testing.T, handler http.HandlerFunc, options ...gateway.Option) *testFixture {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := session.NewStore(fakesessionrepo.NewFakeRepo(), session.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	options = append([]gateway.Option{gateway.WithLogger(zerolog.Nop())}, options...)
	client, err := gateway.New(server.URL+"/api", store, options...)
	require.NoError(t, err)

	return &testFixture{server: server, store: store, client: client}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNew_Validation(t *testing.T) {
	store, err := session.NewStore(fakesessionrepo.NewFakeRepo())
	require.NoError(t, err)

	_, err = gateway.New("", store)
	require.ErrorIs(t, err, cerrors.ErrMissingBaseURL)
	_, err = gateway.New("ftp://example.com", store)
	require.ErrorIs(t, err, cerrors.ErrInvalidBaseURL)
	_, err = gateway.New("http://", store)
	require.ErrorIs(t, err, cerrors.ErrInvalidBaseURL)
	_, err = gateway.New("http://example.com", nil)
	require.Error(t, err)

	c, err := gateway.New("https://example.com/api/", store)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/api", c.BaseURL())
	require.Equal(t, 20*time.Second, c.Timeout())
}

func TestHeaders(t *testing.T) {
	var (
		lock    sync.Mutex
		headers http.Header
		path    string
	)
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		lock.Lock()
		headers = r.Header.Clone()
		path = r.URL.RequestURI()
		lock.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	last := func() (http.Header, string) {
		lock.Lock()
		defer lock.Unlock()
		return headers, path
	}

	t.Run("bearer attached when token present", func(t *testing.T) {
		f.store.SetToken("abc")
		_, err := f.client.Get(context.Background(), "/rooms", nil)
		require.NoError(t, err)
		h, p := last()
		require.Equal(t, "Bearer abc", h.Get("Authorization"))
		require.Equal(t, "application/json", h.Get("Accept"))
		require.Equal(t, "application/json", h.Get("Content-Type"))
		require.Equal(t, "/api/rooms", p)
	})

	t.Run("no auth never attaches token", func(t *testing.T) {
		f.store.SetToken("abc")
		_, err := f.client.Post(context.Background(), "auth/login", map[string]string{"email": "a@b.com"}, gateway.NoAuth())
		require.NoError(t, err)
		h, _ := last()
		require.Empty(t, h.Get("Authorization"))
	})

	t.Run("no token no header", func(t *testing.T) {
		f.store.RemoveToken()
		_, err := f.client.Get(context.Background(), "/rooms", nil)
		require.NoError(t, err)
		h, _ := last()
		require.Empty(t, h.Get("Authorization"))
	})

	t.Run("query and extra headers", func(t *testing.T) {
		_, err := f.client.Get(context.Background(), "/rooms/available", url.Values{"date": {"2026-10-17"}, "capacity": {"4"}},
			gateway.WithHeader("X-Device", "phone"))
		require.NoError(t, err)
		h, p := last()
		require.Equal(t, "phone", h.Get("X-Device"))
		require.Equal(t, "/api/rooms/available?capacity=4&date=2026-10-17", p)
	})
}

func TestUnauthorized(t *testing.T) {
	unauthorized := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthenticated."})
	}

	t.Run("clears token and calls handler once", func(t *testing.T) {
		var calls int32
		f := setupTestFixture(t, unauthorized)
		f.client.RegisterLogoutHandler(func() { atomic.AddInt32(&calls, 1) })
		f.store.SetToken("abc")

		resp, err := f.client.Get(context.Background(), "/profile", nil)
		require.Nil(t, resp)
		require.ErrorIs(t, err, gateway.ErrUnauthorized)
		require.Equal(t, http.StatusUnauthorized, gateway.StatusCode(err))
		require.Equal(t, "Your session has expired. Please log in again.", err.Error())

		_, ok := f.store.GetToken()
		require.False(t, ok)
		require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("no handler does not panic", func(t *testing.T) {
		f := setupTestFixture(t, unauthorized)
		f.store.SetToken("abc")
		require.NotPanics(t, func() {
			_, err := f.client.Get(context.Background(), "/profile", nil)
			require.ErrorIs(t, err, gateway.ErrUnauthorized)
		})
		_, ok := f.store.GetToken()
		require.False(t, ok)
	})

	t.Run("panicking handler is contained", func(t *testing.T) {
		f := setupTestFixture(t, unauthorized, gateway.WithLogoutHandler(func() { panic("navigator gone") }))
		f.store.SetToken("abc")
		_, err := f.client.Get(context.Background(), "/profile", nil)
		require.ErrorIs(t, err, gateway.ErrUnauthorized)
	})

	t.Run("last registration wins and nil clears", func(t *testing.T) {
		var first, second int32
		f := setupTestFixture(t, unauthorized)
		f.client.RegisterLogoutHandler(func() { atomic.AddInt32(&first, 1) })
		f.client.RegisterLogoutHandler(func() { atomic.AddInt32(&second, 1) })
		_, _ = f.client.Get(context.Background(), "/profile", nil)
		require.Equal(t, int32(0), atomic.LoadInt32(&first))
		require.Equal(t, int32(1), atomic.LoadInt32(&second))

		f.client.RegisterLogoutHandler(nil)
		_, _ = f.client.Get(context.Background(), "/profile", nil)
		require.Equal(t, int32(1), atomic.LoadInt32(&second))
	})

	t.Run("fallback used only without handler and does not recurse", func(t *testing.T) {
		var fallbacks, requests int32
		var f *testFixture
		f = setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requests, 1)
			unauthorized(w, r)
		}, gateway.WithFallbackLogout(func(ctx context.Context) error {
			atomic.AddInt32(&fallbacks, 1)
			_, err := f.client.Post(ctx, "/auth/logout", nil)
			return err
		}))
		f.store.SetToken("abc")

		_, err := f.client.Get(context.Background(), "/profile", nil)
		require.ErrorIs(t, err, gateway.ErrUnauthorized)
		require.Equal(t, int32(1), atomic.LoadInt32(&fallbacks))
		require.Equal(t, int32(2), atomic.LoadInt32(&requests))

		var handled int32
		f.client.RegisterLogoutHandler(func() { atomic.AddInt32(&handled, 1) })
		_, _ = f.client.Get(context.Background(), "/profile", nil)
		require.Equal(t, int32(1), atomic.LoadInt32(&fallbacks))
		require.Equal(t, int32(1), atomic.LoadInt32(&handled))
	})
}

func TestDataStatuses(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/validation":
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"message": "The email field is required.",
				"errors":  map[string][]string{"email": {"The email field is required."}},
			})
		case "/api/conflict":
			writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": "Room already booked"})
		case "/api/redirect":
			w.Header().Set("Location", "/elsewhere")
			w.WriteHeader(http.StatusFound)
		case "/api/envelope":
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": 7}, "message": "ok"})
		case "/api/bare":
			writeJSON(w, http.StatusCreated, []int{1, 2, 3})
		case "/api/text":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = io.WriteString(w, "pong")
		case "/api/broken":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, "{not json")
		}
	})
	ctx := context.Background()

	t.Run("422 returned as data", func(t *testing.T) {
		resp, err := f.client.Post(ctx, "/validation", map[string]string{})
		require.NoError(t, err)
		require.False(t, resp.Success)
		require.True(t, resp.Validation())
		require.Equal(t, "The email field is required.", resp.Message)
		require.Contains(t, string(resp.Errors), "email")
		require.Contains(t, string(resp.Body), "errors")
	})

	t.Run("409 returned as data", func(t *testing.T) {
		resp, err := f.client.Post(ctx, "/conflict", nil)
		require.NoError(t, err)
		require.True(t, resp.Conflict())
		require.False(t, resp.Success)
		require.Equal(t, "Room already booked", resp.Message)
	})

	t.Run("302 resolves", func(t *testing.T) {
		resp, err := f.client.Get(ctx, "/redirect", nil)
		require.NoError(t, err)
		require.True(t, resp.Success)
		require.True(t, resp.Redirect())
		require.Equal(t, "/elsewhere", resp.Location())
	})

	t.Run("envelope unpacked", func(t *testing.T) {
		resp, err := f.client.Get(ctx, "/envelope", nil)
		require.NoError(t, err)
		require.True(t, resp.Success)
		require.Equal(t, "ok", resp.Message)
		var data struct{ ID int }
		require.NoError(t, resp.Decode(&data))
		require.Equal(t, 7, data.ID)
	})

	t.Run("bare json wrapped", func(t *testing.T) {
		resp, err := f.client.Get(ctx, "/bare", nil)
		require.NoError(t, err)
		require.True(t, resp.Success)
		var ids []int
		require.NoError(t, resp.Decode(&ids))
		require.Equal(t, []int{1, 2, 3}, ids)
	})

	t.Run("text body kept opaque", func(t *testing.T) {
		resp, err := f.client.Get(ctx, "/text", nil)
		require.NoError(t, err)
		require.Equal(t, "pong", resp.Text)
		require.ErrorIs(t, resp.Decode(&struct{}{}), gateway.ErrNoData)
	})

	t.Run("malformed json becomes empty body", func(t *testing.T) {
		resp, err := f.client.Get(ctx, "/broken", nil)
		require.NoError(t, err)
		require.True(t, resp.Success)
		require.Nil(t, resp.Body)
		require.Nil(t, resp.Data)
	})
}

func TestErrorStatuses(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/missing":
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Booking not found"})
		case "/api/forbidden":
			w.WriteHeader(http.StatusForbidden)
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "database unavailable"})
		}
	})
	f.store.SetToken("abc")
	ctx := context.Background()

	_, err := f.client.Get(ctx, "/missing", nil)
	require.ErrorIs(t, err, gateway.ErrClient)
	gwErr, ok := gateway.AsError(err)
	require.True(t, ok)
	require.Equal(t, gateway.KindClient, gwErr.Kind)
	require.Equal(t, http.StatusNotFound, gwErr.Status)
	require.Equal(t, "Booking not found", gwErr.Message)
	require.Contains(t, string(gwErr.Body), "Booking not found")

	_, err = f.client.Delete(ctx, "/forbidden")
	require.ErrorIs(t, err, gateway.ErrClient)
	require.Equal(t, "Request failed with status 403.", gateway.Message(err))

	_, err = f.client.Put(ctx, "/boom", map[string]int{"a": 1})
	require.ErrorIs(t, err, gateway.ErrServer)
	require.Equal(t, "database unavailable", err.Error())

	// non-401 failures leave the session alone
	token, ok := f.store.GetToken()
	require.True(t, ok)
	require.Equal(t, "abc", token)
}

func TestTransportFailures(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}, gateway.WithTimeout(50*time.Millisecond))

		_, err := f.client.Get(context.Background(), "/slow", nil)
		require.ErrorIs(t, err, gateway.ErrTimeout)
		require.NotErrorIs(t, err, gateway.ErrNetwork)
		require.Contains(t, err.Error(), "timed out")
	})

	t.Run("network", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		base := server.URL
		server.Close()

		store, err := session.NewStore(fakesessionrepo.NewFakeRepo())
		require.NoError(t, err)
		client, err := gateway.New(base, store, gateway.WithLogger(zerolog.Nop()))
		require.NoError(t, err)

		_, err = client.Get(context.Background(), "/rooms", nil)
		require.ErrorIs(t, err, gateway.ErrNetwork)
		require.NotErrorIs(t, err, gateway.ErrTimeout)
		require.Contains(t, err.Error(), "Network error")
		require.NotContains(t, err.Error(), "timed out")
	})

	t.Run("caller cancel", func(t *testing.T) {
		started := make(chan struct{})
		f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-r.Context().Done()
		})
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-started
			cancel()
		}()
		_, err := f.client.Get(ctx, "/slow", nil)
		require.ErrorIs(t, err, gateway.ErrCanceled)
	})

	t.Run("invalid request", func(t *testing.T) {
		f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {})
		_, err := f.client.Get(context.Background(), "", nil)
		require.ErrorIs(t, err, gateway.ErrInvalidRequest)
		_, err = f.client.Post(context.Background(), "/x", make(chan int))
		require.ErrorIs(t, err, gateway.ErrInvalidRequest)
	})
}

func TestMultipart(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary=") {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "expected multipart"})
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		file, header, err := r.FormFile("avatar")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]string{
			"name":     r.FormValue("name"),
			"filename": header.Filename,
			"type":     header.Header.Get("Content-Type"),
			"content":  string(content),
		}})
	})

	resp, err := f.client.Post(context.Background(), "/profile", &gateway.Multipart{
		Fields: map[string]string{"name": "Ada"},
		Files:  []gateway.File{{Field: "avatar", Name: "me.png", ContentType: "image/png", Content: strings.NewReader("PNG")}},
	})
	require.NoError(t, err)
	var data map[string]string
	require.NoError(t, resp.Decode(&data))
	require.Equal(t, map[string]string{"name": "Ada", "filename": "me.png", "type": "image/png", "content": "PNG"}, data)
}

func TestBinary(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		content, _ := io.ReadAll(r.Body)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]string{
			"type": r.Header.Get("Content-Type"), "content": string(content),
		}})
	})
	resp, err := f.client.Put(context.Background(), "/upload", &gateway.Binary{ContentType: "image/jpeg", Content: strings.NewReader("JPG")})
	require.NoError(t, err)
	var data map[string]string
	require.NoError(t, resp.Decode(&data))
	require.Equal(t, "image/jpeg", data["type"])
	require.Equal(t, "JPG", data["content"])
}

// Two requests in flight when a 401 arrives: the other request may still
// complete with the token it was sent with. Nothing serializes them, so this
// only checks that both calls return.
func TestConcurrentRequestsDuringInvalidation(t *testing.T) {
	release := make(chan struct{})
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/expired" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{})
			close(release)
			return
		}
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	f.store.SetToken("abc")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.client.Get(context.Background(), "/slow", nil)
	}()
	go func() {
		defer wg.Done()
		time.Sleep(20 * time.Millisecond)
		_, errs[1] = f.client.Get(context.Background(), "/expired", nil)
	}()
	wg.Wait()
	require.ErrorIs(t, errs[1], gateway.ErrUnauthorized)
	_, ok := f.store.GetToken()
	require.False(t, ok)
}
