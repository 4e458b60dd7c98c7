package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/storefront/internal/client/events"
)

// roundTripperFunc lets a test stand in for the backend.
type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(t *testing.T, fn roundTripperFunc, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: fn, Timeout: time.Second})}, opts...)
	c, err := New("http://example.com/api/", opts...)
	require.NoError(t, err)
	return c
}

func TestDo_HeadersAndHooks(t *testing.T) {
	var seen *http.Request
	var body []byte
	var hookRan, respHookRan bool

	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		seen = req
		body, _ = io.ReadAll(req.Body)
		return jsonResponse(http.StatusOK, `{"ok":true}`), nil
	})
	require.NoError(t, c.SetDefaultHeader("X-Client", "shell"))
	c.OnRequest(func(req *http.Request) error {
		hookRan = true
		req.Header.Set("X-Trace", "1")
		return nil
	})
	c.OnResponse(func(resp *http.Response) { respHookRan = resp.StatusCode == http.StatusOK })

	var out struct{ OK bool }
	err := c.Do(context.Background(), http.MethodPost, "/things", map[string]string{"a": "b"}, &out)
	require.NoError(t, err)

	assert.True(t, out.OK)
	assert.True(t, hookRan)
	assert.True(t, respHookRan)
	assert.Equal(t, "http://example.com/api/things", seen.URL.String())
	assert.Equal(t, "shell", seen.Header.Get("X-Client"))
	assert.Equal(t, "1", seen.Header.Get("X-Trace"))
	assert.Equal(t, "application/json", seen.Header.Get("Accept"))
	assert.Equal(t, "application/json", seen.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"a":"b"}`, string(body))
}

func TestDo_RequestHookErrorAborts(t *testing.T) {
	called := false
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		called = true
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	c.OnRequest(func(*http.Request) error { return errors.New("nope") })

	err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil)
	require.Error(t, err)
	assert.False(t, called)
}

func TestDefaultHeaders(t *testing.T) {
	c := newTestClient(t, nil)

	require.NoError(t, c.SetDefaultHeader("X-Locale", "en"))
	assert.Equal(t, "en", c.DefaultHeader("X-Locale"))
	require.NoError(t, c.DelDefaultHeader("X-Locale"))
	assert.Empty(t, c.DefaultHeader("X-Locale"))

	assert.ErrorIs(t, c.SetDefaultHeader("authorization", "Bearer x"), ErrCredentialHeader)
	assert.ErrorIs(t, c.DelDefaultHeader("Authorization"), ErrCredentialHeader)
}

func TestClaimCredentials(t *testing.T) {
	var auth string
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		auth = req.Header.Get("Authorization")
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	cr, err := c.ClaimCredentials()
	require.NoError(t, err)
	_, err = c.ClaimCredentials()
	assert.ErrorIs(t, err, ErrCredentialsClaimed)

	assert.True(t, cr.SetToken("abc"))
	assert.False(t, cr.SetToken("abc"))
	assert.Equal(t, "abc", cr.Token())
	assert.Equal(t, "Bearer abc", c.DefaultHeader("Authorization"))

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/x", nil, nil))
	assert.Equal(t, "Bearer abc", auth)

	assert.True(t, cr.SetToken(""))
	assert.False(t, cr.SetToken(""))
	assert.Empty(t, cr.Token())

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/x", nil, nil))
	assert.Empty(t, auth)
}

func TestDo_UnauthorizedPublishes(t *testing.T) {
	bus := events.NewBus()
	signals := 0
	bus.Unauthorized.Subscribe(func(events.Unauthorized) { signals++ })

	status := http.StatusUnauthorized
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(status, `{"message":"token expired"}`), nil
	}, WithUnauthorizedTopic(&bus.Unauthorized))

	err := c.Do(context.Background(), http.MethodGet, "/orders", nil, nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "token expired", err.Error())
	assert.Equal(t, 1, signals)

	status = http.StatusForbidden
	err = c.Do(context.Background(), http.MethodGet, "/orders", nil, nil)
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.Equal(t, 1, signals)
}

func TestDo_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "message field", body: `{"status":400,"message":"Coupon expired"}`, want: "Coupon expired"},
		{name: "error field", body: `{"error":"Bad Request"}`, want: "Bad Request"},
		{name: "plain text", body: "boom", want: "request failed with status 400"},
		{name: "empty body", body: "", want: "request failed with status 400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusBadRequest, tt.body), nil
			})
			err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			assert.Equal(t, tt.want, apiErr.Message)
			assert.Equal(t, tt.want, Message(err, "fallback"))
		})
	}
}

func TestDo_NetworkError(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("network down")
	})

	err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "fallback", Message(err, "fallback"))
}

func TestDo_InvalidJSON(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, "not-json"), nil
	})

	var out map[string]any
	err := c.Do(context.Background(), http.MethodGet, "/x", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid response")
}

func TestDo_EncodeError(t *testing.T) {
	c := newTestClient(t, nil)
	err := c.Do(context.Background(), http.MethodPost, "/x", map[string]any{"f": func() {}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode request")
}

func TestStoredCredential(t *testing.T) {
	c := newTestClient(t, nil)
	_, ok := c.StoredCredential()
	assert.False(t, ok)

	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  tok-1\n"), 0o600))

	c = newTestClient(t, nil, WithCredentialHelper(TokenFileHelper(path)))
	token, ok := c.StoredCredential()
	assert.True(t, ok)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))
	_, ok = c.StoredCredential()
	assert.False(t, ok)

	_, ok = TokenFileHelper(filepath.Join(t.TempDir(), "missing"))()
	assert.False(t, ok)
	_, ok = TokenFileHelper("")()
	assert.False(t, ok)
}

func TestCookieJar(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/login" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/", HttpOnly: true})
			return
		}
		cookie, err := r.Cookie("session")
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"session": cookie.Value})
	}))
	defer ts.Close()

	c, err := New(ts.URL+"/api", WithCookieJar())
	require.NoError(t, err)
	cr, err := c.ClaimCredentials()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Do(ctx, http.MethodPost, "/login", nil, nil))

	var out map[string]string
	require.NoError(t, c.Do(ctx, http.MethodGet, "/me", nil, &out))
	assert.Equal(t, "s1", out["session"])

	cr.ClearCookies()
	err = c.Do(ctx, http.MethodGet, "/me", nil, &out)
	assert.True(t, IsUnauthorized(err))
}

func TestNew_HTTPClientOptions(t *testing.T) {
	c, err := New("http://example.com", WithTimeout(3*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, c.http.Timeout)

	custom := &http.Client{Timeout: time.Minute}
	c, err = New("http://example.com", WithTimeout(3*time.Second), WithHTTPClient(custom))
	require.NoError(t, err)
	assert.Same(t, custom, c.http)
	assert.Equal(t, time.Minute, custom.Timeout)

	c, err = New("http://example.com", WithHTTPClient(custom), WithTimeout(3*time.Second))
	require.NoError(t, err)
	assert.Equal(t, time.Minute, c.http.Timeout)
	assert.Nil(t, custom.Transport)

	c, err = New("http://example.com")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, c.http.Timeout)
}

func TestCookiePersistenceHooks(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/", HttpOnly: true})
		case "/api/logout":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
		default:
			cookie, err := r.Cookie("session")
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"session": cookie.Value})
		}
	}))
	defer ts.Close()
	ctx := context.Background()

	c, err := New(ts.URL+"/api", WithCookieJar())
	require.NoError(t, err)
	cr, err := c.ClaimCredentials()
	require.NoError(t, err)
	changes := 0
	cr.OnCookiesChanged(func() { changes++ })

	require.NoError(t, c.Do(ctx, http.MethodPost, "/login", nil, nil))
	assert.Equal(t, 1, changes)
	saved := cr.Cookies()
	require.Len(t, saved, 1)
	assert.Equal(t, "s1", saved[0].Value)

	// A second process restores the saved cookie without a login.
	next, err := New(ts.URL+"/api", WithCookieJar())
	require.NoError(t, err)
	nextCreds, err := next.ClaimCredentials()
	require.NoError(t, err)
	nextCreds.OnCookiesChanged(func() { t.Error("restoring must not report a change") })
	nextCreds.RestoreCookies(saved)
	var out map[string]string
	require.NoError(t, next.Do(ctx, http.MethodGet, "/me", nil, &out))
	assert.Equal(t, "s1", out["session"])

	require.NoError(t, c.Do(ctx, http.MethodPost, "/logout", nil, nil))
	assert.Equal(t, 2, changes)
	assert.Empty(t, cr.Cookies())

	plain, err := New(ts.URL + "/api")
	require.NoError(t, err)
	plainCreds, err := plain.ClaimCredentials()
	require.NoError(t, err)
	plainCreds.RestoreCookies(saved)
	plainCreds.OnCookiesChanged(func() {})
	assert.Nil(t, plainCreds.Cookies())
}
