package api

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"sync"
)

const bearerPrefix = "Bearer "

// Credentials is the single writer of the credential header. Obtain it with
// ClaimCredentials.
type Credentials struct {
	c *Client
}

// ClaimCredentials hands out the credential header. Only the first call
// succeeds.
func (c *Client) ClaimCredentials() (*Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.claimed {
		return nil, ErrCredentialsClaimed
	}
	c.claimed = true
	return &Credentials{c: c}, nil
}

// Token returns the bearer token currently sent, or "".
func (cr *Credentials) Token() string {
	cr.c.mu.RLock()
	defer cr.c.mu.RUnlock()
	return strings.TrimPrefix(cr.c.headers.Get(authorizationHeader), bearerPrefix)
}

// SetToken sends token as a bearer credential. An empty token removes the
// header. It reports whether the header changed.
func (cr *Credentials) SetToken(token string) bool {
	cr.c.mu.Lock()
	defer cr.c.mu.Unlock()

	current := cr.c.headers.Get(authorizationHeader)
	if token == "" {
		if current == "" {
			return false
		}
		cr.c.headers.Del(authorizationHeader)
		return true
	}
	if current == bearerPrefix+token {
		return false
	}
	cr.c.headers.Set(authorizationHeader, bearerPrefix+token)
	return true
}

// ClearCookies drops every cookie the backend has set. It is a no-op when the
// client has no cookie jar.
func (cr *Credentials) ClearCookies() {
	if cr.c.jar != nil {
		cr.c.jar.reset()
	}
}

// Cookies returns the cookies the backend has set, or nil when the client has
// no cookie jar. Only name and value are known.
func (cr *Credentials) Cookies() []*http.Cookie {
	if cr.c.jar == nil {
		return nil
	}
	return cr.c.jar.Cookies(cr.c.jarURL)
}

// RestoreCookies puts cookies saved by an earlier process back into the jar.
// It does not trigger the OnCookiesChanged callback.
func (cr *Credentials) RestoreCookies(cookies []*http.Cookie) {
	if cr.c.jar == nil || len(cookies) == 0 {
		return
	}
	restored := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		if ck == nil || ck.Name == "" {
			continue
		}
		restored = append(restored, &http.Cookie{Name: ck.Name, Value: ck.Value, Path: "/"})
	}
	cr.c.jar.restore(cr.c.jarURL, restored)
}

// OnCookiesChanged registers fn to run after every response that set or
// expired a cookie. fn runs on the goroutine that sent the request.
func (cr *Credentials) OnCookiesChanged(fn func()) {
	if cr.c.jar != nil {
		cr.c.jar.setOnChange(fn)
	}
}

// TokenFileHelper returns a credential helper reading a token from path.
// A missing or empty file yields nothing.
func TokenFileHelper(path string) func() (string, bool) {
	return func() (string, bool) {
		if path == "" {
			return "", false
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", false
		}
		token := strings.TrimSpace(string(data))
		return token, token != ""
	}
}

// resettableJar is a cookie jar that can be emptied while the client is in
// use.
type resettableJar struct {
	mu       sync.Mutex
	jar      *cookiejar.Jar
	onChange func()
}

func newResettableJar() (*resettableJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &resettableJar{jar: jar}, nil
}

func (j *resettableJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	j.jar.SetCookies(u, cookies)
	fn := j.onChange
	j.mu.Unlock()

	if fn != nil && len(cookies) > 0 {
		fn()
	}
}

func (j *resettableJar) restore(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jar.SetCookies(u, cookies)
}

func (j *resettableJar) setOnChange(fn func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.onChange = fn
}

func (j *resettableJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

func (j *resettableJar) reset() {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return
	}
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
}
