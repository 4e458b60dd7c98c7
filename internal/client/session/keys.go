package session

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/atinyakov/storefront/internal/client/storage"
	"github.com/atinyakov/storefront/internal/models"
)

// Storage keys. They must stay stable across releases: renaming one signs
// every user out.
const (
	KeyToken = "storefront.auth_token.v2"
	KeyUser  = "storefront.auth_user.v2"
	KeyEmail = "storefront.user_email"
	// KeyCookies holds the backend's session cookies under the cookie
	// strategy. It is never a token source.
	KeyCookies = "storefront.session_cookies.v1"
)

// Source is one storage location of a value together with its parser.
type Source[T any] struct {
	Key   string
	Parse func(raw []byte) (T, bool)
}

// Resolve returns the value of the first source, in order, whose key is
// present and parses.
func Resolve[T any](store *storage.Adapter, sources []Source[T]) (T, bool) {
	for _, src := range sources {
		raw, ok := store.Read(src.Key)
		if !ok {
			continue
		}
		if v, ok := src.Parse(raw); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// TokenSources lists the token keys, current first.
var TokenSources = []Source[string]{
	{Key: KeyToken, Parse: parseToken},
	{Key: "auth_token", Parse: parseToken},
	{Key: "token", Parse: parseToken},
}

// UserSources lists the user profile keys, current first.
var UserSources = []Source[*models.User]{
	{Key: KeyUser, Parse: parseUser},
	{Key: "auth_user", Parse: parseUser},
	{Key: "user", Parse: parseUser},
}

func keys[T any](sources []Source[T]) []string {
	out := make([]string, len(sources))
	for i, src := range sources {
		out[i] = src.Key
	}
	return out
}

// parseToken accepts a raw token or a JSON string.
func parseToken(raw []byte) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			s = strings.TrimSpace(s)
			return s, s != ""
		}
	}
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	return string(raw), true
}

// parseUser accepts a JSON profile. Anything else that is not empty is
// taken to be the user's email.
func parseUser(raw []byte) (*models.User, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err == nil {
		return &user, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		raw = []byte(s)
	}
	email := strings.TrimSpace(string(raw))
	if email == "" {
		return nil, false
	}
	return &models.User{Email: email}, true
}

// encodeUser returns the canonical stored form of user, nil for no user.
func encodeUser(user *models.User) []byte {
	if user == nil {
		return nil
	}
	b, err := json.Marshal(user)
	if err != nil {
		return nil
	}
	return b
}
