package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atinyakov/storefront/internal/client/storage"
	"github.com/atinyakov/storefront/internal/models"
)

func TestParseToken(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{raw: "abc", want: "abc", wantOK: true},
		{raw: `"abc"`, want: "abc", wantOK: true},
		{raw: "  abc \n", want: "abc", wantOK: true},
		{raw: `""`, wantOK: false},
		{raw: "null", wantOK: false},
		{raw: "", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := parseToken([]byte(tt.raw))
		assert.Equal(t, tt.wantOK, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestParseUser(t *testing.T) {
	user, ok := parseUser([]byte(`{"userId":"u1","email":"a@b.c","role":"ADMIN"}`))
	assert.True(t, ok)
	assert.Equal(t, &models.User{ID: "u1", Email: "a@b.c", Role: models.RoleAdmin}, user)

	user, ok = parseUser([]byte("a@b.c"))
	assert.True(t, ok)
	assert.Equal(t, &models.User{Email: "a@b.c"}, user)

	user, ok = parseUser([]byte(`"a@b.c"`))
	assert.True(t, ok)
	assert.Equal(t, &models.User{Email: "a@b.c"}, user)

	_, ok = parseUser([]byte("null"))
	assert.False(t, ok)
	_, ok = parseUser([]byte("   "))
	assert.False(t, ok)
}

func TestResolve_PriorityOrder(t *testing.T) {
	store := storage.NewAdapter(storage.NewMemoryBackend(), 0, nil)

	_, ok := Resolve(store, TokenSources)
	assert.False(t, ok)

	store.WriteRaw("token", []byte("oldest"))
	store.WriteRaw("auth_token", []byte("older"))
	got, ok := Resolve(store, TokenSources)
	assert.True(t, ok)
	assert.Equal(t, "older", got)

	store.WriteRaw(KeyToken, []byte("current"))
	got, _ = Resolve(store, TokenSources)
	assert.Equal(t, "current", got)
}

func TestResolve_SkipsUnparseable(t *testing.T) {
	store := storage.NewAdapter(storage.NewMemoryBackend(), 0, nil)
	store.WriteRaw(KeyToken, []byte(`""`))
	store.WriteRaw("token", []byte("legacy"))

	got, ok := Resolve(store, TokenSources)
	assert.True(t, ok)
	assert.Equal(t, "legacy", got)
}
