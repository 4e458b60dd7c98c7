package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingBackend fails every operation, like a disabled or full store.
type failingBackend struct {
	err   error
	panic bool
}

func (f failingBackend) Get(context.Context, string) ([]byte, bool, error) {
	if f.panic {
		panic("storage disabled")
	}
	return nil, false, f.err
}

func (f failingBackend) Set(context.Context, string, []byte) error {
	if f.panic {
		panic("quota exceeded")
	}
	return f.err
}

func (f failingBackend) Delete(context.Context, string) error {
	if f.panic {
		panic("storage disabled")
	}
	return f.err
}

func (f failingBackend) Close() error { return nil }

func TestAdapter_JSONRoundTrip(t *testing.T) {
	a := NewAdapter(NewMemoryBackend(), 0, nil)

	type item struct {
		ID  string `json:"id"`
		Qty int    `json:"qty"`
	}
	a.WriteJSON("k", []item{{ID: "p1", Qty: 2}})

	var got []item
	require.True(t, a.ReadJSON("k", &got))
	assert.Equal(t, []item{{ID: "p1", Qty: 2}}, got)

	raw, ok := a.Read("k")
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"p1","qty":2}]`, string(raw))
}

func TestAdapter_Absent(t *testing.T) {
	a := NewAdapter(NewMemoryBackend(), 0, nil)

	_, ok := a.Read("missing")
	assert.False(t, ok)

	var v map[string]any
	assert.False(t, a.ReadJSON("missing", &v))
}

func TestAdapter_ParseFailureIsAbsent(t *testing.T) {
	a := NewAdapter(NewMemoryBackend(), 0, nil)
	a.WriteRaw("k", []byte("{not json"))

	var v map[string]any
	assert.False(t, a.ReadJSON("k", &v))
	assert.Nil(t, v)
}

func TestAdapter_Remove(t *testing.T) {
	a := NewAdapter(NewMemoryBackend(), 0, nil)
	a.WriteJSON("k", "v")
	a.Remove("k")
	a.Remove("k")

	_, ok := a.Read("k")
	assert.False(t, ok)
}

func TestAdapter_SwallowsBackendErrors(t *testing.T) {
	for _, b := range []failingBackend{
		{err: errors.New("storage disabled")},
		{panic: true},
	} {
		a := NewAdapter(b, 0, nil)

		assert.NotPanics(t, func() {
			a.WriteJSON("k", "v")
			a.WriteRaw("k", []byte("v"))
			a.Remove("k")
		})

		var s string
		assert.False(t, a.ReadJSON("k", &s))
		raw, ok := a.Read("k")
		assert.False(t, ok)
		assert.Nil(t, raw)
	}
}

func TestAdapter_UnencodableValue(t *testing.T) {
	a := NewAdapter(NewMemoryBackend(), 0, nil)
	assert.NotPanics(t, func() { a.WriteJSON("k", make(chan int)) })

	_, ok := a.Read("k")
	assert.False(t, ok)
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name    string
		driver  Driver
		opts    []Option
		wantErr error
	}{
		{"memory", DriverMemory, nil, nil},
		{"file", DriverFile, []Option{WithPath(t.TempDir() + "/s.json")}, nil},
		{"file without path", DriverFile, nil, ErrInvalidConfig},
		{"redis without client", DriverRedis, nil, ErrInvalidConfig},
		{"postgres without db", DriverPostgres, nil, ErrInvalidConfig},
		{"unknown", Driver("etcd"), nil, ErrInvalidDriver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBackend(tt.driver, tt.opts...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, b)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, b)
		})
	}
}
