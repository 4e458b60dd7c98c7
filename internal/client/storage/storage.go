// Package storage is the client's durable key-value store. Backends report
// their errors; the Adapter in front of them never does. A failing backend
// degrades to "value absent" on reads and to a no-op on writes.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Backend is a raw key-value store.
type Backend interface {
	// Get returns the stored bytes. A missing key is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend's resources.
	Close() error
}

const defaultTimeout = 2 * time.Second

// Adapter serializes values as JSON and swallows every backend failure.
type Adapter struct {
	backend Backend
	timeout time.Duration
	log     *zap.Logger
}

// NewAdapter wraps backend. A nil log disables logging; a non-positive
// timeout selects the default of two seconds per operation.
func NewAdapter(backend Backend, timeout time.Duration, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Adapter{backend: backend, timeout: timeout, log: log}
}

// Read returns the raw stored bytes for key.
func (a *Adapter) Read(key string) (value []byte, ok bool) {
	defer a.recover("read", key, func() { value, ok = nil, false })

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	value, ok, err := a.backend.Get(ctx, key)
	if err != nil {
		a.log.Debug("storage read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return value, ok
}

// ReadJSON decodes the value stored under key into v. It reports false when
// the key is absent, unreadable or not valid JSON for v.
func (a *Adapter) ReadJSON(key string, v any) bool {
	raw, ok := a.Read(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		a.log.Debug("storage value is not valid JSON", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// WriteJSON stores the JSON encoding of v under key.
func (a *Adapter) WriteJSON(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		a.log.Debug("storage value cannot be encoded", zap.String("key", key), zap.Error(err))
		return
	}
	a.WriteRaw(key, raw)
}

// WriteRaw stores value under key as is.
func (a *Adapter) WriteRaw(key string, value []byte) {
	defer a.recover("write", key, nil)

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.backend.Set(ctx, key, value); err != nil {
		a.log.Debug("storage write failed", zap.String("key", key), zap.Error(err))
	}
}

// Remove deletes key.
func (a *Adapter) Remove(key string) {
	defer a.recover("remove", key, nil)

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.backend.Delete(ctx, key); err != nil {
		a.log.Debug("storage remove failed", zap.String("key", key), zap.Error(err))
	}
}

// Close closes the backend.
func (a *Adapter) Close() error {
	return a.backend.Close()
}

// recover turns a backend panic into the same outcome as a backend error.
func (a *Adapter) recover(op, key string, onPanic func()) {
	r := recover()
	if r == nil {
		return
	}
	a.log.Debug("storage backend panicked",
		zap.String("op", op),
		zap.String("key", key),
		zap.String("panic", fmt.Sprint(r)),
	)
	if onPanic != nil {
		onPanic()
	}
}
