package mock

import (
	"context"
	"io"
	"testing"
)

type MockStore struct {
	t    *testing.T
	Impl struct {
		Ensure func(ctx context.Context) error
		Put    func(ctx context.Context, key string, r io.Reader, size int64) (int64, error)
		Get    func(ctx context.Context, key string) (io.ReadCloser, int64, error)
		Stat   func(ctx context.Context, key string) (int64, error)
		Remove func(ctx context.Context, key string) error
	}
}

func New(t *testing.T) *MockStore {
	return &MockStore{t: t}
}

func (m *MockStore) Ensure(ctx context.Context) error {
	if m.Impl.Ensure == nil {
		m.t.Fatal("Ensure is not implemented")
	}
	return m.Impl.Ensure(ctx)
}

func (m *MockStore) Put(ctx context.Context, key string, r io.Reader, size int64) (int64, error) {
	if m.Impl.Put == nil {
		m.t.Fatal("Put is not implemented")
	}
	return m.Impl.Put(ctx, key, r, size)
}

func (m *MockStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	if m.Impl.Get == nil {
		m.t.Fatal("Get is not implemented")
	}
	return m.Impl.Get(ctx, key)
}

func (m *MockStore) Stat(ctx context.Context, key string) (int64, error) {
	if m.Impl.Stat == nil {
		m.t.Fatal("Stat is not implemented")
	}
	return m.Impl.Stat(ctx, key)
}

func (m *MockStore) Remove(ctx context.Context, key string) error {
	if m.Impl.Remove == nil {
		m.t.Fatal("Remove is not implemented")
	}
	return m.Impl.Remove(ctx, key)
}
