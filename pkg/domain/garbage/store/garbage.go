package store

import (
	"context"

	"github.com/quaark/mlrun-remote-project/pkg/domain"
	"github.com/quaark/mlrun-remote-project/pkg/domain/artifact/store"
)

type Interface interface {
	DestroyGarbage(ctx context.Context, g domain.Garbage) error
}

type impl struct {
	s store.Interface
}

func New(s store.Interface) Interface {
	return &impl{s: s}
}

func (i *impl) DestroyGarbage(ctx context.Context, g domain.Garbage) error {
	// Remove is idempotent. An object which is already gone is fine.
	return i.s.Remove(ctx, g.Key)
}
