package mocks

import (
	"context"
	"errors"

	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kdbartifact "github.com/quaark/mlrun-remote-project/pkg/domain/artifact/db"
	dbmock "github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/mock"
)

type ArtifactInterface struct {
	Impl struct {
		Register func(context.Context, domain.ArtifactBody) (domain.ArtifactBody, error)
		Get      func(context.Context, []string) (map[string]domain.ArtifactBody, error)
		Find     func(context.Context, domain.ArtifactFindQuery) ([]string, error)
	}
	Calls struct {
		Register dbmock.CallLog[domain.ArtifactBody]
		Get      dbmock.CallLog[[]string]
		Find     dbmock.CallLog[domain.ArtifactFindQuery]
	}
}

func NewArtifactInterface() *ArtifactInterface {
	return &ArtifactInterface{}
}

var _ kdbartifact.Interface = &ArtifactInterface{}

func (ai *ArtifactInterface) Register(ctx context.Context, artifact domain.ArtifactBody) (domain.ArtifactBody, error) {
	ai.Calls.Register = append(ai.Calls.Register, artifact)
	if ai.Impl.Register != nil {
		return ai.Impl.Register(ctx, artifact)
	}
	panic(errors.New("it should no be called"))
}

func (ai *ArtifactInterface) Get(ctx context.Context, keys []string) (map[string]domain.ArtifactBody, error) {
	ai.Calls.Get = append(ai.Calls.Get, keys)
	if ai.Impl.Get != nil {
		return ai.Impl.Get(ctx, keys)
	}
	panic(errors.New("it should no be called"))
}

func (ai *ArtifactInterface) Find(ctx context.Context, query domain.ArtifactFindQuery) ([]string, error) {
	ai.Calls.Find = append(ai.Calls.Find, query)
	if ai.Impl.Find != nil {
		return ai.Impl.Find(ctx, query)
	}
	panic(errors.New("it should no be called"))
}
