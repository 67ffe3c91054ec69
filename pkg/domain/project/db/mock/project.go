package mocks

import (
	"context"
	"errors"

	"github.com/quaark/mlrun-remote-project/pkg/domain"
	dbmock "github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/mock"
	kdbproject "github.com/quaark/mlrun-remote-project/pkg/domain/project/db"
)

type ProjectInterface struct {
	Impl struct {
		Register func(context.Context, string, string) (domain.Project, error)
		Get      func(context.Context, []string) (map[string]domain.Project, error)
		Find     func(context.Context) ([]string, error)
		Delete   func(context.Context, string) error
	}
	Calls struct {
		Register dbmock.CallLog[struct {
			Name   string
			Source string
		}]
		Get    dbmock.CallLog[struct{ Name []string }]
		Find   dbmock.CallLog[struct{}]
		Delete dbmock.CallLog[struct{ Name string }]
	}
}

func NewProjectInterface() *ProjectInterface {
	return &ProjectInterface{}
}

var _ kdbproject.Interface = &ProjectInterface{}

func (pi *ProjectInterface) Register(ctx context.Context, name string, source string) (domain.Project, error) {
	pi.Calls.Register = append(pi.Calls.Register, struct {
		Name   string
		Source string
	}{Name: name, Source: source})
	if pi.Impl.Register != nil {
		return pi.Impl.Register(ctx, name, source)
	}
	panic(errors.New("it should no be called"))
}

func (pi *ProjectInterface) Get(ctx context.Context, names []string) (map[string]domain.Project, error) {
	pi.Calls.Get = append(pi.Calls.Get, struct{ Name []string }{Name: names})
	if pi.Impl.Get != nil {
		return pi.Impl.Get(ctx, names)
	}
	panic(errors.New("it should no be called"))
}

func (pi *ProjectInterface) Find(ctx context.Context) ([]string, error) {
	pi.Calls.Find = append(pi.Calls.Find, struct{}{})
	if pi.Impl.Find != nil {
		return pi.Impl.Find(ctx)
	}
	panic(errors.New("it should no be called"))
}

func (pi *ProjectInterface) Delete(ctx context.Context, name string) error {
	pi.Calls.Delete = append(pi.Calls.Delete, struct{ Name string }{Name: name})
	if pi.Impl.Delete != nil {
		return pi.Impl.Delete(ctx, name)
	}
	panic(errors.New("it should no be called"))
}
