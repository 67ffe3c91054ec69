package mocks

import (
	"context"
	"errors"

	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kdbfunction "github.com/quaark/mlrun-remote-project/pkg/domain/function/db"
	dbmock "github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/mock"
)

type FunctionInterface struct {
	Impl struct {
		Upsert func(context.Context, domain.FunctionBody) (domain.Function, error)
		Get    func(context.Context, string, []string) (map[string]domain.Function, error)
		Find   func(context.Context, domain.FunctionFindQuery) ([]domain.Function, error)
		Delete func(context.Context, string, string) error
	}
	Calls struct {
		Upsert dbmock.CallLog[domain.FunctionBody]
		Get    dbmock.CallLog[struct {
			ProjectName string
			Name        []string
		}]
		Find   dbmock.CallLog[domain.FunctionFindQuery]
		Delete dbmock.CallLog[struct {
			ProjectName string
			Name        string
		}]
	}
}

func NewFunctionInterface() *FunctionInterface {
	return &FunctionInterface{}
}

var _ kdbfunction.Interface = &FunctionInterface{}

func (fi *FunctionInterface) Upsert(ctx context.Context, f domain.FunctionBody) (domain.Function, error) {
	fi.Calls.Upsert = append(fi.Calls.Upsert, f)
	if fi.Impl.Upsert != nil {
		return fi.Impl.Upsert(ctx, f)
	}
	panic(errors.New("it should no be called"))
}

func (fi *FunctionInterface) Get(ctx context.Context, projectName string, names []string) (map[string]domain.Function, error) {
	fi.Calls.Get = append(fi.Calls.Get, struct {
		ProjectName string
		Name        []string
	}{ProjectName: projectName, Name: names})
	if fi.Impl.Get != nil {
		return fi.Impl.Get(ctx, projectName, names)
	}
	panic(errors.New("it should no be called"))
}

func (fi *FunctionInterface) Find(ctx context.Context, query domain.FunctionFindQuery) ([]domain.Function, error) {
	fi.Calls.Find = append(fi.Calls.Find, query)
	if fi.Impl.Find != nil {
		return fi.Impl.Find(ctx, query)
	}
	panic(errors.New("it should no be called"))
}

func (fi *FunctionInterface) Delete(ctx context.Context, projectName string, name string) error {
	fi.Calls.Delete = append(fi.Calls.Delete, struct {
		ProjectName string
		Name        string
	}{ProjectName: projectName, Name: name})
	if fi.Impl.Delete != nil {
		return fi.Impl.Delete(ctx, projectName, name)
	}
	panic(errors.New("it should no be called"))
}
