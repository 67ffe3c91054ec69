package mocks

import (
	"context"
	"errors"

	"github.com/quaark/mlrun-remote-project/pkg/domain"
	dbmock "github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/mock"
	kdbserving "github.com/quaark/mlrun-remote-project/pkg/domain/serving/db"
)

type ServingInterface struct {
	Impl struct {
		Register  func(context.Context, domain.Endpoint) (domain.Endpoint, error)
		Get       func(context.Context, []string) (map[string]domain.Endpoint, error)
		Find      func(context.Context, domain.EndpointFindQuery) ([]string, error)
		SetStatus func(context.Context, string, domain.EndpointStatus) (domain.Endpoint, error)
		Delete    func(context.Context, string) error
	}
	Calls struct {
		Register  dbmock.CallLog[domain.Endpoint]
		Get       dbmock.CallLog[[]string]
		Find      dbmock.CallLog[domain.EndpointFindQuery]
		SetStatus dbmock.CallLog[struct {
			Name   string
			Status domain.EndpointStatus
		}]
		Delete dbmock.CallLog[string]
	}
}

func NewServingInterface() *ServingInterface {
	return &ServingInterface{}
}

var _ kdbserving.Interface = &ServingInterface{}

func (si *ServingInterface) Register(ctx context.Context, endpoint domain.Endpoint) (domain.Endpoint, error) {
	si.Calls.Register = append(si.Calls.Register, endpoint)
	if si.Impl.Register != nil {
		return si.Impl.Register(ctx, endpoint)
	}
	panic(errors.New("it should no be called"))
}

func (si *ServingInterface) Get(ctx context.Context, names []string) (map[string]domain.Endpoint, error) {
	si.Calls.Get = append(si.Calls.Get, names)
	if si.Impl.Get != nil {
		return si.Impl.Get(ctx, names)
	}
	panic(errors.New("it should no be called"))
}

func (si *ServingInterface) Find(ctx context.Context, query domain.EndpointFindQuery) ([]string, error) {
	si.Calls.Find = append(si.Calls.Find, query)
	if si.Impl.Find != nil {
		return si.Impl.Find(ctx, query)
	}
	panic(errors.New("it should no be called"))
}

func (si *ServingInterface) SetStatus(ctx context.Context, name string, status domain.EndpointStatus) (domain.Endpoint, error) {
	si.Calls.SetStatus = append(si.Calls.SetStatus, struct {
		Name   string
		Status domain.EndpointStatus
	}{Name: name, Status: status})
	if si.Impl.SetStatus != nil {
		return si.Impl.SetStatus(ctx, name, status)
	}
	panic(errors.New("it should no be called"))
}

func (si *ServingInterface) Delete(ctx context.Context, name string) error {
	si.Calls.Delete = append(si.Calls.Delete, name)
	if si.Impl.Delete != nil {
		return si.Impl.Delete(ctx, name)
	}
	panic(errors.New("it should no be called"))
}
