package mocks

import (
	"context"
	"errors"

	"github.com/quaark/mlrun-remote-project/pkg/domain"
	dbmock "github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/mock"
	kdbworkflow "github.com/quaark/mlrun-remote-project/pkg/domain/workflow/db"
)

type WorkflowInterface struct {
	Impl struct {
		Upsert func(context.Context, domain.Workflow) (domain.Workflow, error)
		Get    func(context.Context, string, []string) (map[string]domain.Workflow, error)
		Find   func(context.Context, string) ([]string, error)
		Delete func(context.Context, string, string) error
	}
	Calls struct {
		Upsert dbmock.CallLog[domain.Workflow]
		Get    dbmock.CallLog[struct {
			ProjectName string
			Name        []string
		}]
		Find   dbmock.CallLog[struct{ ProjectName string }]
		Delete dbmock.CallLog[struct {
			ProjectName string
			Name        string
		}]
	}
}

func NewWorkflowInterface() *WorkflowInterface {
	return &WorkflowInterface{}
}

var _ kdbworkflow.Interface = &WorkflowInterface{}

func (wi *WorkflowInterface) Upsert(ctx context.Context, w domain.Workflow) (domain.Workflow, error) {
	wi.Calls.Upsert = append(wi.Calls.Upsert, w)
	if wi.Impl.Upsert != nil {
		return wi.Impl.Upsert(ctx, w)
	}
	panic(errors.New("it should no be called"))
}

func (wi *WorkflowInterface) Get(ctx context.Context, projectName string, names []string) (map[string]domain.Workflow, error) {
	wi.Calls.Get = append(wi.Calls.Get, struct {
		ProjectName string
		Name        []string
	}{ProjectName: projectName, Name: names})
	if wi.Impl.Get != nil {
		return wi.Impl.Get(ctx, projectName, names)
	}
	panic(errors.New("it should no be called"))
}

func (wi *WorkflowInterface) Find(ctx context.Context, projectName string) ([]string, error) {
	wi.Calls.Find = append(wi.Calls.Find, struct{ ProjectName string }{ProjectName: projectName})
	if wi.Impl.Find != nil {
		return wi.Impl.Find(ctx, projectName)
	}
	panic(errors.New("it should no be called"))
}

func (wi *WorkflowInterface) Delete(ctx context.Context, projectName string, name string) error {
	wi.Calls.Delete = append(wi.Calls.Delete, struct {
		ProjectName string
		Name        string
	}{ProjectName: projectName, Name: name})
	if wi.Impl.Delete != nil {
		return wi.Impl.Delete(ctx, projectName, name)
	}
	panic(errors.New("it should no be called"))
}
