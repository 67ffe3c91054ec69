package mocks

import (
	"context"
	"errors"

	"github.com/quaark/mlrun-remote-project/pkg/domain"
	dbmock "github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/mock"
	kdbrun "github.com/quaark/mlrun-remote-project/pkg/domain/run/db"
)

type RunInterface struct {
	Impl struct {
		NewPipeline      func(ctx context.Context, projectName string, workflowName string, params map[string]map[string]string) (string, error)
		Get              func(ctx context.Context, runId []string) (map[string]domain.Run, error)
		GetPipeline      func(ctx context.Context, runId string) (domain.PipelineRun, error)
		Find             func(ctx context.Context, query domain.RunFindQuery) ([]string, error)
		SetStatus        func(ctx context.Context, runId string, newStatus domain.RunStatus) error
		SetExit          func(ctx context.Context, runId string, exit domain.RunExit) error
		PickAndSetStatus func(ctx context.Context, cursor domain.RunCursor, callback func(domain.Run) (domain.RunStatus, error)) (domain.RunCursor, bool, error)
		Finish           func(ctx context.Context, runId string) error
		Retry            func(ctx context.Context, runId string) error
		Delete           func(ctx context.Context, runId string) error
		DeleteWorker     func(ctx context.Context, runId string) error
	}

	Calls struct {
		NewPipeline dbmock.CallLog[struct {
			ProjectName  string
			WorkflowName string
			Params       map[string]map[string]string
		}]
		Get         dbmock.CallLog[[]string]
		GetPipeline dbmock.CallLog[string]
		Find        dbmock.CallLog[domain.RunFindQuery]
		SetStatus   dbmock.CallLog[struct {
			RunId     string
			NewStatus domain.RunStatus
		}]
		SetExit dbmock.CallLog[struct {
			RunId string
			Exit  domain.RunExit
		}]
		PickAndSetStatus dbmock.CallLog[domain.RunCursor]
		Finish           dbmock.CallLog[string]
		Retry            dbmock.CallLog[string]
		Delete           dbmock.CallLog[string]
		DeleteWorker     dbmock.CallLog[string]
	}
}

func NewRunInterface() *RunInterface {
	return &RunInterface{}
}

var _ kdbrun.Interface = &RunInterface{}

func (m *RunInterface) NewPipeline(
	ctx context.Context, projectName string, workflowName string,
	params map[string]map[string]string,
) (string, error) {
	m.Calls.NewPipeline = append(m.Calls.NewPipeline, struct {
		ProjectName  string
		WorkflowName string
		Params       map[string]map[string]string
	}{ProjectName: projectName, WorkflowName: workflowName, Params: params})
	if m.Impl.NewPipeline != nil {
		return m.Impl.NewPipeline(ctx, projectName, workflowName, params)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) Get(ctx context.Context, runId []string) (map[string]domain.Run, error) {
	m.Calls.Get = append(m.Calls.Get, runId)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, runId)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) GetPipeline(ctx context.Context, runId string) (domain.PipelineRun, error) {
	m.Calls.GetPipeline = append(m.Calls.GetPipeline, runId)
	if m.Impl.GetPipeline != nil {
		return m.Impl.GetPipeline(ctx, runId)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) Find(ctx context.Context, query domain.RunFindQuery) ([]string, error) {
	m.Calls.Find = append(m.Calls.Find, query)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, query)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) SetStatus(ctx context.Context, runId string, newStatus domain.RunStatus) error {
	m.Calls.SetStatus = append(m.Calls.SetStatus, struct {
		RunId     string
		NewStatus domain.RunStatus
	}{RunId: runId, NewStatus: newStatus})
	if m.Impl.SetStatus != nil {
		return m.Impl.SetStatus(ctx, runId, newStatus)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) SetExit(ctx context.Context, runId string, exit domain.RunExit) error {
	m.Calls.SetExit = append(m.Calls.SetExit, struct {
		RunId string
		Exit  domain.RunExit
	}{RunId: runId, Exit: exit})
	if m.Impl.SetExit != nil {
		return m.Impl.SetExit(ctx, runId, exit)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) PickAndSetStatus(
	ctx context.Context,
	cursor domain.RunCursor,
	callback func(domain.Run) (domain.RunStatus, error),
) (domain.RunCursor, bool, error) {
	m.Calls.PickAndSetStatus = append(m.Calls.PickAndSetStatus, cursor)
	if m.Impl.PickAndSetStatus != nil {
		return m.Impl.PickAndSetStatus(ctx, cursor, callback)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) Finish(ctx context.Context, runId string) error {
	m.Calls.Finish = append(m.Calls.Finish, runId)
	if m.Impl.Finish != nil {
		return m.Impl.Finish(ctx, runId)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) Retry(ctx context.Context, runId string) error {
	m.Calls.Retry = append(m.Calls.Retry, runId)
	if m.Impl.Retry != nil {
		return m.Impl.Retry(ctx, runId)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) Delete(ctx context.Context, runId string) error {
	m.Calls.Delete = append(m.Calls.Delete, runId)
	if m.Impl.Delete != nil {
		return m.Impl.Delete(ctx, runId)
	}

	panic(errors.New("it should no be called"))
}

func (m *RunInterface) DeleteWorker(ctx context.Context, runId string) error {
	m.Calls.DeleteWorker = append(m.Calls.DeleteWorker, runId)
	if m.Impl.DeleteWorker != nil {
		return m.Impl.DeleteWorker(ctx, runId)
	}

	panic(errors.New("it should no be called"))
}
