package mock

import (
	"context"
	"io"
	"testing"

	"github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	apiartifacts "github.com/quaark/mlrun-remote-project/pkg/api/types/artifacts"
	apifunctions "github.com/quaark/mlrun-remote-project/pkg/api/types/functions"
	apiprojects "github.com/quaark/mlrun-remote-project/pkg/api/types/projects"
	apiruns "github.com/quaark/mlrun-remote-project/pkg/api/types/runs"
	apiserving "github.com/quaark/mlrun-remote-project/pkg/api/types/serving"
	apiworkflows "github.com/quaark/mlrun-remote-project/pkg/api/types/workflows"
)

type PutFunctionArgs struct {
	Project string
	Spec    apifunctions.Spec
}

type FindFunctionArgs struct {
	Project string
	Kinds   []apifunctions.Kind
}

type GetFunctionArgs struct {
	Project string
	Name    string
}

type PutWorkflowArgs struct {
	Project string
	Spec    apiworkflows.Spec
}

type GetWorkflowArgs struct {
	Project string
	Name    string
}

type TriggerRunArgs struct {
	Project  string
	Workflow string
	Trigger  apiruns.Trigger
}

type PostArtifactArgs struct {
	Token string
	Key   string
	Kind  apiartifacts.Kind
}

type GetArtifactArgs struct {
	Token string
	Key   string
}

func New(t *testing.T) *mockClient {
	return &mockClient{t: t}
}

type mockClient struct {
	t    *testing.T
	Impl struct {
		RegisterProject   func(ctx context.Context, spec apiprojects.Spec) (apiprojects.Detail, error)
		FindProject       func(ctx context.Context, names []string) ([]apiprojects.Summary, error)
		GetProject        func(ctx context.Context, name string) (apiprojects.Detail, error)
		DeleteProject     func(ctx context.Context, name string) error
		PostProjectSource func(ctx context.Context, name string, source io.Reader) (apiprojects.SourceSummary, error)
		GetProjectSource  func(ctx context.Context, name string, handler func(io.Reader) error) error
		PutFunction       func(ctx context.Context, project string, spec apifunctions.Spec) (apifunctions.Detail, error)
		FindFunction      func(ctx context.Context, project string, kinds []apifunctions.Kind) ([]apifunctions.Detail, error)
		GetFunction       func(ctx context.Context, project string, name string) (apifunctions.Detail, error)
		DeleteFunction    func(ctx context.Context, project string, name string) error
		PutWorkflow       func(ctx context.Context, project string, spec apiworkflows.Spec) (apiworkflows.Detail, error)
		FindWorkflow      func(ctx context.Context, project string) ([]apiworkflows.Detail, error)
		GetWorkflow       func(ctx context.Context, project string, name string) (apiworkflows.Detail, error)
		DeleteWorkflow    func(ctx context.Context, project string, name string) error
		TriggerRun        func(ctx context.Context, project string, workflow string, trigger apiruns.Trigger) (apiruns.Detail, error)
		FindRun           func(ctx context.Context, query rest.FindRunParameter) ([]apiruns.Summary, error)
		GetRun            func(ctx context.Context, runId string) (apiruns.Detail, error)
		GetRunLog         func(ctx context.Context, runId string, follow bool) (io.ReadCloser, error)
		Abort             func(ctx context.Context, runId string) (apiruns.Detail, error)
		Tearoff           func(ctx context.Context, runId string) (apiruns.Detail, error)
		Retry             func(ctx context.Context, runId string) error
		DeleteRun         func(ctx context.Context, runId string) error
		FindArtifact      func(ctx context.Context, query rest.FindArtifactParameter) ([]apiartifacts.Summary, error)
		PostArtifact      func(ctx context.Context, token string, key string, kind apiartifacts.Kind, content io.Reader) (apiartifacts.Summary, error)
		GetArtifact       func(ctx context.Context, token string, key string, handler func(io.Reader) error) error
		FindEndpoint      func(ctx context.Context, query rest.FindEndpointParameter) ([]apiserving.Detail, error)
		GetEndpoint       func(ctx context.Context, name string) (apiserving.Detail, error)
		RetireEndpoint    func(ctx context.Context, name string) (apiserving.Detail, error)
		Infer             func(ctx context.Context, name string, payload io.Reader) (apiserving.InferResponse, error)
	}
	Calls struct {
		RegisterProject   []apiprojects.Spec
		FindProject       [][]string
		GetProject        []string
		DeleteProject     []string
		PostProjectSource []string
		GetProjectSource  []string
		PutFunction       []PutFunctionArgs
		FindFunction      []FindFunctionArgs
		GetFunction       []GetFunctionArgs
		DeleteFunction    []GetFunctionArgs
		PutWorkflow       []PutWorkflowArgs
		FindWorkflow      []string
		GetWorkflow       []GetWorkflowArgs
		DeleteWorkflow    []GetWorkflowArgs
		TriggerRun        []TriggerRunArgs
		FindRun           []rest.FindRunParameter
		GetRun            []string
		GetRunLog         []struct {
			RunId  string
			Follow bool
		}
		Abort          []string
		Tearoff        []string
		Retry          []string
		DeleteRun      []string
		FindArtifact   []rest.FindArtifactParameter
		PostArtifact   []PostArtifactArgs
		GetArtifact    []GetArtifactArgs
		FindEndpoint   []rest.FindEndpointParameter
		GetEndpoint    []string
		RetireEndpoint []string
		Infer          []string
	}
}

var _ rest.Client = &mockClient{}

func (m *mockClient) RegisterProject(ctx context.Context, spec apiprojects.Spec) (apiprojects.Detail, error) {
	m.t.Helper()

	m.Calls.RegisterProject = append(m.Calls.RegisterProject, spec)
	if m.Impl.RegisterProject == nil {
		m.t.Fatal("RegisterProject is not ready to be called")
	}
	return m.Impl.RegisterProject(ctx, spec)
}

func (m *mockClient) FindProject(ctx context.Context, names []string) ([]apiprojects.Summary, error) {
	m.t.Helper()

	m.Calls.FindProject = append(m.Calls.FindProject, names)
	if m.Impl.FindProject == nil {
		m.t.Fatal("FindProject is not ready to be called")
	}
	return m.Impl.FindProject(ctx, names)
}

func (m *mockClient) GetProject(ctx context.Context, name string) (apiprojects.Detail, error) {
	m.t.Helper()

	m.Calls.GetProject = append(m.Calls.GetProject, name)
	if m.Impl.GetProject == nil {
		m.t.Fatal("GetProject is not ready to be called")
	}
	return m.Impl.GetProject(ctx, name)
}

func (m *mockClient) DeleteProject(ctx context.Context, name string) error {
	m.t.Helper()

	m.Calls.DeleteProject = append(m.Calls.DeleteProject, name)
	if m.Impl.DeleteProject == nil {
		m.t.Fatal("DeleteProject is not ready to be called")
	}
	return m.Impl.DeleteProject(ctx, name)
}

func (m *mockClient) PostProjectSource(ctx context.Context, name string, source io.Reader) (apiprojects.SourceSummary, error) {
	m.t.Helper()

	m.Calls.PostProjectSource = append(m.Calls.PostProjectSource, name)
	if m.Impl.PostProjectSource == nil {
		m.t.Fatal("PostProjectSource is not ready to be called")
	}
	return m.Impl.PostProjectSource(ctx, name, source)
}

func (m *mockClient) GetProjectSource(ctx context.Context, name string, handler func(io.Reader) error) error {
	m.t.Helper()

	m.Calls.GetProjectSource = append(m.Calls.GetProjectSource, name)
	if m.Impl.GetProjectSource == nil {
		m.t.Fatal("GetProjectSource is not ready to be called")
	}
	return m.Impl.GetProjectSource(ctx, name, handler)
}

func (m *mockClient) PutFunction(ctx context.Context, project string, spec apifunctions.Spec) (apifunctions.Detail, error) {
	m.t.Helper()

	m.Calls.PutFunction = append(m.Calls.PutFunction, PutFunctionArgs{Project: project, Spec: spec})
	if m.Impl.PutFunction == nil {
		m.t.Fatal("PutFunction is not ready to be called")
	}
	return m.Impl.PutFunction(ctx, project, spec)
}

func (m *mockClient) FindFunction(ctx context.Context, project string, kinds []apifunctions.Kind) ([]apifunctions.Detail, error) {
	m.t.Helper()

	m.Calls.FindFunction = append(m.Calls.FindFunction, FindFunctionArgs{Project: project, Kinds: kinds})
	if m.Impl.FindFunction == nil {
		m.t.Fatal("FindFunction is not ready to be called")
	}
	return m.Impl.FindFunction(ctx, project, kinds)
}

func (m *mockClient) GetFunction(ctx context.Context, project string, name string) (apifunctions.Detail, error) {
	m.t.Helper()

	m.Calls.GetFunction = append(m.Calls.GetFunction, GetFunctionArgs{Project: project, Name: name})
	if m.Impl.GetFunction == nil {
		m.t.Fatal("GetFunction is not ready to be called")
	}
	return m.Impl.GetFunction(ctx, project, name)
}

func (m *mockClient) DeleteFunction(ctx context.Context, project string, name string) error {
	m.t.Helper()

	m.Calls.DeleteFunction = append(m.Calls.DeleteFunction, GetFunctionArgs{Project: project, Name: name})
	if m.Impl.DeleteFunction == nil {
		m.t.Fatal("DeleteFunction is not ready to be called")
	}
	return m.Impl.DeleteFunction(ctx, project, name)
}

func (m *mockClient) PutWorkflow(ctx context.Context, project string, spec apiworkflows.Spec) (apiworkflows.Detail, error) {
	m.t.Helper()

	m.Calls.PutWorkflow = append(m.Calls.PutWorkflow, PutWorkflowArgs{Project: project, Spec: spec})
	if m.Impl.PutWorkflow == nil {
		m.t.Fatal("PutWorkflow is not ready to be called")
	}
	return m.Impl.PutWorkflow(ctx, project, spec)
}

func (m *mockClient) FindWorkflow(ctx context.Context, project string) ([]apiworkflows.Detail, error) {
	m.t.Helper()

	m.Calls.FindWorkflow = append(m.Calls.FindWorkflow, project)
	if m.Impl.FindWorkflow == nil {
		m.t.Fatal("FindWorkflow is not ready to be called")
	}
	return m.Impl.FindWorkflow(ctx, project)
}

func (m *mockClient) GetWorkflow(ctx context.Context, project string, name string) (apiworkflows.Detail, error) {
	m.t.Helper()

	m.Calls.GetWorkflow = append(m.Calls.GetWorkflow, GetWorkflowArgs{Project: project, Name: name})
	if m.Impl.GetWorkflow == nil {
		m.t.Fatal("GetWorkflow is not ready to be called")
	}
	return m.Impl.GetWorkflow(ctx, project, name)
}

func (m *mockClient) DeleteWorkflow(ctx context.Context, project string, name string) error {
	m.t.Helper()

	m.Calls.DeleteWorkflow = append(m.Calls.DeleteWorkflow, GetWorkflowArgs{Project: project, Name: name})
	if m.Impl.DeleteWorkflow == nil {
		m.t.Fatal("DeleteWorkflow is not ready to be called")
	}
	return m.Impl.DeleteWorkflow(ctx, project, name)
}

func (m *mockClient) TriggerRun(ctx context.Context, project string, workflow string, trigger apiruns.Trigger) (apiruns.Detail, error) {
	m.t.Helper()

	m.Calls.TriggerRun = append(m.Calls.TriggerRun, TriggerRunArgs{Project: project, Workflow: workflow, Trigger: trigger})
	if m.Impl.TriggerRun == nil {
		m.t.Fatal("TriggerRun is not ready to be called")
	}
	return m.Impl.TriggerRun(ctx, project, workflow, trigger)
}

func (m *mockClient) FindRun(ctx context.Context, query rest.FindRunParameter) ([]apiruns.Summary, error) {
	m.t.Helper()

	m.Calls.FindRun = append(m.Calls.FindRun, query)
	if m.Impl.FindRun == nil {
		m.t.Fatal("FindRun is not ready to be called")
	}
	return m.Impl.FindRun(ctx, query)
}

func (m *mockClient) GetRun(ctx context.Context, runId string) (apiruns.Detail, error) {
	m.t.Helper()

	m.Calls.GetRun = append(m.Calls.GetRun, runId)
	if m.Impl.GetRun == nil {
		m.t.Fatal("GetRun is not ready to be called")
	}
	return m.Impl.GetRun(ctx, runId)
}

func (m *mockClient) GetRunLog(ctx context.Context, runId string, follow bool) (io.ReadCloser, error) {
	m.t.Helper()

	m.Calls.GetRunLog = append(m.Calls.GetRunLog, struct {
		RunId  string
		Follow bool
	}{
		RunId:  runId,
		Follow: follow,
	})
	if m.Impl.GetRunLog == nil {
		m.t.Fatal("GetRunLog is not ready to be called")
	}
	return m.Impl.GetRunLog(ctx, runId, follow)
}

func (m *mockClient) Abort(ctx context.Context, runId string) (apiruns.Detail, error) {
	m.t.Helper()

	m.Calls.Abort = append(m.Calls.Abort, runId)
	if m.Impl.Abort == nil {
		m.t.Fatal("Abort is not ready to be called")
	}
	return m.Impl.Abort(ctx, runId)
}

func (m *mockClient) Tearoff(ctx context.Context, runId string) (apiruns.Detail, error) {
	m.t.Helper()

	m.Calls.Tearoff = append(m.Calls.Tearoff, runId)
	if m.Impl.Tearoff == nil {
		m.t.Fatal("Tearoff is not ready to be called")
	}
	return m.Impl.Tearoff(ctx, runId)
}

func (m *mockClient) Retry(ctx context.Context, runId string) error {
	m.t.Helper()

	m.Calls.Retry = append(m.Calls.Retry, runId)
	if m.Impl.Retry == nil {
		m.t.Fatal("Retry is not ready to be called")
	}
	return m.Impl.Retry(ctx, runId)
}

func (m *mockClient) DeleteRun(ctx context.Context, runId string) error {
	m.t.Helper()

	m.Calls.DeleteRun = append(m.Calls.DeleteRun, runId)
	if m.Impl.DeleteRun == nil {
		m.t.Fatal("DeleteRun is not ready to be called")
	}
	return m.Impl.DeleteRun(ctx, runId)
}

func (m *mockClient) FindArtifact(ctx context.Context, query rest.FindArtifactParameter) ([]apiartifacts.Summary, error) {
	m.t.Helper()

	m.Calls.FindArtifact = append(m.Calls.FindArtifact, query)
	if m.Impl.FindArtifact == nil {
		m.t.Fatal("FindArtifact is not ready to be called")
	}
	return m.Impl.FindArtifact(ctx, query)
}

func (m *mockClient) PostArtifact(ctx context.Context, token string, key string, kind apiartifacts.Kind, content io.Reader) (apiartifacts.Summary, error) {
	m.t.Helper()

	m.Calls.PostArtifact = append(m.Calls.PostArtifact, PostArtifactArgs{Token: token, Key: key, Kind: kind})
	if m.Impl.PostArtifact == nil {
		m.t.Fatal("PostArtifact is not ready to be called")
	}
	return m.Impl.PostArtifact(ctx, token, key, kind, content)
}

func (m *mockClient) GetArtifact(ctx context.Context, token string, key string, handler func(io.Reader) error) error {
	m.t.Helper()

	m.Calls.GetArtifact = append(m.Calls.GetArtifact, GetArtifactArgs{Token: token, Key: key})
	if m.Impl.GetArtifact == nil {
		m.t.Fatal("GetArtifact is not ready to be called")
	}
	return m.Impl.GetArtifact(ctx, token, key, handler)
}

func (m *mockClient) FindEndpoint(ctx context.Context, query rest.FindEndpointParameter) ([]apiserving.Detail, error) {
	m.t.Helper()

	m.Calls.FindEndpoint = append(m.Calls.FindEndpoint, query)
	if m.Impl.FindEndpoint == nil {
		m.t.Fatal("FindEndpoint is not ready to be called")
	}
	return m.Impl.FindEndpoint(ctx, query)
}

func (m *mockClient) GetEndpoint(ctx context.Context, name string) (apiserving.Detail, error) {
	m.t.Helper()

	m.Calls.GetEndpoint = append(m.Calls.GetEndpoint, name)
	if m.Impl.GetEndpoint == nil {
		m.t.Fatal("GetEndpoint is not ready to be called")
	}
	return m.Impl.GetEndpoint(ctx, name)
}

func (m *mockClient) RetireEndpoint(ctx context.Context, name string) (apiserving.Detail, error) {
	m.t.Helper()

	m.Calls.RetireEndpoint = append(m.Calls.RetireEndpoint, name)
	if m.Impl.RetireEndpoint == nil {
		m.t.Fatal("RetireEndpoint is not ready to be called")
	}
	return m.Impl.RetireEndpoint(ctx, name)
}

func (m *mockClient) Infer(ctx context.Context, name string, payload io.Reader) (apiserving.InferResponse, error) {
	m.t.Helper()

	m.Calls.Infer = append(m.Calls.Infer, name)
	if m.Impl.Infer == nil {
		m.t.Fatal("Infer is not ready to be called")
	}
	return m.Impl.Infer(ctx, name, payload)
}
