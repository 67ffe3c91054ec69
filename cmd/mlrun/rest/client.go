package rest

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	kprof "github.com/quaark/mlrun-remote-project/cmd/mlrun/config/profiles"
	apiartifacts "github.com/quaark/mlrun-remote-project/pkg/api/types/artifacts"
	apifunctions "github.com/quaark/mlrun-remote-project/pkg/api/types/functions"
	apiprojects "github.com/quaark/mlrun-remote-project/pkg/api/types/projects"
	apiruns "github.com/quaark/mlrun-remote-project/pkg/api/types/runs"
	apiserving "github.com/quaark/mlrun-remote-project/pkg/api/types/serving"
	apiworkflows "github.com/quaark/mlrun-remote-project/pkg/api/types/workflows"
	"github.com/quaark/mlrun-remote-project/pkg/utils/slices"
)

type Client interface {
	// RegisterProject registers a project, or returns the
	// already-registered one with the same name as it is.
	//
	// Args
	//
	// - context.Context
	//
	// - apiprojects.Spec: name and source of the project
	//
	// Returns
	//
	// - apiprojects.Detail: the project, with its functions and workflows
	//
	// - error
	RegisterProject(ctx context.Context, spec apiprojects.Spec) (apiprojects.Detail, error)

	// FindProject lists projects.
	//
	// Args
	//
	// - context.Context
	//
	// - []string: names to filter with. Empty means "all projects".
	//
	// Returns
	//
	// - []apiprojects.Summary: found projects
	//
	// - error
	FindProject(ctx context.Context, names []string) ([]apiprojects.Summary, error)

	// GetProject gets a project with its functions and workflows.
	GetProject(ctx context.Context, name string) (apiprojects.Detail, error)

	// DeleteProject deletes a project.
	//
	// Functions, workflows, finished runs and artifact records of the
	// project go away with it.
	DeleteProject(ctx context.Context, name string) error

	// PostProjectSource uploads a tar.gz stream as the source archive
	// of the project.
	PostProjectSource(ctx context.Context, name string, source io.Reader) (apiprojects.SourceSummary, error)

	// GetProjectSource downloads the source archive of the project.
	//
	// Args
	//
	// - handler: function to be called for the raw tar.gz stream.
	// If handler returns an error, downloading is stopped and the error
	// is returned.
	GetProjectSource(ctx context.Context, name string, handler func(io.Reader) error) error

	// PutFunction registers (or updates) a function of a project.
	PutFunction(ctx context.Context, project string, spec apifunctions.Spec) (apifunctions.Detail, error)

	// FindFunction lists functions of a project.
	//
	// Args
	//
	// - context.Context
	//
	// - string: project name
	//
	// - []apifunctions.Kind: kinds to filter with. Empty means "any kind".
	//
	// Returns
	//
	// - []apifunctions.Detail: found functions
	//
	// - error
	FindFunction(ctx context.Context, project string, kinds []apifunctions.Kind) ([]apifunctions.Detail, error)

	// GetFunction gets a function of a project.
	GetFunction(ctx context.Context, project string, name string) (apifunctions.Detail, error)

	// DeleteFunction deletes a function of a project.
	DeleteFunction(ctx context.Context, project string, name string) error

	// PutWorkflow registers (or updates) a workflow of a project.
	PutWorkflow(ctx context.Context, project string, spec apiworkflows.Spec) (apiworkflows.Detail, error)

	// FindWorkflow lists workflows of a project.
	FindWorkflow(ctx context.Context, project string) ([]apiworkflows.Detail, error)

	// GetWorkflow gets a workflow of a project.
	GetWorkflow(ctx context.Context, project string, name string) (apiworkflows.Detail, error)

	// DeleteWorkflow deletes a workflow of a project.
	DeleteWorkflow(ctx context.Context, project string, name string) error

	// TriggerRun starts a pipeline run of a workflow.
	//
	// Args
	//
	// - context.Context
	//
	// - string: project name
	//
	// - string: workflow name
	//
	// - apiruns.Trigger: param overrides
	//
	// Returns
	//
	// - apiruns.Detail: the new pipeline run, with its step runs
	//
	// - error
	TriggerRun(ctx context.Context, project string, workflow string, trigger apiruns.Trigger) (apiruns.Detail, error)

	// FindRun finds pipeline runs with given project, workflow and status.
	FindRun(ctx context.Context, query FindRunParameter) ([]apiruns.Summary, error)

	// GetRun gets a pipeline run with its step runs.
	GetRun(ctx context.Context, runId string) (apiruns.Detail, error)

	// GetRunLog gets the log stream of a run.
	//
	// Args
	//
	// - context.Context
	//
	// - string: runId to be found
	//
	// - bool: follow the log while the run is running
	//
	// Returns
	//
	// - io.ReadCloser: stream of log
	//
	// - error
	GetRunLog(ctx context.Context, runId string, follow bool) (io.ReadCloser, error)

	// Abort stops a run with given runId, and lets it fail.
	Abort(ctx context.Context, runId string) (apiruns.Detail, error)

	// Tearoff stops a run with given runId gently.
	//
	// The run will be "completing" status after this operation.
	Tearoff(ctx context.Context, runId string) (apiruns.Detail, error)

	// Retry retries a finished pipeline run with given runId.
	Retry(ctx context.Context, runId string) error

	// DeleteRun deletes a run with given runId.
	DeleteRun(ctx context.Context, runId string) error

	// FindArtifact searches artifact records.
	FindArtifact(ctx context.Context, query FindArtifactParameter) ([]apiartifacts.Summary, error)

	// PostArtifact uploads an object and registers it as an artifact.
	//
	// The route is run-token protected: token is the run token of the
	// run named in the key ("<project>/<run id>/<name>").
	PostArtifact(ctx context.Context, token string, key string, kind apiartifacts.Kind, content io.Reader) (apiartifacts.Summary, error)

	// GetArtifact downloads an artifact object.
	//
	// The route is run-token protected: token is a run token of the
	// project owning the key.
	//
	// Args
	//
	// - handler: function to be called for the raw stream.
	// If handler returns an error, downloading is stopped and the error
	// is returned.
	GetArtifact(ctx context.Context, token string, key string, handler func(io.Reader) error) error

	// FindEndpoint lists model endpoints.
	FindEndpoint(ctx context.Context, query FindEndpointParameter) ([]apiserving.Detail, error)

	// GetEndpoint gets a model endpoint.
	GetEndpoint(ctx context.Context, name string) (apiserving.Detail, error)

	// RetireEndpoint takes a model endpoint out of service.
	RetireEndpoint(ctx context.Context, name string) (apiserving.Detail, error)

	// Infer posts an inference payload to a model endpoint and returns
	// the answer of the model server.
	//
	// Args
	//
	// - context.Context
	//
	// - string: endpoint name
	//
	// - io.Reader: request payload ({"inputs": [[...], ...]} JSON)
	//
	// Returns
	//
	// - apiserving.InferResponse
	//
	// - error
	Infer(ctx context.Context, name string, payload io.Reader) (apiserving.InferResponse, error)
}

type client struct {
	httpclient *http.Client
	api        string
}

// create new client for a Profile
//
// # Args
//
// - *kprof.Profile
//
// # Return
//
// - Client: created client
//
// - error: If given profile is invalid, ErrProfileInvalid is returned.
func NewClient(prof *kprof.Profile) (Client, error) {
	if err := prof.Verify(); err != nil {
		return nil, err
	}
	httpclient := new(http.Client)

	if prof.Cert.CA != "" {
		hc, err := trustCa(httpclient, []string{prof.Cert.CA})
		if err != nil {
			return nil, err
		}
		httpclient = hc
	}

	c := &client{
		httpclient: httpclient,
		api:        strings.TrimSuffix(prof.ApiRoot, "/"),
	}

	return c, nil
}

// build URL with path
func (c *client) apipath(path ...string) string {
	path = slices.Map(path, func(p string) string {
		return strings.TrimPrefix(strings.TrimSuffix(p, "/"), "/")
	})

	return strings.Join(append([]string{c.api}, path...), "/")
}

func trustCa(hc *http.Client, cacerts []string) (*http.Client, error) {
	if len(cacerts) <= 0 {
		return hc, nil
	}

	if hc.Transport == nil {
		hc.Transport = http.DefaultTransport
	}

	tran, ok := hc.Transport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("failed to add ca cert")
	}
	tran = tran.Clone()

	tcc := tran.TLSClientConfig.Clone()
	if tcc == nil {
		tcc = &tls.Config{}
	}

	rootcas := tcc.RootCAs
	if rootcas == nil {
		rootcas = x509.NewCertPool()
		tcc.RootCAs = rootcas
	}
	for _, ca := range cacerts {
		bin, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, err
		}

		if !rootcas.AppendCertsFromPEM(bin) {
			return nil, fmt.Errorf("failed to add cert")
		}
	}

	tran.TLSClientConfig = tcc
	hc.Transport = tran
	return hc, nil
}
