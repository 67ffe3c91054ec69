package k8s

import (
	"context"
	"fmt"

	bconf "github.com/quaark/mlrun-remote-project/pkg/configs/backend"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	"github.com/quaark/mlrun-remote-project/pkg/domain/keychain/keyprovider"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform/k8s/cluster"
	"github.com/quaark/mlrun-remote-project/pkg/domain/run/k8s/worker"
)

type Interface interface {
	// Initialize prepares cluster-side prerequisites of the run.
	//
	// It makes sure the signing key for run tokens exists,
	// so workers spawned later can authenticate against the API.
	Initialize(ctx context.Context, r domain.Run) error

	// SpawnWorker starts a k8s Job executing the run's step.
	SpawnWorker(ctx context.Context, r domain.Run, envvars map[string]string) (worker.Worker, error)

	// SpawnServing stands a model server (Deployment + Service) for the run's step.
	SpawnServing(ctx context.Context, r domain.Run, model worker.ModelAssignment, envvars map[string]string) (worker.Worker, error)

	// FindWorker finds the workload of the run, whichever kind of function it runs.
	FindWorker(ctx context.Context, r domain.RunBody) (worker.Worker, error)
}

type impl struct {
	cluster cluster.Cluster
	conf    *bconf.ClusterConfig
	keys    keyprovider.KeyProvider
}

func New(conf *bconf.ClusterConfig, cluster cluster.Cluster, keys keyprovider.KeyProvider) Interface {
	return &impl{
		cluster: cluster,
		conf:    conf,
		keys:    keys,
	}
}

func (i *impl) Initialize(ctx context.Context, r domain.Run) error {
	_, _, err := i.keys.Provide(ctx)
	return err
}

func (i *impl) SpawnWorker(ctx context.Context, r domain.Run, envvars map[string]string) (worker.Worker, error) {
	ex, err := worker.New(&r, envvars)
	if err != nil {
		return nil, err
	}
	return worker.Spawn(
		ctx, i.cluster, i.conf, ex,
	)
}

func (i *impl) SpawnServing(ctx context.Context, r domain.Run, model worker.ModelAssignment, envvars map[string]string) (worker.Worker, error) {
	s, err := worker.NewServing(&r, model, envvars)
	if err != nil {
		return nil, err
	}
	return worker.SpawnServing(ctx, i.cluster, i.conf, s)
}

func (i *impl) FindWorker(ctx context.Context, rb domain.RunBody) (worker.Worker, error) {
	if rb.Function == nil {
		return nil, fmt.Errorf("malformed [runId:%s]: not a step run", rb.Id)
	}
	if rb.Function.Kind == domain.KindServing {
		return worker.FindServing(ctx, i.cluster, rb)
	}
	return worker.Find(ctx, i.cluster, rb)
}
