package worker

import (
	"context"
	"io"
	"time"

	bconf "github.com/quaark/mlrun-remote-project/pkg/configs/backend"
	types "github.com/quaark/mlrun-remote-project/pkg/domain"
	k8serrors "github.com/quaark/mlrun-remote-project/pkg/domain/errors/k8serrors"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform/k8s/cluster"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform/k8s/metasource"
	"github.com/quaark/mlrun-remote-project/pkg/utils/retry"
	kubeapps "k8s.io/api/apps/v1"
	kubebatch "k8s.io/api/batch/v1"
)

type Worker interface {
	// RunId returns the run ID of the worker
	RunId() string

	// JobStatus returns the status of the worker's workload.
	JobStatus(ctx context.Context) cluster.JobStatus

	// Log returns the log of the worker's main container.
	//
	// # Returns
	//
	// - io.ReadCloser : the log stream of the main container.
	//
	// - error : error if any.
	Log(ctx context.Context) (io.ReadCloser, error)

	// Close closes the worker
	Close() error
}

type jobWorker struct {
	runId string
	job   cluster.Job
}

func (w *jobWorker) RunId() string {
	return w.runId
}

func (w *jobWorker) JobStatus(ctx context.Context) cluster.JobStatus {
	return w.job.Status(ctx)
}

func (w *jobWorker) Log(ctx context.Context) (io.ReadCloser, error) {
	return w.job.Log(ctx, "main")
}

func (w *jobWorker) Close() error {
	return w.job.Close()
}

type servingWorker struct {
	runId string
	depl  cluster.Deployment
	svc   cluster.Service
}

func (w *servingWorker) RunId() string {
	return w.runId
}

// JobStatus reads the model server's progress off the Deployment.
//
// The Deployment counts a replica available only after the model server
// answers its readiness probe, so "all desired replicas available" means
// the endpoint can take inferences. The worker reports Succeeded then;
// the run completes while the Deployment lives on behind the endpoint.
func (w *servingWorker) JobStatus(ctx context.Context) cluster.JobStatus {
	if w.depl.DesiredReplicas() <= w.depl.AvailableReplicas() {
		return cluster.JobStatus{
			Type: cluster.Succeeded, Message: "model server is ready",
		}
	}
	return cluster.JobStatus{
		Type: cluster.Pending, Message: "model server is not ready",
	}
}

func (w *servingWorker) Log(ctx context.Context) (io.ReadCloser, error) {
	return w.depl.Log(ctx, "mlserve")
}

func (w *servingWorker) Close() error {
	if err := w.depl.Close(); err != nil {
		return err
	}
	return w.svc.Close()
}

// spawn new Worker and start to Run
//
// # params:
//
// - ctx
//
// - cluster : where the Worker is spawned into
//
//   - ex : the spec of the run to be start.
//     New Workers are created based on the run spec "as-is basis",
//     and do not complement anything.
func Spawn(
	ctx context.Context,
	cluster cluster.Cluster,
	conf *bconf.ClusterConfig,
	ex metasource.ResourceBuilder[*bconf.ClusterConfig, *kubebatch.Job],
) (Worker, error) {
	prom := <-cluster.NewJob(
		ctx,
		retry.StaticBackoff(3*time.Second),
		ex.Build(conf),
	)

	if prom.Err != nil {
		return nil, prom.Err
	}

	return &jobWorker{
		runId: ex.Id(),
		job:   prom.Value,
	}, nil
}

// Find Workers that match runBody's criteria
func Find(
	ctx context.Context,
	cluster cluster.Cluster,
	runBody types.RunBody,
) (Worker, error) {
	prom := <-cluster.GetJob(
		ctx,
		retry.StaticBackoff(3*time.Second),
		runBody.WorkerName,
	)

	if prom.Err != nil {
		return nil, prom.Err
	}

	return &jobWorker{
		runId: runBody.Id,
		job:   prom.Value,
	}, nil
}

// the Deployment object exists. Replica availability is read via JobStatus,
// not awaited here, so spawning does not block on image pull or model load.
func deploymentHasBeenCreated(cluster.WithEvents[*kubeapps.Deployment]) error {
	return nil
}

// SpawnServing stands a model server online: a Deployment running the
// server and a Service in front of it, both named after the run's worker.
//
// When a resource already exists, the leftover of an interrupted spawn
// for the same run is adopted instead of failing, so respawning a run
// always converges to the full Deployment + Service pair.
//
// # Returns
//
// - Worker : the serving worker. Its JobStatus turns Succeeded when the
// model server gets ready.
//
// - error : errors come from the cluster, or context.Context
func SpawnServing(
	ctx context.Context,
	kcluster cluster.Cluster,
	conf *bconf.ClusterConfig,
	s *ServingSpec,
) (Worker, error) {
	backoff := retry.StaticBackoff(3 * time.Second)

	promSvc := kcluster.NewService(ctx, backoff, s.BuildService(conf))
	promDepl := kcluster.NewDeployment(ctx, backoff, s.Build(conf), deploymentHasBeenCreated)

	drop := true
	var svc cluster.Service
	var depl cluster.Deployment

	defer func() {
		if !drop {
			return
		}
		if svc != nil {
			svc.Close()
		}
		if depl != nil {
			depl.Close()
		}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p := <-promSvc:
		if p.Err == nil {
			svc = p.Value
		} else if k8serrors.AsConflict(p.Err) {
			pp := <-kcluster.GetService(ctx, backoff, s.Instance())
			if pp.Err != nil {
				return nil, pp.Err
			}
			svc = pp.Value
		} else {
			return nil, p.Err
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p := <-promDepl:
		if p.Err == nil {
			depl = p.Value
		} else if k8serrors.AsConflict(p.Err) {
			pp := <-kcluster.GetDeployment(ctx, backoff, s.Instance(), deploymentHasBeenCreated)
			if pp.Err != nil {
				return nil, pp.Err
			}
			depl = pp.Value
		} else {
			return nil, p.Err
		}
	}

	drop = false
	return &servingWorker{
		runId: s.Id(),
		depl:  depl,
		svc:   svc,
	}, nil
}

// FindServing finds the model server workload of runBody.
//
// The Deployment is taken as a fresh snapshot whatever its replica count,
// so callers observe the current readiness via JobStatus.
func FindServing(
	ctx context.Context,
	kcluster cluster.Cluster,
	runBody types.RunBody,
) (Worker, error) {
	backoff := retry.StaticBackoff(3 * time.Second)

	promDepl := kcluster.GetDeployment(ctx, backoff, runBody.WorkerName, deploymentHasBeenCreated)
	promSvc := kcluster.GetService(ctx, backoff, runBody.WorkerName)

	pd := <-promDepl
	if pd.Err != nil {
		return nil, pd.Err
	}

	ps := <-promSvc
	if ps.Err != nil {
		return nil, ps.Err
	}

	return &servingWorker{
		runId: runBody.Id,
		depl:  pd.Value,
		svc:   ps.Value,
	}, nil
}
