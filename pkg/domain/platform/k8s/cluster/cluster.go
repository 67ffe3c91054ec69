package cluster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	kubeapps "k8s.io/api/apps/v1"
	kubebatch "k8s.io/api/batch/v1"
	kubecore "k8s.io/api/core/v1"
	kubeevents "k8s.io/api/events/v1"
	kubeerr "k8s.io/apimachinery/pkg/api/errors"
	kubeapimeta "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8s "k8s.io/client-go/kubernetes"
	applyconfigurations "k8s.io/client-go/applyconfigurations/core/v1"

	k8serrors "github.com/quaark/mlrun-remote-project/pkg/domain/errors/k8serrors"
	"github.com/quaark/mlrun-remote-project/pkg/utils/retry"
)

const fieldManager = "mlrun"

// subset of k8s.Clientset
type K8sClient interface {
	GetService(ctx context.Context, namespace string, svcname string) (*kubecore.Service, error)
	CreateService(ctx context.Context, namespace string, svc *kubecore.Service) (*kubecore.Service, error)
	DeleteService(ctx context.Context, namespace string, svcname string) error

	GetDeployment(ctx context.Context, namespace string, deplname string) (*kubeapps.Deployment, error)
	CreateDeployment(ctx context.Context, namespace string, depl *kubeapps.Deployment) (*kubeapps.Deployment, error)
	DeleteDeployment(ctx context.Context, namespace string, deplname string) error

	GetJob(ctx context.Context, namespace string, name string) (*kubebatch.Job, error)
	CreateJob(ctx context.Context, namespace string, spec *kubebatch.Job) (*kubebatch.Job, error)
	DeleteJob(ctx context.Context, namespace string, name string) error

	CreatePod(ctx context.Context, namespace string, spec *kubecore.Pod) (*kubecore.Pod, error)
	GetPod(ctx context.Context, namespace string, name string) (*kubecore.Pod, error)
	DeletePod(ctx context.Context, namespace string, name string) error
	FindPods(ctx context.Context, namespace string, labelSelector LabelSelector) ([]kubecore.Pod, error)

	UpsertSecret(ctx context.Context, namespace string, spec *applyconfigurations.SecretApplyConfiguration) (*kubecore.Secret, error)
	GetSecret(ctx context.Context, namespace string, name string) (*kubecore.Secret, error)
	DeleteSecret(ctx context.Context, namespace string, name string) error

	// GetEvents lists events reported for the object named in target.
	//
	// kind is the object kind, like "Pod" or "Job".
	GetEvents(ctx context.Context, kind string, target kubeapimeta.ObjectMeta) ([]kubeevents.Event, error)

	Log(ctx context.Context, namespace string, podname string, container string) (io.ReadCloser, error)
}

// A wrapper for the type k8s.Clientset; because it does not prefer method chain-style invocations of that type.
type k8sClient struct {
	client *k8s.Clientset
}

// type check: k8sClient implements K8sClient
var _ K8sClient = &k8sClient{}

func (k *k8sClient) CreateService(ctx context.Context, namespace string, svc *kubecore.Service) (*kubecore.Service, error) {
	return k.client.CoreV1().Services(namespace).Create(ctx, svc, kubeapimeta.CreateOptions{})
}

func (k *k8sClient) GetService(ctx context.Context, namespace string, svcname string) (*kubecore.Service, error) {
	return k.client.CoreV1().Services(namespace).Get(ctx, svcname, kubeapimeta.GetOptions{})
}

func (k *k8sClient) DeleteService(ctx context.Context, namespace string, svcname string) error {
	return k.client.CoreV1().Services(namespace).Delete(ctx, svcname, *kubeapimeta.NewDeleteOptions(0))
}

func (k *k8sClient) CreateDeployment(ctx context.Context, namespace string, depl *kubeapps.Deployment) (*kubeapps.Deployment, error) {
	return k.client.AppsV1().Deployments(namespace).Create(ctx, depl, kubeapimeta.CreateOptions{})
}

func (k *k8sClient) GetDeployment(ctx context.Context, namespace string, deplname string) (*kubeapps.Deployment, error) {
	return k.client.AppsV1().Deployments(namespace).Get(ctx, deplname, kubeapimeta.GetOptions{})
}

func (k *k8sClient) DeleteDeployment(ctx context.Context, namespace string, deplname string) error {
	foreground := kubeapimeta.DeletePropagationForeground
	zero := int64(0)
	return k.client.AppsV1().Deployments(namespace).Delete(ctx, deplname, kubeapimeta.DeleteOptions{
		GracePeriodSeconds: &zero,
		PropagationPolicy:  &foreground,
	})
}

func (k *k8sClient) CreateJob(ctx context.Context, namespace string, job *kubebatch.Job) (*kubebatch.Job, error) {
	return k.client.BatchV1().Jobs(namespace).Create(ctx, job, kubeapimeta.CreateOptions{})
}

func (k *k8sClient) GetJob(ctx context.Context, namespace string, name string) (*kubebatch.Job, error) {
	return k.client.BatchV1().Jobs(namespace).Get(ctx, name, kubeapimeta.GetOptions{})
}

func (k *k8sClient) DeleteJob(ctx context.Context, namespace string, name string) error {
	foreground := kubeapimeta.DeletePropagationForeground
	zero := int64(0)
	return k.client.BatchV1().Jobs(namespace).Delete(ctx, name, kubeapimeta.DeleteOptions{
		GracePeriodSeconds: &zero,
		PropagationPolicy:  &foreground,
	})
}

func (k *k8sClient) CreatePod(ctx context.Context, namespace string, pod *kubecore.Pod) (*kubecore.Pod, error) {
	return k.client.CoreV1().Pods(namespace).Create(ctx, pod, kubeapimeta.CreateOptions{})
}

func (k *k8sClient) GetPod(ctx context.Context, namespace string, name string) (*kubecore.Pod, error) {
	return k.client.CoreV1().Pods(namespace).Get(ctx, name, kubeapimeta.GetOptions{})
}

func (k *k8sClient) DeletePod(ctx context.Context, namespace string, podname string) error {
	return k.client.CoreV1().Pods(namespace).Delete(ctx, podname, *kubeapimeta.NewDeleteOptions(0))
}

func (k *k8sClient) FindPods(ctx context.Context, namespace string, labels LabelSelector) ([]kubecore.Pod, error) {
	resp, err := k.client.CoreV1().Pods(namespace).List(ctx, kubeapimeta.ListOptions{
		LabelSelector: labels.QueryString(),
	})
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (k *k8sClient) UpsertSecret(ctx context.Context, namespace string, spec *applyconfigurations.SecretApplyConfiguration) (*kubecore.Secret, error) {
	return k.client.CoreV1().Secrets(namespace).Apply(
		ctx, spec, kubeapimeta.ApplyOptions{FieldManager: fieldManager, Force: true},
	)
}

func (k *k8sClient) GetSecret(ctx context.Context, namespace string, name string) (*kubecore.Secret, error) {
	return k.client.CoreV1().Secrets(namespace).Get(ctx, name, kubeapimeta.GetOptions{})
}

func (k *k8sClient) DeleteSecret(ctx context.Context, namespace string, name string) error {
	return k.client.CoreV1().Secrets(namespace).Delete(ctx, name, *kubeapimeta.NewDeleteOptions(0))
}

func (k *k8sClient) GetEvents(ctx context.Context, kind string, target kubeapimeta.ObjectMeta) ([]kubeevents.Event, error) {
	resp, err := k.client.EventsV1().Events(target.Namespace).List(ctx, kubeapimeta.ListOptions{
		FieldSelector: fmt.Sprintf(
			"regarding.kind=%s,regarding.name=%s,regarding.namespace=%s",
			kind, target.Name, target.Namespace,
		),
	})
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (k *k8sClient) Log(ctx context.Context, namespace string, podname string, container string) (io.ReadCloser, error) {
	return k.client.
		CoreV1().
		Pods(namespace).
		GetLogs(podname, &kubecore.PodLogOptions{Container: container, Follow: true}).
		Stream(ctx)
}

func WrapK8sClient(c *k8s.Clientset) K8sClient {
	return &k8sClient{client: c}
}

// WithEvents bundles a k8s resource with events reported for it,
// so that Requirements can judge not only the resource status but also
// why it is (not) progressing.
type WithEvents[T any] struct {
	Value  T
	Events []kubeevents.Event
}

// SignificantEvent returns the latest event, or nil if no events are reported.
func (we WithEvents[T]) SignificantEvent() *kubeevents.Event {
	var sig *kubeevents.Event
	for i := range we.Events {
		e := &we.Events[i]
		if sig == nil || sig.EventTime.Time.Before(e.EventTime.Time) {
			sig = e
		}
	}
	return sig
}

// Requirement is a function that checks if creating k8s resource satisfies the requirement.
//
// # Return
//
// - error: When the value satisfies the requirement, return nil.
// If it is waiting to satisfy the requirement, return `retry.ErrRetry`.
// Otherwise, return error.
type Requirement[T any] func(value WithEvents[T]) error

func WithCheckpoint[T any](requirement Requirement[T], deadline time.Time) Requirement[T] {
	satisfied := false
	return func(value WithEvents[T]) error {
		if satisfied {
			return nil
		}
		if time.Now().After(deadline) {
			return k8serrors.ErrDeadlineExceeded
		}

		err := requirement(value)
		if err != nil {
			return err
		}

		satisfied = true
		return nil
	}
}

func satisfyAll[T any](value WithEvents[T], req []Requirement[T]) error {
	for _, r := range req {
		if err := r(value); err != nil {
			return err
		}
	}
	return nil
}

type service struct {
	resource *kubecore.Service
	domain   string
	close    func() error
}

// Abstraction of k8s Service
type Service interface {
	Namespace() string
	Name() string

	// get service domain name.
	Host() string

	// get service cluster IP
	IP() string

	// get named port number.
	Port(name string) int32

	// release resources.
	//
	// Delete service.
	Close() error
}

func (s *service) Namespace() string {
	return s.resource.GetNamespace()
}

func (s *service) Name() string {
	return s.resource.GetName()
}

func (s *service) IP() string {
	return s.resource.Spec.ClusterIP
}

func (s *service) Host() string {
	return fmt.Sprintf("%s.%s.svc.%s", s.Name(), s.Namespace(), s.domain)
}

// Get port number named as parameter `name`
//
// If not found, return `0`.
func (s *service) Port(name string) int32 {
	for _, p := range s.resource.Spec.Ports {
		if p.Name == name {
			return p.Port
		}
	}
	return 0
}

func (s *service) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

type deployment struct {
	resource *kubeapps.Deployment
	client   K8sClient
	onClose  func() error
}

var ErrDeploymentHasNoPods = errors.New("deployment has no pods")

// Abstraction of k8s Deployment
type Deployment interface {
	Name() string
	Namespace() string

	// replicas being available now.
	AvailableReplicas() int32

	// replicas wanted in spec.
	DesiredReplicas() int32

	// Log get log stream of the container in the deployment's (first) pod.
	//
	// # Return
	//
	// - io.ReadCloser: the log stream of the container.
	//
	// - error : ErrDeploymentHasNoPods when no pods are found, or other errors.
	Log(ctx context.Context, containerName string) (io.ReadCloser, error)

	// release resources.
	//
	// Delete deployment and related pods
	Close() error
}

func (d *deployment) Namespace() string {
	return d.resource.GetNamespace()
}

func (d *deployment) Name() string {
	return d.resource.GetName()
}

func (d *deployment) AvailableReplicas() int32 {
	return d.resource.Status.AvailableReplicas
}

func (d *deployment) DesiredReplicas() int32 {
	if r := d.resource.Spec.Replicas; r != nil {
		return *r
	}
	return 1
}

func (d *deployment) pods(ctx context.Context) ([]kubecore.Pod, error) {
	selector := LabelSelector{}
	if s := d.resource.Spec.Selector; s != nil {
		selector = LabelsToSelecor(s.MatchLabels)
	}
	return d.client.FindPods(ctx, d.resource.Namespace, selector)
}

func (d *deployment) Log(ctx context.Context, containerName string) (io.ReadCloser, error) {
	pods, err := d.pods(ctx)
	if err != nil || len(pods) == 0 {
		return nil, ErrDeploymentHasNoPods
	}
	pod := pods[0]
	return d.client.Log(ctx, pod.Namespace, pod.Name, containerName)
}

func (d *deployment) Close() error {
	if d.onClose == nil {
		return nil
	}
	return d.onClose()
}

type JobStatusType string

const (
	// no pods have been started.
	Pending JobStatusType = "Pending"

	// at least one pod has started, and the job has not completed.
	Running JobStatusType = "Running"

	// some pod is scheduled but cannot start, and a Warning event is reported for it.
	Stucking JobStatusType = "Stucking"

	// the job is succeeded.
	//
	// In case of parallel > 1, some pods can be failed.
	Succeeded JobStatusType = "Succeeded"

	// the job is failed.
	//
	// In case of parallel, some pods can be succeeded.
	Failed JobStatusType = "Failed"
)

type JobStatus struct {
	Type JobStatusType

	// exit code of the terminated container (Failed),
	// or 255 when the job is Stucking.
	//
	// Zero otherwise.
	Code uint8

	// human readable explanation for Code.
	Message string
}

var ErrJobHasNoPods = errors.New("job has no pods")

// abstraction of k8s job.
type Job interface {
	// the name of the job
	Name() string

	// the namespace where the job is placed in
	Namespace() string

	// how does the job progress, at least.
	//
	// Pod statuses and their events are queried at each call,
	// so this value reflects the cluster at the time of invocation.
	Status(ctx context.Context) JobStatus

	// Log get log stream of the container in the job's (first) pod.
	//
	// # Args
	//
	// - ctx context.Context
	//
	// - containerName string: name of container to get log
	//
	// # Return
	//
	// - io.ReadCloser: the log stream of the container.
	//
	// - error : ErrJobHasNoPods when no pods are found for the job, or other errors.
	Log(ctx context.Context, containerName string) (io.ReadCloser, error)

	// destroy the job. If the job is running or pending, it can be aborted.
	Close() error
}

type job struct {
	job    *kubebatch.Job
	client K8sClient
	close  func() error
}

var _ Job = &job{}

func (j *job) Name() string {
	return j.job.Name
}

func (j *job) Namespace() string {
	return j.job.Namespace
}

func (j *job) pods(ctx context.Context) ([]kubecore.Pod, error) {
	selector := LabelSelector{}
	if s := j.job.Spec.Selector; s != nil {
		selector = LabelsToSelecor(s.MatchLabels)
	}
	return j.client.FindPods(ctx, j.job.Namespace, selector)
}

func (j *job) Status(ctx context.Context) JobStatus {
	for _, sc := range j.job.Status.Conditions {
		if sc.Status != "True" {
			continue
		}
		switch sc.Type {
		case kubebatch.JobComplete:
			return JobStatus{Type: Succeeded}
		case kubebatch.JobFailed:
			st := JobStatus{Type: Failed}
			pods, err := j.pods(ctx)
			if err != nil {
				return st
			}
			for _, p := range pods {
				for _, c := range p.Status.ContainerStatuses {
					term := c.State.Terminated
					if term == nil || term.ExitCode == 0 {
						continue
					}
					st.Code = uint8(term.ExitCode)
					st.Message = fmt.Sprintf("(container %s) %s", c.Name, term.Reason)
					return st
				}
			}
			return st
		}
	}

	pods, err := j.pods(ctx)
	if err != nil || len(pods) == 0 {
		return JobStatus{Type: Pending}
	}

	started := false
	for _, p := range pods {
		switch p.Status.Phase {
		case kubecore.PodRunning, kubecore.PodSucceeded, kubecore.PodFailed:
			started = true
			continue
		}

		// the pod has not been started. unscheduled pods are just waiting
		// for cluster capacity; scheduled ones which still report Warnings
		// are stucking.
		scheduled := false
		for _, cond := range p.Status.Conditions {
			if cond.Type == kubecore.PodScheduled && cond.Status == kubecore.ConditionTrue {
				scheduled = true
				break
			}
		}
		if !scheduled {
			continue
		}

		events, err := j.client.GetEvents(ctx, "Pod", p.ObjectMeta)
		if err != nil {
			continue
		}
		sig := WithEvents[*kubecore.Pod]{Events: events}.SignificantEvent()
		if sig == nil || sig.Type != "Warning" {
			continue
		}
		return JobStatus{
			Type: Stucking, Code: 255,
			Message: fmt.Sprintf("(pod %s) [%s] %s", p.Name, sig.Reason, sig.Note),
		}
	}

	if started {
		return JobStatus{Type: Running}
	}
	return JobStatus{Type: Pending}
}

func (j *job) Log(ctx context.Context, containerName string) (io.ReadCloser, error) {
	pods, err := j.pods(ctx)
	if err != nil || len(pods) == 0 {
		return nil, ErrJobHasNoPods
	}
	pod := pods[0]
	return j.client.Log(ctx, pod.Namespace, pod.Name, containerName)
}

func (j *job) Close() error {
	if j.close == nil {
		return nil
	}
	return j.close()
}

type PodPhase kubecore.PodPhase

var (
	PodPending   PodPhase = PodPhase(kubecore.PodPending)
	PodRunning   PodPhase = PodPhase(kubecore.PodRunning)
	PodSucceeded PodPhase = PodPhase(kubecore.PodSucceeded)
	PodFailed    PodPhase = PodPhase(kubecore.PodFailed)
	PodUnknown   PodPhase = PodPhase(kubecore.PodUnknown)
)

type Pod interface {
	Name() string
	Status() PodPhase
	Host() string
	Ports() map[string]int32
	Close() error
}

type pod struct {
	description kubecore.Pod
	onClose     func() error
}

func (p *pod) Name() string {
	return p.description.Name
}

func (p *pod) Status() PodPhase {
	return PodPhase(p.description.Status.Phase)
}

func (p *pod) Host() string {
	return p.description.Status.PodIP
}

func (p *pod) Ports() map[string]int32 {
	ports := map[string]int32{}
	for _, c := range p.description.Spec.Containers {
		for _, p := range c.Ports {
			ports[p.Name] = p.ContainerPort
		}
	}
	return ports
}

func (p *pod) Close() error {
	if p.onClose == nil {
		return nil
	}
	return p.onClose()
}

// Abstraction of k8s Secret
type Secret interface {
	Name() string
	Data() map[string][]byte
}

type secret struct {
	resource *kubecore.Secret
}

func (s *secret) Name() string {
	return s.resource.GetName()
}

func (s *secret) Data() map[string][]byte {
	return s.resource.Data
}

type Cluster interface {
	Namespace() string
	Domain() string

	// Create new Service and wait for it to satisfy all requirements.
	//
	// Args
	//
	// - ctx context.Context
	//
	// - backoff retry.Backoff: backoff policy to wait for Service satisfy all requirements.
	//
	// - svcconf *Service: spec of wanted Service
	//
	// - requirements ...Requirement[*Service]: requirements for the Service.
	// If not given, ServiceIsReady is used as default.
	//
	// Return
	//
	// - retry.Promise[Service]
	//
	// Promise which is resolved when the Service is created & satisfied requirements.
	//
	// The Promise may have Error below:
	//
	// - k8serrors.ErrConflict: Service is already created.
	//
	// - k8serrors.ErrMissing: Service is missing after created until meets requirements.
	//
	// - other errors come from Requirements and context.Context
	//
	// Whether or not the Promise has Error, service can be created.
	// So, you may need to Close() it.
	NewService(context.Context, retry.Backoff, *kubecore.Service, ...Requirement[*kubecore.Service]) retry.Promise[Service]

	// Get existing Service.
	GetService(context.Context, retry.Backoff, string, ...Requirement[*kubecore.Service]) retry.Promise[Service]

	// Delete Service by name. It is not an error if the Service does not exist.
	DeleteService(context.Context, retry.Backoff, string) retry.Promise[struct{}]

	// Create new Deployment and wait for it to satisfy all requirements.
	//
	// Args and promise semantics are same as NewService.
	// If no requirements are given, EnoughReplicas is used as default.
	NewDeployment(context.Context, retry.Backoff, *kubeapps.Deployment, ...Requirement[*kubeapps.Deployment]) retry.Promise[Deployment]

	// Get existing Deployment.
	GetDeployment(context.Context, retry.Backoff, string, ...Requirement[*kubeapps.Deployment]) retry.Promise[Deployment]

	// Delete Deployment by name. It is not an error if the Deployment does not exist.
	DeleteDeployment(context.Context, retry.Backoff, string) retry.Promise[struct{}]

	// Create new k8s job.
	//
	// Args and promise semantics are same as NewService.
	// If no requirements are given, JobHaveBeenCreated is used as default.
	NewJob(context.Context, retry.Backoff, *kubebatch.Job, ...Requirement[*kubebatch.Job]) retry.Promise[Job]

	// Get existing k8s job.
	GetJob(context.Context, retry.Backoff, string, ...Requirement[*kubebatch.Job]) retry.Promise[Job]

	// Create new Pod.
	//
	// Args and promise semantics are same as NewService.
	// If no requirements are given, PodHasBeenRunning is used as default.
	NewPod(context.Context, retry.Backoff, *kubecore.Pod, ...Requirement[*kubecore.Pod]) retry.Promise[Pod]

	// Get existing Pod.
	GetPod(context.Context, retry.Backoff, string, ...Requirement[*kubecore.Pod]) retry.Promise[Pod]

	// GetSecret reads an existing Secret.
	GetSecret(ctx context.Context, name string) (Secret, error)

	// UpsertSecret creates or overwrites a Secret, and returns the stored one.
	UpsertSecret(ctx context.Context, spec *applyconfigurations.SecretApplyConfiguration) (Secret, error)
}

type k8sCluster struct {
	client    K8sClient
	namespace string
	domain    string
}

// type check: k8scluster implements Cluster
var _ Cluster = &k8sCluster{}

// Attch kubernetes cluster.
//
// args:
//   - client: k8s clientset
//   - namespace: k8s namespace
//   - domain: k8s-internal domain name. If empty string is passed, it uses`"cluster.local"` as default.
func AttachCluster(client K8sClient, namespace string, domain string) Cluster {
	if domain == "" {
		domain = "cluster.local"
	}
	return &k8sCluster{client: client, namespace: namespace, domain: domain}
}

func (c *k8sCluster) Namespace() string {
	return c.namespace
}

func (c *k8sCluster) Domain() string {
	return c.domain
}

func (c *k8sCluster) events(ctx context.Context, kind string, target kubeapimeta.ObjectMeta) []kubeevents.Event {
	events, err := c.client.GetEvents(ctx, kind, target)
	if err != nil {
		return nil
	}
	return events
}

var ServiceIsReady Requirement[*kubecore.Service] = func(value WithEvents[*kubecore.Service]) error {
	if value.Value.Spec.ClusterIP != "" {
		return nil
	}
	return retry.ErrRetry
}

func (c *k8sCluster) NewService(
	ctx context.Context, backoff retry.Backoff, svcconf *kubecore.Service,
	requirements ...Requirement[*kubecore.Service],
) retry.Promise[Service] {
	if len(requirements) == 0 {
		requirements = []Requirement[*kubecore.Service]{ServiceIsReady}
	}

	select {
	case <-ctx.Done():
		return retry.Failed[Service](ctx.Err())
	default:
	}

	svc, err := c.client.CreateService(ctx, c.namespace, svcconf)
	if err != nil {
		if kubeerr.IsAlreadyExists(err) {
			return retry.Failed[Service](k8serrors.NewConflictCausedBy("", err))
		}
		return retry.Failed[Service](err)
	}
	_close := func() error {
		return c.client.DeleteService(
			context.Background(), // close should run if given has closed.
			c.namespace,
			svcconf.ObjectMeta.Name,
		)
	}
	got := WithEvents[*kubecore.Service]{
		Value: svc, Events: c.events(ctx, "Service", svc.ObjectMeta),
	}
	if err := satisfyAll(got, requirements); err == nil {
		return retry.Ok[Service](&service{resource: svc, domain: c.domain, close: _close})
	} else if !errors.Is(err, retry.ErrRetry) {
		return retry.Failed[Service](err)
	}

	return c.getService(ctx, backoff, svcconf.ObjectMeta.Name, _close, requirements...)
}

func (c *k8sCluster) GetService(
	ctx context.Context, backoff retry.Backoff, name string,
	requirements ...Requirement[*kubecore.Service],
) retry.Promise[Service] {
	if len(requirements) == 0 {
		requirements = []Requirement[*kubecore.Service]{ServiceIsReady}
	}
	_close := func() error {
		return c.client.DeleteService(context.Background(), c.namespace, name)
	}
	return c.getService(ctx, backoff, name, _close, requirements...)
}

func (c *k8sCluster) getService(
	ctx context.Context, backoff retry.Backoff, name string, _close func() error,
	requirements ...Requirement[*kubecore.Service],
) retry.Promise[Service] {
	return retry.Go(ctx, backoff, func() (Service, error) {
		svc, err := c.client.GetService(ctx, c.namespace, name)
		ret := &service{resource: svc, domain: c.domain, close: _close}
		if err != nil {
			if kubeerr.IsNotFound(err) {
				return ret, k8serrors.NewMissingCausedBy("", err)
			}
			return ret, err
		}
		got := WithEvents[*kubecore.Service]{
			Value: svc, Events: c.events(ctx, "Service", svc.ObjectMeta),
		}
		return ret, satisfyAll(got, requirements)
	})
}

func (c *k8sCluster) DeleteService(
	ctx context.Context, backoff retry.Backoff, name string,
) retry.Promise[struct{}] {
	return retry.Go(ctx, backoff, func() (struct{}, error) {
		err := c.client.DeleteService(ctx, c.namespace, name)
		if err != nil && !kubeerr.IsNotFound(err) {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
}

var EnoughReplicas Requirement[*kubeapps.Deployment] = func(value WithEvents[*kubeapps.Deployment]) error {
	replicas := int32(1)
	if value.Value.Spec.Replicas != nil {
		replicas = *value.Value.Spec.Replicas
	}
	if replicas <= value.Value.Status.AvailableReplicas {
		return nil
	}
	return retry.ErrRetry
}

func (c *k8sCluster) NewDeployment(
	ctx context.Context, backoff retry.Backoff, dplconf *kubeapps.Deployment,
	requirements ...Requirement[*kubeapps.Deployment],
) retry.Promise[Deployment] {
	if len(requirements) == 0 {
		requirements = []Requirement[*kubeapps.Deployment]{EnoughReplicas}
	}

	select {
	case <-ctx.Done():
		return retry.Failed[Deployment](ctx.Err())
	default:
	}

	dpl, err := c.client.CreateDeployment(ctx, c.namespace, dplconf)
	if err != nil {
		if kubeerr.IsAlreadyExists(err) {
			return retry.Failed[Deployment](k8serrors.NewConflictCausedBy("", err))
		}
		return retry.Failed[Deployment](err)
	}
	_close := func() error {
		return c.client.DeleteDeployment(
			context.Background(), // close should run if given has closed.
			c.namespace,
			dplconf.ObjectMeta.Name,
		)
	}

	got := WithEvents[*kubeapps.Deployment]{
		Value: dpl, Events: c.events(ctx, "Deployment", dpl.ObjectMeta),
	}
	if err := satisfyAll(got, requirements); err == nil {
		return retry.Ok[Deployment](&deployment{resource: dpl, client: c.client, onClose: _close})
	} else if !errors.Is(err, retry.ErrRetry) {
		return retry.Failed[Deployment](err)
	}

	return c.getDeployment(ctx, backoff, dplconf.ObjectMeta.Name, _close, requirements...)
}

func (c *k8sCluster) GetDeployment(
	ctx context.Context, backoff retry.Backoff, name string,
	requirements ...Requirement[*kubeapps.Deployment],
) retry.Promise[Deployment] {
	if len(requirements) == 0 {
		requirements = []Requirement[*kubeapps.Deployment]{EnoughReplicas}
	}
	_close := func() error {
		return c.client.DeleteDeployment(context.Background(), c.namespace, name)
	}
	return c.getDeployment(ctx, backoff, name, _close, requirements...)
}

func (c *k8sCluster) getDeployment(
	ctx context.Context, backoff retry.Backoff, name string, _close func() error,
	requirements ...Requirement[*kubeapps.Deployment],
) retry.Promise[Deployment] {
	return retry.Go(ctx, backoff, func() (Deployment, error) {
		dpl, err := c.client.GetDeployment(ctx, c.namespace, name)
		ret := &deployment{resource: dpl, client: c.client, onClose: _close}
		if err != nil {
			if kubeerr.IsNotFound(err) {
				return ret, k8serrors.NewMissingCausedBy("", err)
			}
			return ret, err
		}
		got := WithEvents[*kubeapps.Deployment]{
			Value: dpl, Events: c.events(ctx, "Deployment", dpl.ObjectMeta),
		}
		return ret, satisfyAll(got, requirements)
	})
}

func (c *k8sCluster) DeleteDeployment(
	ctx context.Context, backoff retry.Backoff, name string,
) retry.Promise[struct{}] {
	return retry.Go(ctx, backoff, func() (struct{}, error) {
		err := c.client.DeleteDeployment(ctx, c.namespace, name)
		if err != nil && !kubeerr.IsNotFound(err) {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
}

var JobHaveBeenCreated Requirement[*kubebatch.Job] = func(value WithEvents[*kubebatch.Job]) error {
	return nil
}

func (c *k8sCluster) NewJob(
	ctx context.Context, p retry.Backoff, j *kubebatch.Job,
	requirements ...Requirement[*kubebatch.Job],
) retry.Promise[Job] {
	if len(requirements) == 0 {
		requirements = []Requirement[*kubebatch.Job]{JobHaveBeenCreated}
	}

	select {
	case <-ctx.Done():
		return retry.Failed[Job](ctx.Err())
	default:
	}
	_job, err := c.client.CreateJob(ctx, c.namespace, j)
	if err != nil {
		if kubeerr.IsAlreadyExists(err) {
			return retry.Failed[Job](k8serrors.NewConflictCausedBy("", err))
		}
		return retry.Failed[Job](err)
	}
	_close := func() error {
		return c.client.DeleteJob(
			context.Background(), c.namespace, _job.ObjectMeta.Name,
		)
	}

	got := WithEvents[*kubebatch.Job]{
		Value: _job, Events: c.events(ctx, "Job", _job.ObjectMeta),
	}
	if err := satisfyAll(got, requirements); err == nil {
		return retry.Ok[Job](&job{job: _job, client: c.client, close: _close})
	} else if !errors.Is(err, retry.ErrRetry) {
		return retry.Failed[Job](err)
	}

	return c.GetJob(ctx, p, _job.ObjectMeta.Name, requirements...)
}

func (c *k8sCluster) GetJob(
	ctx context.Context, p retry.Backoff, name string,
	requirements ...Requirement[*kubebatch.Job],
) retry.Promise[Job] {
	if len(requirements) == 0 {
		requirements = []Requirement[*kubebatch.Job]{JobHaveBeenCreated}
	}
	_close := func() error {
		return c.client.DeleteJob(context.Background(), c.namespace, name)
	}

	return retry.Go(ctx, p, func() (Job, error) {
		_job, err := c.client.GetJob(ctx, c.namespace, name)
		ret := &job{
			job: _job, close: _close, client: c.client,
		}

		if err != nil {
			if kubeerr.IsNotFound(err) {
				return ret, k8serrors.NewMissingCausedBy("", err)
			}
			return ret, err
		}

		got := WithEvents[*kubebatch.Job]{
			Value: _job, Events: c.events(ctx, "Job", _job.ObjectMeta),
		}
		return ret, satisfyAll(got, requirements)
	})
}

var PodHasBeenRunning Requirement[*kubecore.Pod] = func(p WithEvents[*kubecore.Pod]) error {
	switch p.Value.Status.Phase {
	case kubecore.PodRunning, kubecore.PodFailed, kubecore.PodSucceeded:
		return nil
	default:
		return retry.ErrRetry
	}
}

var PodHasBeenPending Requirement[*kubecore.Pod] = func(p WithEvents[*kubecore.Pod]) error {
	switch p.Value.Status.Phase {
	case kubecore.PodPending, kubecore.PodRunning, kubecore.PodFailed, kubecore.PodSucceeded:
		return nil
	default:
		return retry.ErrRetry
	}
}

func (c *k8sCluster) NewPod(
	ctx context.Context, r retry.Backoff, p *kubecore.Pod,
	requirements ...Requirement[*kubecore.Pod],
) retry.Promise[Pod] {
	if len(requirements) == 0 {
		requirements = []Requirement[*kubecore.Pod]{PodHasBeenRunning}
	}
	select {
	case <-ctx.Done():
		return retry.Failed[Pod](ctx.Err())
	default:
	}

	_close := func() error {
		ctx := context.Background()
		return c.client.DeletePod(ctx, c.namespace, p.ObjectMeta.Name)
	}

	_pod, err := c.client.CreatePod(ctx, c.namespace, p)
	if err != nil {
		if kubeerr.IsAlreadyExists(err) {
			return retry.Failed[Pod](k8serrors.NewConflictCausedBy("", err))
		}
		return retry.Failed[Pod](err)
	}
	got := WithEvents[*kubecore.Pod]{
		Value: _pod, Events: c.events(ctx, "Pod", _pod.ObjectMeta),
	}
	if err := satisfyAll(got, requirements); err == nil {
		return retry.Ok[Pod](&pod{description: *_pod, onClose: _close})
	} else if !errors.Is(err, retry.ErrRetry) {
		return retry.Failed[Pod](err)
	}

	return c.GetPod(ctx, r, _pod.ObjectMeta.Name, requirements...)
}

func (c *k8sCluster) GetPod(
	ctx context.Context, r retry.Backoff, name string,
	requirements ...Requirement[*kubecore.Pod],
) retry.Promise[Pod] {
	if len(requirements) == 0 {
		requirements = []Requirement[*kubecore.Pod]{PodHasBeenRunning}
	}
	_close := func() error {
		ctx := context.Background()
		return c.client.DeletePod(ctx, c.namespace, name)
	}

	return retry.Go(ctx, r, func() (Pod, error) {
		_pod, err := c.client.GetPod(ctx, c.namespace, name)
		ret := &pod{onClose: _close}
		if err != nil {
			if kubeerr.IsNotFound(err) {
				return ret, k8serrors.NewMissingCausedBy("", err)
			}
			return ret, err
		}
		ret.description = *_pod
		got := WithEvents[*kubecore.Pod]{
			Value: _pod, Events: c.events(ctx, "Pod", _pod.ObjectMeta),
		}
		return ret, satisfyAll(got, requirements)
	})
}

func (c *k8sCluster) GetSecret(ctx context.Context, name string) (Secret, error) {
	s, err := c.client.GetSecret(ctx, c.namespace, name)
	if err != nil {
		return nil, err
	}
	return &secret{resource: s}, nil
}

func (c *k8sCluster) UpsertSecret(
	ctx context.Context, spec *applyconfigurations.SecretApplyConfiguration,
) (Secret, error) {
	s, err := c.client.UpsertSecret(ctx, c.namespace, spec)
	if err != nil {
		return nil, err
	}
	return &secret{resource: s}, nil
}
