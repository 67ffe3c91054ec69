package worker

import (
	"fmt"
	"sort"

	bconf "github.com/quaark/mlrun-remote-project/pkg/configs/backend"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform/k8s/metasource"
	"github.com/quaark/mlrun-remote-project/pkg/utils"
	ptr "github.com/quaark/mlrun-remote-project/pkg/utils/pointer"
	kubeapps "k8s.io/api/apps/v1"
	kubebatch "k8s.io/api/batch/v1"
	kubecore "k8s.io/api/core/v1"
	kubeapimeta "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

const servePortName = "serve-port"

type RunIdentifier struct{ domain.RunBody }

// The name of application/resource.
//
// If there are many resources running a same app, they may have same `Name()`.
//
// For `ObjectMeta.Name`, USE `Instance()`, NOT THIS.
//
// This is set as a value of k8s label "app.kubernetes.io/name".
//
// see: https://kubernetes.io/docs/concepts/overview/working-with-objects/common-labels/
func (ri RunIdentifier) Name() string {
	return ri.Component()
}

// This is set as a value of k8s label "app.kubernetes.io/instance"
// AND ALSO `ObjectMeta.Name` .
//
// This will identify an instance from others sharing Name() and Component().
//
// see: https://kubernetes.io/docs/concepts/overview/working-with-objects/common-labels/
func (ri RunIdentifier) Instance() string {
	return ri.RunBody.WorkerName
}

// Where is this positioned in system archetecture.
//
// example: database, cache, reverse-proxy, ...
//
// This is set as a value of k8s label "app.kubernetes.io/component".
//
// see: https://kubernetes.io/docs/concepts/overview/working-with-objects/common-labels/
func (ri RunIdentifier) Component() string {
	return "worker"
}

// Identifier of entity in mlrun object model.
func (ri RunIdentifier) Id() string {
	return ri.RunBody.Id
}

func (ri RunIdentifier) Extras() map[string]string {
	return map[string]string{
		"run":     ri.Id(),
		"project": ri.RunBody.ProjectName,
	}
}

// type of "Id()"
//
// example: run_id, endpoint_id, ...
func (ri RunIdentifier) IdType() string {
	return "runid"
}

func (ri *RunIdentifier) ObjectMeta(namespace string) kubeapimeta.ObjectMeta {
	return metasource.ToObjectMeta(ri, namespace)
}

// selector labels identify pods of a single worker instance.
//
// ToLabels values like the build version may drift between releases,
// so only the stable subset goes into deployment/service selectors.
func (ri RunIdentifier) selector() map[string]string {
	return map[string]string{
		"app.kubernetes.io/name":     ri.Name(),
		"app.kubernetes.io/instance": ri.Instance(),
	}
}

// Executable is the k8s Job spec source for a step run of a job function.
type Executable struct {
	RunIdentifier

	EnvVars map[string]string

	FunctionName string
	Image        domain.ImageIdentifier
	Handler      string
	Params       map[string]string
}

// New builds an Executable from a step run.
//
// It proves the run is self-consistent: step runs of job functions only,
// worker name decided, image and handler known.
func New(r *domain.Run, envvars map[string]string) (*Executable, error) {
	if r.Step == nil || r.Function == nil {
		return nil, fmt.Errorf("malformed [runId:%s]: not a step run", r.Id)
	}
	if r.WorkerName == "" {
		return nil, fmt.Errorf("malformed [runId:%s]: no worker name", r.Id)
	}
	if r.Function.Kind != domain.KindJob {
		return nil, fmt.Errorf(
			"malformed [runId:%s function:%s]: %s function cannot run as a job",
			r.Id, r.Function.Name, r.Function.Kind,
		)
	}

	img := r.Function.Image
	if img == nil || img.Image == "" || img.Version == "" {
		return nil, fmt.Errorf(
			"malformed [runId:%s function:%s]: no image or no version",
			r.Id, r.Function.Name,
		)
	}

	handler := r.Step.Handler
	if handler == "" {
		handler = r.Function.Handler
	}
	if handler == "" {
		return nil, fmt.Errorf(
			"malformed [runId:%s function:%s]: no handler",
			r.Id, r.Function.Name,
		)
	}

	return &Executable{
		RunIdentifier: RunIdentifier{RunBody: r.RunBody},
		EnvVars:       envvars,
		FunctionName:  r.Function.Name,
		Image:         *img,
		Handler:       handler,
		Params:        r.Step.Params,
	}, nil
}

func (ex *Executable) Extras() map[string]string {
	extras := ex.RunIdentifier.Extras()
	extras["function"] = ex.FunctionName
	return extras
}

func (ex *Executable) ObjectMeta(namespace string) kubeapimeta.ObjectMeta {
	return metasource.ToObjectMeta(ex, namespace)
}

var _ metasource.ResourceBuilder[*bconf.ClusterConfig, *kubebatch.Job] = &Executable{}

// convert Executable into kubernetes Job spec.
//
// The main container runs the function image as-is; the handler and
// step params are passed as args, params in `--key=value` form sorted by key.
func (ex *Executable) Build(conf *bconf.ClusterConfig) *kubebatch.Job {
	args := []string{ex.Handler}
	paramKeys := utils.KeysOf(ex.Params)
	sort.Strings(paramKeys)
	for _, k := range paramKeys {
		args = append(args, fmt.Sprintf("--%s=%s", k, ex.Params[k]))
	}

	resLimits := kubecore.ResourceList{}
	for typ, val := range ex.RunBody.Function.Resources {
		switch typ {
		case "cpu":
			resLimits[kubecore.ResourceCPU] = val
		case "memory":
			resLimits[kubecore.ResourceMemory] = val
		default:
			resLimits[kubecore.ResourceName(typ)] = val
		}
	}

	env := []kubecore.EnvVar{}
	for k, v := range ex.EnvVars {
		env = append(env, kubecore.EnvVar{Name: k, Value: v})
	}

	return &kubebatch.Job{
		ObjectMeta: ex.ObjectMeta(conf.Namespace()),
		Spec: kubebatch.JobSpec{
			Parallelism:  ptr.Ref[int32](1),
			BackoffLimit: ptr.Ref[int32](0),
			Template: kubecore.PodTemplateSpec{
				Spec: kubecore.PodSpec{
					RestartPolicy:                kubecore.RestartPolicyNever,
					AutomountServiceAccountToken: ptr.Ref(false),
					EnableServiceLinks:           ptr.Ref(false), // do not expose Service endpoints for user content image.
					Containers: []kubecore.Container{
						{
							Name:  "main",
							Image: ex.Image.Fullname(),
							Args:  args,
							Resources: kubecore.ResourceRequirements{
								Limits: resLimits,
							},
							Env: env,
						},
					},
					PriorityClassName: conf.Worker().Priority(),
				},
			},
		},
	}
}

// ModelAssignment binds a model name to the artifact the model server loads.
type ModelAssignment struct {
	// name the model is served under.
	Name string

	// object key of the model artifact.
	ArtifactKey string
}

// ServingSpec is the k8s Deployment+Service spec source
// for a step run of a serving function.
type ServingSpec struct {
	RunIdentifier

	EnvVars map[string]string

	FunctionName string
	Model        ModelAssignment
}

func NewServing(r *domain.Run, model ModelAssignment, envvars map[string]string) (*ServingSpec, error) {
	if r.Step == nil || r.Function == nil {
		return nil, fmt.Errorf("malformed [runId:%s]: not a step run", r.Id)
	}
	if r.WorkerName == "" {
		return nil, fmt.Errorf("malformed [runId:%s]: no worker name", r.Id)
	}
	if r.Function.Kind != domain.KindServing {
		return nil, fmt.Errorf(
			"malformed [runId:%s function:%s]: %s function cannot serve a model",
			r.Id, r.Function.Name, r.Function.Kind,
		)
	}
	if model.Name == "" || model.ArtifactKey == "" {
		return nil, fmt.Errorf(
			"malformed [runId:%s function:%s]: no model assigned",
			r.Id, r.Function.Name,
		)
	}

	return &ServingSpec{
		RunIdentifier: RunIdentifier{RunBody: r.RunBody},
		EnvVars:       envvars,
		FunctionName:  r.Function.Name,
		Model:         model,
	}, nil
}

func (s *ServingSpec) Extras() map[string]string {
	extras := s.RunIdentifier.Extras()
	extras["function"] = s.FunctionName
	extras["model"] = s.Model.Name
	return extras
}

func (s *ServingSpec) ObjectMeta(namespace string) kubeapimeta.ObjectMeta {
	return metasource.ToObjectMeta(s, namespace)
}

var _ metasource.ResourceBuilder[*bconf.ClusterConfig, *kubeapps.Deployment] = &ServingSpec{}

// convert ServingSpec into kubernetes Deployment spec.
//
// The pod runs the model server image from the cluster config,
// pointed at the model artifact over the mlrun API.
// Readiness follows the model server's /ready, which turns 200
// once the model is loaded, so the Deployment gets available
// replicas only when the endpoint can answer inferences.
func (s *ServingSpec) Build(conf *bconf.ClusterConfig) *kubeapps.Deployment {
	serve := conf.Serve()
	port := serve.Port()

	args := []string{
		"--model-url", conf.ApiRoot() + "/artifacts/" + s.Model.ArtifactKey,
		"--model-name", s.Model.Name,
		"--port", fmt.Sprintf("%d", port),
		"--deadline", "180", // = 3 minutes to load the model
	}

	env := []kubecore.EnvVar{}
	for k, v := range s.EnvVars {
		env = append(env, kubecore.EnvVar{Name: k, Value: v})
	}

	return &kubeapps.Deployment{
		ObjectMeta: s.ObjectMeta(conf.Namespace()),
		Spec: kubeapps.DeploymentSpec{
			Replicas: ptr.Ref[int32](1),
			Selector: &kubeapimeta.LabelSelector{MatchLabels: s.selector()},
			Template: kubecore.PodTemplateSpec{
				ObjectMeta: kubeapimeta.ObjectMeta{
					Labels: metasource.ToLabels(s),
				},
				Spec: kubecore.PodSpec{
					AutomountServiceAccountToken: ptr.Ref(false),
					EnableServiceLinks:           ptr.Ref(false),
					Containers: []kubecore.Container{
						{
							Name:  "mlserve",
							Image: serve.Image(),
							Args:  args,
							Env:   env,
							Ports: []kubecore.ContainerPort{
								{
									Name:          servePortName,
									ContainerPort: port,
								},
							},
							ReadinessProbe: &kubecore.Probe{
								ProbeHandler: kubecore.ProbeHandler{
									HTTPGet: &kubecore.HTTPGetAction{
										Path: "/ready",
										Port: intstr.FromString(servePortName),
									},
								},
								PeriodSeconds: 3,
							},
						},
					},
					PriorityClassName: conf.Worker().Priority(),
				},
			},
		},
	}
}

// BuildService makes the Service stood in front of the model server pods.
//
// Its name is the worker name, same as the Deployment,
// and endpoints route inferences to it by this name.
func (s *ServingSpec) BuildService(conf *bconf.ClusterConfig) *kubecore.Service {
	return &kubecore.Service{
		ObjectMeta: s.ObjectMeta(conf.Namespace()),
		Spec: kubecore.ServiceSpec{
			Selector: s.selector(),
			Ports: []kubecore.ServicePort{
				{
					Name:       servePortName,
					Port:       conf.Serve().Port(),
					TargetPort: intstr.FromString(servePortName),
				},
			},
		},
	}
}
