package platform

import (
	"context"

	bconf "github.com/quaark/mlrun-remote-project/pkg/configs/backend"
	connk8s "github.com/quaark/mlrun-remote-project/pkg/conn/k8s"
	"github.com/quaark/mlrun-remote-project/pkg/conn/objstore"
	"github.com/quaark/mlrun-remote-project/pkg/domain/artifact"
	astore "github.com/quaark/mlrun-remote-project/pkg/domain/artifact/store"
	"github.com/quaark/mlrun-remote-project/pkg/domain/function"
	"github.com/quaark/mlrun-remote-project/pkg/domain/garbage"
	gstore "github.com/quaark/mlrun-remote-project/pkg/domain/garbage/store"
	"github.com/quaark/mlrun-remote-project/pkg/domain/keychain"
	k8skeychain "github.com/quaark/mlrun-remote-project/pkg/domain/keychain/k8s"
	"github.com/quaark/mlrun-remote-project/pkg/domain/keychain/keyprovider"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform/db/postgres"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform/k8s"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform/k8s/cluster"
	"github.com/quaark/mlrun-remote-project/pkg/domain/project"
	"github.com/quaark/mlrun-remote-project/pkg/domain/run"
	"github.com/quaark/mlrun-remote-project/pkg/domain/schema"
	"github.com/quaark/mlrun-remote-project/pkg/domain/serving"
	"github.com/quaark/mlrun-remote-project/pkg/domain/workflow"
	"k8s.io/client-go/kubernetes"
)

// Platform bundles every domain interface of mlrun over one database,
// one cluster and one object store.
type Platform interface {
	Config() *bconf.ClusterConfig

	Project() project.Interface
	Function() function.Interface
	Workflow() workflow.Interface
	Run() run.Interface
	Artifact() artifact.Interface
	Serving() serving.Interface

	Garbage() garbage.Interface
	Schema() schema.Interface
	Keychain() keychain.Interface

	// RunTokenKeys provides the key signing run tokens.
	//
	// Spawners mint tokens with it; artifact routes verify against
	// the same keychain.
	RunTokenKeys() keyprovider.KeyProvider
}

type platform struct {
	config  *bconf.ClusterConfig
	cluster cluster.Cluster

	project  project.Interface
	function function.Interface
	workflow workflow.Interface
	run      run.Interface
	artifact artifact.Interface
	serving  serving.Interface

	garbage  garbage.Interface
	schema   schema.Interface
	keychain keychain.Interface

	runTokenKeys keyprovider.KeyProvider
}

func Default(
	ctx context.Context,
	config *bconf.ClusterConfig,
	options ...Option,
) (Platform, error) {
	clientset := connk8s.ConnectToK8s()
	return New(ctx, config, clientset, options...)
}

func New(
	ctx context.Context,
	config *bconf.ClusterConfig,
	clientset *kubernetes.Clientset,
	options ...Option,
) (Platform, error) {
	opt := &_options{}
	for _, o := range options {
		o(opt)
	}

	pg, err := postgres.New(ctx, config.Database(), opt.pg...)
	if err != nil {
		return nil, err
	}

	k8sclient := cluster.WrapK8sClient(clientset)
	cluster := cluster.AttachCluster(k8sclient, config.Namespace(), config.Domain())

	runTokenKeys := keyprovider.New(
		config.Keychains().SignKeyForRunToken().Name(),
		pg.Keychain(),
		k8skeychain.New(cluster).GetKeychain,
	)

	k8sifs := k8s.New(cluster, config, runTokenKeys)

	osconf := config.ObjectStore()
	osclient, err := objstore.Connect(objstore.Options{
		Endpoint:  osconf.Endpoint(),
		AccessKey: osconf.AccessKey(),
		SecretKey: osconf.SecretKey(),
		UseSSL:    osconf.Secure(),
	})
	if err != nil {
		return nil, err
	}
	artifactStore := astore.New(osclient, osconf.Bucket())

	return &platform{
		config:  config,
		cluster: cluster,

		project:  project.New(pg.Project()),
		function: function.New(pg.Function()),
		workflow: workflow.New(pg.Workflow()),
		run:      run.New(pg.Run(), k8sifs.Worker()),
		artifact: artifact.New(pg.Artifact(), artifactStore),
		serving:  serving.New(pg.Serving()),

		garbage:  garbage.New(pg.Garbage(), gstore.New(artifactStore)),
		schema:   schema.New(pg.Schema()),
		keychain: keychain.New(pg.Keychain(), k8sifs.KeyChain()),

		runTokenKeys: runTokenKeys,
	}, nil
}

type Option func(*_options)

type _options struct {
	pg []postgres.Option
}

func WithSchemaRepository(repository string) Option {
	return func(o *_options) {
		o.pg = append(o.pg, postgres.WithSchemaRepository(repository))
	}
}

func (p *platform) Config() *bconf.ClusterConfig {
	return p.config
}

func (p *platform) Project() project.Interface {
	return p.project
}

func (p *platform) Function() function.Interface {
	return p.function
}

func (p *platform) Workflow() workflow.Interface {
	return p.workflow
}

func (p *platform) Run() run.Interface {
	return p.run
}

func (p *platform) Artifact() artifact.Interface {
	return p.artifact
}

func (p *platform) Serving() serving.Interface {
	return p.serving
}

func (p *platform) Garbage() garbage.Interface {
	return p.garbage
}

func (p *platform) Schema() schema.Interface {
	return p.schema
}

func (p *platform) Keychain() keychain.Interface {
	return p.keychain
}

func (p *platform) RunTokenKeys() keyprovider.KeyProvider {
	return p.runTokenKeys
}
