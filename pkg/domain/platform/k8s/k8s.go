package k8s

import (
	bconf "github.com/quaark/mlrun-remote-project/pkg/configs/backend"
	keychain "github.com/quaark/mlrun-remote-project/pkg/domain/keychain/k8s"
	"github.com/quaark/mlrun-remote-project/pkg/domain/keychain/keyprovider"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform/k8s/cluster"
	run "github.com/quaark/mlrun-remote-project/pkg/domain/run/k8s"
)

type KubernetesInterfaces interface {
	Worker() run.Interface
	KeyChain() keychain.KeyChainInterface
}

type impl struct {
	worker   run.Interface
	keychain keychain.KeyChainInterface
}

func New(
	cluster cluster.Cluster,
	config *bconf.ClusterConfig,
	runTokenKeys keyprovider.KeyProvider,
) KubernetesInterfaces {
	return &impl{
		worker:   run.New(config, cluster, runTokenKeys),
		keychain: keychain.New(cluster),
	}
}

func (i *impl) Worker() run.Interface {
	return i.worker
}

func (i *impl) KeyChain() keychain.KeyChainInterface {
	return i.keychain
}
