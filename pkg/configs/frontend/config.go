package frontend

import (
	"github.com/quaark/mlrun-remote-project/pkg/configs/backend"
)

// Configuration for mlrund, the mlrun API server.
//
// Unlike `backend.BackendConfig`, this type is mutable and read directly
// from yaml. Seal the cluster section with `Cluster.TrySeal()` before use.
type FrontendConfig struct {
	// port mlrund listens on.
	ServerPort string `yaml:"port"`

	// TLS cert/key pair. When both are set, mlrund serves https.
	TLS TLSConfig `yaml:"tls,omitempty"`

	// cluster-side settings, shared with the loops daemon.
	Cluster *backend.ClusterConfigMarshall `yaml:"cluster"`
}

type TLSConfig struct {
	CertPath string `yaml:"cert,omitempty"`
	KeyPath  string `yaml:"key,omitempty"`
}

// true when both cert and key are given.
func (t TLSConfig) Enabled() bool {
	return t.CertPath != "" && t.KeyPath != ""
}
