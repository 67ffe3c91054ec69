package backend

import (
	"time"
)

type BackendConfig struct {
	port    int32
	cluster *ClusterConfig
}

func (c *BackendConfig) Port() int32 {
	return c.port
}

func (c *BackendConfig) Cluster() *ClusterConfig {
	return c.cluster
}

// Configuration for the cluster mlrun runs in.
//
// to get `ClusterConfig` instance, use `ClusterConfigMarshall.TrySeal()` .
type ClusterConfig struct {
	namespace   string
	domain      string
	database    string
	apiRoot     string
	objectStore *ObjectStoreConfig
	worker      *WorkerConfig
	serve       *ServeConfig
	keychains   *KeychainsConfig
}

// k8s namespace where mlrun is deploied.
func (k *ClusterConfig) Namespace() string {
	return k.namespace
}

// k8s domain where mlrun is deploied. default = "cluster.local"
func (k *ClusterConfig) Domain() string {
	return k.domain
}

// Connection string for database.
func (k *ClusterConfig) Database() string {
	return k.database
}

// Base URL of the mlrun API, as reachable from inside the cluster.
//
// Workers and model servers use this to call artifact routes.
func (k *ClusterConfig) ApiRoot() string {
	return k.apiRoot
}

// Configuration for the artifact object store.
func (k *ClusterConfig) ObjectStore() *ObjectStoreConfig {
	return k.objectStore
}

// Configration for Worker
func (k *ClusterConfig) Worker() *WorkerConfig {
	return k.worker
}

// Configuration for model server workloads.
func (k *ClusterConfig) Serve() *ServeConfig {
	return k.serve
}

func (l *ClusterConfig) Keychains() *KeychainsConfig {
	return l.keychains
}

// Connection settings for the S3-compatible object store holding artifacts.
type ObjectStoreConfig struct {
	endpoint  string
	bucket    string
	accessKey string
	secretKey string
	secure    bool
}

// host:port of the object store. No scheme.
func (c *ObjectStoreConfig) Endpoint() string {
	return c.endpoint
}

// Bucket holding run artifacts.
func (c *ObjectStoreConfig) Bucket() string {
	return c.bucket
}

func (c *ObjectStoreConfig) AccessKey() string {
	return c.accessKey
}

func (c *ObjectStoreConfig) SecretKey() string {
	return c.secretKey
}

// true when the endpoint speaks https.
func (c *ObjectStoreConfig) Secure() bool {
	return c.secure
}

type WorkerConfig struct {
	priority     string
	startTimeout time.Duration
}

func (wc *WorkerConfig) Priority() string {
	return wc.priority
}

// How long a run may stay in starting before housekeeping aborts it.
func (wc *WorkerConfig) StartTimeout() time.Duration {
	return wc.startTimeout
}

type ServeConfig struct {
	image string
	port  int32
}

// Which image should be used as the model server.
func (c *ServeConfig) Image() string {
	return c.image
}

func (c *ServeConfig) Port() int32 {
	return c.port
}

type KeychainsConfig struct {
	signKeyForRunToken *HS256KeychainsConfig
}

func (kc *KeychainsConfig) SignKeyForRunToken() *HS256KeychainsConfig {
	return kc.signKeyForRunToken
}

type HS256KeychainsConfig struct {
	name string
}

func (kc *HS256KeychainsConfig) Name() string {
	return kc.name
}
