package backend

import (
	"fmt"
	"time"
)

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs/backend.XxxMarshall` are `Marshalled[*Xxx]` .
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

type BackendConfigMarshall struct {
	Port    int32                  `yaml:"port"`
	Cluster *ClusterConfigMarshall `yaml:"cluster"`
}

var _ Marshalled[*BackendConfig] = &BackendConfigMarshall{}

func (b *BackendConfigMarshall) trySeal(path string) *BackendConfig {
	return &BackendConfig{
		port:    b.Port,
		cluster: b.Cluster.trySeal(path + ".cluster"),
	}
}

// Configuration of the cluster mlrun runs in.
//
// This type is marshalling value and mutable.
// Consider to use immutable version, `ClusterConfig`.
// You can get `ClusterConfig` instance with `ClusterConfigMarshall.TrySeal()`
type ClusterConfigMarshall struct {
	Namespace   string                     `yaml:"namespace"`
	Domain      string                     `yaml:"domain,omitempty"`
	Database    string                     `yaml:"database"`
	ApiRoot     string                     `yaml:"apiRoot"`
	ObjectStore *ObjectStoreConfigMarshall `yaml:"objectStore"`
	Worker      *WorkerConfigMarshall      `yaml:"worker"`
	Serve       *ServeConfigMarshall       `yaml:"serve"`
	Keychains   *KeychainsConfigMarshall   `yaml:"keychains"`
}

// verify configuration value and create "readonly" version of this.
//
// IT WILL PANIC if any misconfiguration is found.
func (cm *ClusterConfigMarshall) TrySeal() *ClusterConfig {
	return cm.trySeal("(root)")
}

func (cm *ClusterConfigMarshall) trySeal(path string) *ClusterConfig {
	domain := cm.Domain
	if domain == "" {
		domain = "cluster.local"
	}
	return &ClusterConfig{
		namespace:   required(cm.Namespace, path+".namespace"),
		domain:      required(domain, path+".domain"),
		database:    required(cm.Database, path+".database"),
		apiRoot:     required(cm.ApiRoot, path+".apiRoot"),
		objectStore: nonnil(cm.ObjectStore, path+".objectStore").trySeal(path + ".objectStore"),
		worker:      nonnil(cm.Worker, path+".worker").trySeal(path + ".worker"),
		serve:       nonnil(cm.Serve, path+".serve").trySeal(path + ".serve"),
		keychains:   nonnil(cm.Keychains, path+".keychain").trySeal(path + ".keychain"),
	}
}

type ObjectStoreConfigMarshall struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Secure    bool   `yaml:"secure,omitempty"`
}

func (om *ObjectStoreConfigMarshall) trySeal(path string) *ObjectStoreConfig {
	return &ObjectStoreConfig{
		endpoint:  required(om.Endpoint, path+".endpoint"),
		bucket:    required(om.Bucket, path+".bucket"),
		accessKey: required(om.AccessKey, path+".accessKey"),
		secretKey: required(om.SecretKey, path+".secretKey"),
		secure:    om.Secure,
	}
}

type WorkerConfigMarshall struct {
	Priority     string `yaml:"priority"`
	StartTimeout string `yaml:"startTimeout,omitempty"`
}

func (wc *WorkerConfigMarshall) trySeal(path string) *WorkerConfig {
	startTimeout := wc.StartTimeout
	if startTimeout == "" {
		startTimeout = "10m"
	}
	st, err := time.ParseDuration(startTimeout)
	if err != nil {
		panic(fmt.Errorf("%s.startTimeout can not be parsed: %w", path, err))
	}

	return &WorkerConfig{
		priority:     required(wc.Priority, path+".priority"),
		startTimeout: st,
	}
}

type ServeConfigMarshall struct {
	Image string `yaml:"image"`
	Port  int32  `yaml:"port"`
}

func (sm *ServeConfigMarshall) trySeal(path string) *ServeConfig {
	return &ServeConfig{
		image: required(sm.Image, path+".image"),
		port:  required(sm.Port, path+".port"),
	}
}

type KeychainsConfigMarshall struct {
	SignKeyForRunToken *HS256KeyChainMarshall `yaml:"signKeyForRunToken"`
}

func (kc *KeychainsConfigMarshall) trySeal(path string) *KeychainsConfig {
	return &KeychainsConfig{
		signKeyForRunToken: nonnil(kc.SignKeyForRunToken, path+".signKeyForRunToken").trySeal(path + ".signKeyForRunToken"),
	}
}

type HS256KeyChainMarshall struct {
	Name string `yaml:"name"`
}

func (kn *HS256KeyChainMarshall) trySeal(path string) *HS256KeychainsConfig {
	return &HS256KeychainsConfig{
		name: required(kn.Name, path+".name"),
	}
}

func nonnil[T any](v *T, path string) *T {
	if v == nil {
		panic(path + " is required")
	}
	return v
}

func required[T comparable](v T, path string) T {
	if v == *new(T) {
		panic(path + " is required")
	}
	return v
}
