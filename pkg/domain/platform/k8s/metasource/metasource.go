package metasource

import (
	"fmt"

	"github.com/quaark/mlrun-remote-project/pkg/buildtime"
	kubeapimeta "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type SpecBuilder[C any, D any] interface {
	// Build k8s resource descriptor(s)
	Build(conf C) D
}

// mlrun component metadata which is deploied or placed in k8s cluster.
//
// ToLabel function converts MetaSource (or, its subtype with Extraer) to k8s labels.
type MetaSource interface {
	// The name of application/resource.
	//
	// If there are many resources running a same app, they may have same `Name()`.
	//
	// For `ObjectMeta.Name`, USE `Instance()`, NOT THIS.
	//
	// This is set as a value of k8s label "app.kubernetes.io/name".
	//
	// see: https://kubernetes.io/docs/concepts/overview/working-with-objects/common-labels/
	Name() string

	// This is set as a value of k8s label "app.kubernetes.io/instance"
	// AND ALSO `ObjectMeta.Name` .
	//
	// This will identify an instance from others sharing Name() and Component().
	//
	// see: https://kubernetes.io/docs/concepts/overview/working-with-objects/common-labels/
	//
	// When you doubt what value should be set,
	// Name() + "-" + IdType() + "-" + "Id()" is recommended.
	Instance() string

	// Where is this positioned in system archetecture.
	//
	// example: database, cache, reverse-proxy, ...
	//
	// This is set as a value of k8s label "app.kubernetes.io/component".
	//
	// see: https://kubernetes.io/docs/concepts/overview/working-with-objects/common-labels/
	Component() string

	// Identifier of entity in mlrun object model.
	Id() string

	// type of "Id()"
	//
	// example: run_id, endpoint_id, ...
	IdType() string

	// convert to ObjectMeta
	ObjectMeta(namespace string) kubeapimeta.ObjectMeta
}

type Extraer interface {

	// Extra labels.
	//
	// See document of `ToLabels` for more details.
	Extras() map[string]string
}

type ResourceBuilder[C any, D any] interface {
	MetaSource
	SpecBuilder[C, D]
}

// convert from Subject to k8s labels, including "recomended labels".
//
// https://kubernetes.io/docs/concepts/overview/working-with-objects/common-labels/
//
// # Recomended Labels:
//
// Recomended labels are generated like below.
//
// - "app.kubernetes.io/version"    : build version of mlrun.
//
// - "app.kubernetes.io/part-of"    : "mlrun"
//
// - "app.kubernetes.io/managed-by" : "mlrun"
//
// - "app.kubernetes.io/component"  : s.Component()
//
// - "app.kubernetes.io/name"       : s.Name()
//
// - "app.kubernetes.io/instance"   : s.Instance()
//
// Each `s`s are Subject passed to `ToLabel`.
//
// # Mlrun Labels:
//
// Mlrun specific labels are prefixed with "mlrun/" .
// They are generated like below.
//
// - "mlrun/${s.Name()}.${s.IdType()}" : s.Id()
//
// - "mlrun/${s.Name()}.KEY"           : s.Extras()[KEY] (if any)
//
// Each `s`s here are Subject passed to `ToLabel`.
//
// Expression `${...}` are placeholder, replaced with evaluation of its content.
// CAPITALIZED `KEY` is a key in `s.Extras()`,
// only if `s` implements `interface { Extras() map[string]string }`
// (otherwize, they are not appeared).
//
// #params:
//
// - Subject: mlrun object which is to be k8s resource.
//
// When `s` implements Extraer,
// `ToLabel` generates extra "mlrun/*" labels additionaly.
func ToLabels(s MetaSource) map[string]string {
	mlrunLabelPrefix := fmt.Sprintf("mlrun/%s.", s.Name())

	l := map[string]string{
		"app.kubernetes.io/version":    buildtime.VERSION(),
		"app.kubernetes.io/name":       s.Name(),
		"app.kubernetes.io/instance":   s.Instance(),
		"app.kubernetes.io/component":  s.Component(),
		"app.kubernetes.io/part-of":    "mlrun",
		"app.kubernetes.io/managed-by": "mlrun",

		// mlrun/NAME.ID_TYPE: ID  --  example: `mlrun/worker.runid: SOMEUUID-VALU-E...`
		mlrunLabelPrefix + s.IdType(): s.Id(),
	}

	if withEx, ok := s.(Extraer); ok {
		for k, v := range withEx.Extras() {
			l[mlrunLabelPrefix+k] = v
		}
	}

	return l
}

// default (and reference) implimentation of Source.ObjectMeta.
//
// For users:
//
// This is a helper function for MetaSource implimenter, not for users.
//
// When you using specific MetaSource implimentations,
// it is recommended that you use MetaSource.ObjectMeta methods, not this,
// to respect for each types.
func ToObjectMeta(m MetaSource, namespace string) kubeapimeta.ObjectMeta {
	labels := ToLabels(m)
	return kubeapimeta.ObjectMeta{
		Name:      m.Instance(),
		Namespace: namespace,
		Labels:    labels,
	}
}
