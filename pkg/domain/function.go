package domain

import (
	"fmt"
	"time"

	"github.com/quaark/mlrun-remote-project/pkg/utils/cmp"
	"k8s.io/apimachinery/pkg/api/resource"
)

type FunctionKind string

const (
	// run to completion as a Kubernetes Job.
	KindJob FunctionKind = "job"

	// run as a long-lived model server (Deployment + Service).
	KindServing FunctionKind = "serving"
)

func (fk FunctionKind) String() string {
	return string(fk)
}

func AsFunctionKind(s string) (FunctionKind, error) {
	switch s {
	case string(KindJob):
		return KindJob, nil
	case string(KindServing):
		return KindServing, nil
	default:
		return "", fmt.Errorf("'%s' is not FunctionKind", s)
	}
}

// ImageIdentifier points the container image a Function runs on.
type ImageIdentifier struct {
	Image   string
	Version string
}

func (ii ImageIdentifier) Fullname() string {
	return fmt.Sprintf("%s:%s", ii.Image, ii.Version)
}

func (ii *ImageIdentifier) Equal(o *ImageIdentifier) bool {
	if (ii == nil) || (o == nil) {
		return (ii == nil) && (o == nil)
	}
	return ii.Image == o.Image && ii.Version == o.Version
}

// Core part of Function.
type FunctionBody struct {
	// project the function belongs to.
	ProjectName string

	// name of the function, unique within the project.
	Name string

	Kind FunctionKind

	Image *ImageIdentifier

	// entrypoint symbol inside the function source.
	Handler string

	// where the function code comes from:
	// a path in the project context, or a "hub://" reference.
	Source string

	// resource requirements for workers of this function.
	//
	// key is resource name (cpu, memory, ...), value is quantity.
	// Key and Value follow k8s resource requirements specs.
	Resources map[string]resource.Quantity
}

func (fb *FunctionBody) Equal(o *FunctionBody) bool {
	if (fb == nil) || (o == nil) {
		return (fb == nil) && (o == nil)
	}
	return fb.ProjectName == o.ProjectName &&
		fb.Name == o.Name &&
		fb.Kind == o.Kind &&
		fb.Image.Equal(o.Image) &&
		fb.Handler == o.Handler &&
		fb.Source == o.Source &&
		cmp.MapEqWith(
			fb.Resources, o.Resources,
			func(a, b resource.Quantity) bool { return a.Equal(b) },
		)
}

type Function struct {
	FunctionBody

	UpdatedAt time.Time
}

func (f *Function) Equal(o *Function) bool {
	if (f == nil) || (o == nil) {
		return (f == nil) && (o == nil)
	}
	return f.FunctionBody.Equal(&o.FunctionBody) &&
		f.UpdatedAt.Equal(o.UpdatedAt)
}

// parameter to query functions
//
// When all dimensions match a function, this query matches the function.
type FunctionFindQuery struct {
	// match if function's project is one of these.
	//
	// If it is nil or empty, it means "match any".
	ProjectName []string

	// match if function's kind is one of these.
	//
	// If it is nil or empty, it means "match any".
	Kind []FunctionKind
}

func (ffq FunctionFindQuery) Equal(other FunctionFindQuery) bool {
	return cmp.SliceContentEq(ffq.ProjectName, other.ProjectName) &&
		cmp.SliceContentEq(ffq.Kind, other.Kind)
}
