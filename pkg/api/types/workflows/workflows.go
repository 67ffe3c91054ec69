package workflows

import (
	"github.com/quaark/mlrun-remote-project/pkg/api/types/internal/utils/cmp"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
)

// Step is a node in a Workflow DAG.
//
// Function is the name of a Function registered in the same Project.
// Needs lists names of Steps in the same Workflow which have to be done
// before this Step starts.
//
// Models is set only for steps of serving Functions: it maps the model name
// to be exposed (as in /v2/models/NAME/infer) to the key of the model artifact
// published by an upstream step.
type Step struct {
	Name     string            `json:"name" yaml:"name"`
	Function string            `json:"function" yaml:"function"`
	Handler  string            `json:"handler,omitempty" yaml:"handler,omitempty"`
	Params   map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Needs    []string          `json:"needs,omitempty" yaml:"needs,omitempty"`
	Models   map[string]string `json:"models,omitempty" yaml:"models,omitempty"`
}

func (s Step) Equal(o Step) bool {
	return s.Name == o.Name &&
		s.Function == o.Function &&
		s.Handler == o.Handler &&
		cmp.MapEqEq(s.Params, o.Params) &&
		sliceEqEq(s.Needs, o.Needs) &&
		cmp.MapEqEq(s.Models, o.Models)
}

func sliceEqEq(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Spec is the registration request body of a Workflow,
// and its expression in workflow.yaml.
type Spec struct {
	Name  string `json:"name" yaml:"name"`
	Steps []Step `json:"steps" yaml:"steps"`
}

func (s Spec) Equal(o Spec) bool {
	return s.Name == o.Name &&
		cmp.SliceEqual(s.Steps, o.Steps)
}

type Summary struct {
	Project string `json:"project"`
	Name    string `json:"name"`
	Steps   int    `json:"steps"`
}

func (s Summary) Equal(o Summary) bool {
	return s == o
}

type Detail struct {
	Project string `json:"project"`
	Spec
	// props in Spec will be flattened in json.

	UpdatedAt rfctime.RFC3339 `json:"updatedAt"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Project == o.Project &&
		d.Spec.Equal(o.Spec) &&
		d.UpdatedAt.Equal(o.UpdatedAt)
}
