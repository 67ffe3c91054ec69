package projects

import (
	"github.com/quaark/mlrun-remote-project/pkg/api/types/functions"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/internal/utils/cmp"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/workflows"
)

// Spec is the registration request body of a Project,
// and its expression in project.yaml.
//
// Source, if set, is the remote git URL the project context is synced from.
type Spec struct {
	Name   string `json:"name" yaml:"name"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

func (s Spec) Equal(o Spec) bool {
	return s == o
}

type Summary struct {
	Name      string          `json:"name"`
	Source    string          `json:"source,omitempty"`
	CreatedAt rfctime.RFC3339 `json:"createdAt"`
}

func (s Summary) Equal(o Summary) bool {
	return s.Name == o.Name &&
		s.Source == o.Source &&
		s.CreatedAt.Equal(o.CreatedAt)
}

type Detail struct {
	Summary
	// props in Summary will be flattened in json.
	//     see also: https://github.com/golang/go/issues/7230

	Functions []functions.Summary `json:"functions"`
	Workflows []workflows.Summary `json:"workflows"`
}

// SourceSummary is the receipt of an uploaded project source archive.
type SourceSummary struct {
	Project string `json:"project"`
	Key     string `json:"key"`
	Size    int64  `json:"size"`
}

func (s SourceSummary) Equal(o SourceSummary) bool {
	return s == o
}

func (d Detail) Equal(o Detail) bool {
	return d.Summary.Equal(o.Summary) &&
		cmp.SliceEqualUnordered(d.Functions, o.Functions) &&
		cmp.SliceEqualUnordered(d.Workflows, o.Workflows)
}
