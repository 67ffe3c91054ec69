package runs

import (
	"github.com/quaark/mlrun-remote-project/pkg/api/types/artifacts"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/internal/utils/cmp"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
)

// Summary is the wire expression of a pipeline Run,
// one execution of a Workflow.
type Summary struct {
	RunId     string          `json:"runId"`
	Project   string          `json:"project"`
	Workflow  string          `json:"workflow"`
	Status    string          `json:"status"`
	UpdatedAt rfctime.RFC3339 `json:"updatedAt"`
	Exit      *Exit           `json:"exit,omitempty"`
}

func (s Summary) Equal(o Summary) bool {

	exitEq := (s.Exit == nil && o.Exit == nil) ||
		(s.Exit != nil && o.Exit != nil && s.Exit.Equal(*o.Exit))

	return s.RunId == o.RunId &&
		exitEq &&
		s.Project == o.Project &&
		s.Workflow == o.Workflow &&
		s.Status == o.Status &&
		s.UpdatedAt.Equal(o.UpdatedAt)
}

type Exit struct {
	Code    uint8  `json:"code"`
	Message string `json:"message"`
}

func (e Exit) Equal(o Exit) bool {
	return e.Code == o.Code && e.Message == o.Message
}

// StepSummary is the wire expression of a step Run,
// executing one Step of a Workflow within a pipeline Run.
type StepSummary struct {
	RunId     string              `json:"runId"`
	Step      string              `json:"step"`
	Function  string              `json:"function"`
	Status    string              `json:"status"`
	UpdatedAt rfctime.RFC3339     `json:"updatedAt"`
	Exit      *Exit               `json:"exit,omitempty"`
	Artifacts []artifacts.Summary `json:"artifacts"`
}

func (s StepSummary) Equal(o StepSummary) bool {

	exitEq := (s.Exit == nil && o.Exit == nil) ||
		(s.Exit != nil && o.Exit != nil && s.Exit.Equal(*o.Exit))

	return s.RunId == o.RunId &&
		s.Step == o.Step &&
		s.Function == o.Function &&
		s.Status == o.Status &&
		s.UpdatedAt.Equal(o.UpdatedAt) &&
		exitEq &&
		cmp.SliceEqualUnordered(s.Artifacts, o.Artifacts)
}

type Detail struct {
	Summary
	// props in Summary will be flattened in json.
	//     see also: https://github.com/golang/go/issues/7230

	Steps []StepSummary `json:"steps"`
}

func (r Detail) Equal(o Detail) bool {
	return r.Summary.Equal(o.Summary) &&
		cmp.SliceEqualUnordered(r.Steps, o.Steps)
}

// Trigger is the request body to start a Run of a Workflow.
//
// Params override Step params: "step.key" scopes the override to one Step,
// a bare "key" applies to every Step.
type Trigger struct {
	Params map[string]string `json:"params,omitempty"`
}

func (t Trigger) Equal(o Trigger) bool {
	return cmp.MapEqEq(t.Params, o.Params)
}
