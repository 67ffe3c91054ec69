package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/quaark/mlrun-remote-project/pkg/utils/cmp"
)

// WorkflowStep is a node in a Workflow DAG.
type WorkflowStep struct {
	// name of the step, unique within the workflow.
	Name string

	// name of the Function (in the same project) this step invokes.
	FunctionName string

	// handler override. When empty, the Function's own handler is used.
	Handler string

	// parameters passed to the handler.
	Params map[string]string

	// names of steps which have to be done before this step.
	Needs []string

	// model name -> artifact name, for steps of serving Functions.
	//
	// The artifact name points an artifact published by an upstream step
	// in the same pipeline run.
	Models map[string]string
}

func (ws WorkflowStep) Equal(o WorkflowStep) bool {
	return ws.Name == o.Name &&
		ws.FunctionName == o.FunctionName &&
		ws.Handler == o.Handler &&
		cmp.MapEq(ws.Params, o.Params) &&
		cmp.SliceContentEq(ws.Needs, o.Needs) && // needs are a set
		cmp.MapEq(ws.Models, o.Models)
}

// Model returns the single model binding of a serving step.
//
// A model server serves one model, so steps of serving Functions
// must bind exactly one.
func (ws WorkflowStep) Model() (modelName string, artifactName string, err error) {
	if len(ws.Models) != 1 {
		return "", "", fmt.Errorf(
			`step "%s" should bind exactly one model, but has %d`,
			ws.Name, len(ws.Models),
		)
	}
	for m, a := range ws.Models {
		modelName = m
		artifactName = a
	}
	return modelName, artifactName, nil
}

type Workflow struct {
	ProjectName string

	// name of the workflow, unique within the project.
	Name string

	Steps []WorkflowStep

	UpdatedAt time.Time
}

func (w *Workflow) Equal(o *Workflow) bool {
	if (w == nil) || (o == nil) {
		return (w == nil) && (o == nil)
	}
	return w.ProjectName == o.ProjectName &&
		w.Name == o.Name &&
		cmp.SliceEqWith(
			w.Steps, o.Steps,
			func(a, b WorkflowStep) bool { return a.Equal(b) },
		) &&
		w.UpdatedAt.Equal(o.UpdatedAt)
}

var (
	ErrBadWorkflow = errors.New("workflow definition is not acceptable")
)

// ValidateSteps checks that steps form a DAG:
// no step without name, no duplicated names, no unknown "needs" target,
// no dependency cycle.
//
// Returned errors wrap ErrBadWorkflow.
func ValidateSteps(steps []WorkflowStep) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrBadWorkflow)
	}

	byName := map[string]WorkflowStep{}
	for _, s := range steps {
		if s.Name == "" {
			return fmt.Errorf("%w: step without name", ErrBadWorkflow)
		}
		if s.FunctionName == "" {
			return fmt.Errorf(`%w: step "%s" without function`, ErrBadWorkflow, s.Name)
		}
		if _, ok := byName[s.Name]; ok {
			return fmt.Errorf(`%w: step "%s" is duplicated`, ErrBadWorkflow, s.Name)
		}
		byName[s.Name] = s
	}

	for _, s := range steps {
		for _, n := range s.Needs {
			if _, ok := byName[n]; !ok {
				return fmt.Errorf(
					`%w: step "%s" needs unknown step "%s"`, ErrBadWorkflow, s.Name, n,
				)
			}
		}
	}

	// detect cycles, walking depth-first from each step.
	const (
		white = 0 // not visited
		gray  = 1 // visiting
		black = 2 // visited
	)
	color := map[string]int{}

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case gray:
			return fmt.Errorf(`%w: dependency cycle around step "%s"`, ErrBadWorkflow, name)
		case black:
			return nil
		}
		color[name] = gray
		for _, n := range byName[name].Needs {
			if err := visit(n); err != nil {
				return err
			}
		}
		color[name] = black
		return nil
	}

	for name := range byName {
		if err := visit(name); err != nil {
			return err
		}
	}

	return nil
}
