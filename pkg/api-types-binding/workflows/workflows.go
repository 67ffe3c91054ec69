package workflows

import (
	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/workflows"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	"github.com/quaark/mlrun-remote-project/pkg/utils"
)

func ComposeStep(s domain.WorkflowStep) workflows.Step {
	return workflows.Step{
		Name:     s.Name,
		Function: s.FunctionName,
		Handler:  s.Handler,
		Params:   s.Params,
		Needs:    s.Needs,
		Models:   s.Models,
	}
}

func ComposeSummary(w domain.Workflow) workflows.Summary {
	return workflows.Summary{
		Project: w.ProjectName,
		Name:    w.Name,
		Steps:   len(w.Steps),
	}
}

func ComposeDetail(w domain.Workflow) workflows.Detail {
	return workflows.Detail{
		Project: w.ProjectName,
		Spec: workflows.Spec{
			Name:  w.Name,
			Steps: utils.Map(w.Steps, ComposeStep),
		},
		UpdatedAt: rfctime.New(w.UpdatedAt),
	}
}
