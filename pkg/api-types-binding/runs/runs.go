package runs

import (
	bindartifact "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/artifacts"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/runs"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	"github.com/quaark/mlrun-remote-project/pkg/utils"
)

func composeExit(ex *domain.RunExit) *runs.Exit {
	if ex == nil {
		return nil
	}
	return &runs.Exit{
		Code:    ex.Code,
		Message: ex.Message,
	}
}

func ComposeSummary(r domain.RunBody) runs.Summary {
	return runs.Summary{
		RunId:     r.Id,
		Project:   r.ProjectName,
		Workflow:  r.WorkflowName,
		Status:    string(r.Status),
		Exit:      composeExit(r.Exit),
		UpdatedAt: rfctime.New(r.UpdatedAt),
	}
}

// ComposeStepSummary expresses a step run on the wire.
//
// Pass step runs only; pipeline runs have no Step to name.
func ComposeStepSummary(r domain.Run) runs.StepSummary {
	stepName := ""
	if r.Step != nil {
		stepName = r.Step.Name
	}
	functionName := ""
	if r.Function != nil {
		functionName = r.Function.Name
	}
	return runs.StepSummary{
		RunId:     r.Id,
		Step:      stepName,
		Function:  functionName,
		Status:    string(r.Status),
		Exit:      composeExit(r.Exit),
		UpdatedAt: rfctime.New(r.UpdatedAt),
		Artifacts: utils.Map(r.Artifacts, bindartifact.ComposeSummary),
	}
}

func ComposeDetail(r domain.PipelineRun) runs.Detail {
	return runs.Detail{
		Summary: ComposeSummary(r.RunBody),
		Steps:   utils.Map(r.Steps, ComposeStepSummary),
	}
}
