package projects

import (
	bindfunction "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/functions"
	bindworkflow "github.com/quaark/mlrun-remote-project/pkg/api-types-binding/workflows"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/functions"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/projects"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	"github.com/quaark/mlrun-remote-project/pkg/utils"
)

func ComposeSummary(p domain.Project) projects.Summary {
	return projects.Summary{
		Name:      p.Name,
		Source:    p.Source,
		CreatedAt: rfctime.New(p.CreatedAt),
	}
}

func ComposeDetail(p domain.Project, fn []domain.Function, wf []domain.Workflow) projects.Detail {
	return projects.Detail{
		Summary: ComposeSummary(p),
		Functions: utils.Map(fn, func(f domain.Function) functions.Summary {
			return bindfunction.ComposeSummary(f.FunctionBody)
		}),
		Workflows: utils.Map(wf, bindworkflow.ComposeSummary),
	}
}
