package functions

import (
	"github.com/quaark/mlrun-remote-project/pkg/api/types/functions"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
)

func ComposeImage(i *domain.ImageIdentifier) *functions.Image {
	if i == nil {
		return nil
	}
	return &functions.Image{
		Repository: i.Image,
		Tag:        i.Version,
	}
}

func ComposeSummary(f domain.FunctionBody) functions.Summary {
	return functions.Summary{
		Project: f.ProjectName,
		Name:    f.Name,
		Kind:    functions.Kind(f.Kind),
		Image:   ComposeImage(f.Image),
		Handler: f.Handler,
	}
}

func ComposeDetail(f domain.Function) functions.Detail {
	return functions.Detail{
		Summary:      ComposeSummary(f.FunctionBody),
		Source:       f.Source,
		Requirements: functions.Requirements(f.Resources),
		UpdatedAt:    rfctime.New(f.UpdatedAt),
	}
}
