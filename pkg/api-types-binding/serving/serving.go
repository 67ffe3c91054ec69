package serving

import (
	"path"

	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/serving"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
)

func ComposeSummary(ep domain.Endpoint) serving.Summary {
	return serving.Summary{
		Name:      ep.Name,
		Project:   ep.ProjectName,
		ModelName: ep.ModelName,
		Status:    string(ep.Status),
	}
}

func ComposeDetail(ep domain.Endpoint) serving.Detail {
	return serving.Detail{
		Summary:   ComposeSummary(ep),
		RunId:     ep.RunId,
		URL:       path.Join("/api/endpoints", ep.Name, "infer"),
		UpdatedAt: rfctime.New(ep.UpdatedAt),
	}
}
