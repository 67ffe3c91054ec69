package artifacts

import (
	"github.com/quaark/mlrun-remote-project/pkg/api/types/artifacts"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
)

func ComposeSummary(a domain.ArtifactBody) artifacts.Summary {
	return artifacts.Summary{
		Key:       a.Key,
		Kind:      artifacts.Kind(a.Kind),
		RunId:     a.RunId,
		Size:      a.Size,
		UpdatedAt: rfctime.New(a.UpdatedAt),
	}
}
