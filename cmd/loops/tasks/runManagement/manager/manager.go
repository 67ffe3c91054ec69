package manager

import (
	"context"

	"github.com/quaark/mlrun-remote-project/cmd/loops/tasks/runManagement/runManagementHook"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
)

type Manager func(
	ctx context.Context,
	hooks runManagementHook.Hooks,
	run domain.Run,
) (
	domain.RunStatus,
	error,
)
