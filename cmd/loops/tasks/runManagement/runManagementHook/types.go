package runManagementHook

import (
	"github.com/quaark/mlrun-remote-project/cmd/loops/hook"
	apiruns "github.com/quaark/mlrun-remote-project/pkg/api/types/runs"
)

// MlrunExtension carries values a webhook feeds back into mlrun.
//
// Env is merged into the environment variables of the worker
// spawned for the run.
type MlrunExtension struct {
	Env map[string]string `json:"env"`
}

func mergeMlrunExtension(a, b MlrunExtension) MlrunExtension {

	env := make(map[string]string)
	for k, v := range a.Env {
		env[k] = v
	}
	for k, v := range b.Env {
		env[k] = v
	}

	return MlrunExtension{
		Env: env,
	}
}

// HookResponse is the response of "before" hooks on run lifecycle events.
type HookResponse struct {
	MlrunExtension MlrunExtension `json:"mlrunExtension"`
}

func Merge(a, b HookResponse) HookResponse {
	return HookResponse{
		MlrunExtension: mergeMlrunExtension(a.MlrunExtension, b.MlrunExtension),
	}
}

// Hooks on each transition the run management loop drives.
type Hooks struct {
	ToStarting   hook.Hook[apiruns.Summary, HookResponse]
	ToRunning    hook.Hook[apiruns.Summary, struct{}]
	ToCompleting hook.Hook[apiruns.Summary, struct{}]
	ToAborting   hook.Hook[apiruns.Summary, struct{}]
}
