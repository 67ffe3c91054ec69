package hook

import (
	api_runs "github.com/quaark/mlrun-remote-project/pkg/api/types/runs"
	cfg_hook "github.com/quaark/mlrun-remote-project/pkg/configs/hook"
)

// Build makes a webhook on run lifecycle events from its config.
//
// merge combines responses when more than one before-URL answers.
func Build[R any](cfg cfg_hook.WebHook, merge func(a, b R) R) Web[api_runs.Summary, R] {
	return Web[api_runs.Summary, R]{
		BeforeURL: cfg.Before,
		AfterURL:  cfg.After,
		Merge:     merge,
	}
}
