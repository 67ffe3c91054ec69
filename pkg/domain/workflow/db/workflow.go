package db

import (
	"context"

	"github.com/quaark/mlrun-remote-project/pkg/domain"
)

type Interface interface {
	// register a workflow, or update the registered one.
	//
	// The workflow is identified with (ProjectName, Name).
	// Registering twice overwrites the whole step graph and bumps the
	// update timestamp. Runs triggered before keep their frozen copies.
	//
	// Steps are verified to form a DAG before anything is written.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.Workflow: workflow to be registered.
	// UpdatedAt in it is ignored.
	//
	// Returns
	//
	// - domain.Workflow: the workflow as it is stored now.
	//
	// - error: ErrBadWorkflow (when steps do not form a DAG),
	// ErrMissing (when the project is not registered)
	Upsert(ctx context.Context, w domain.Workflow) (domain.Workflow, error)

	// Retreive workflows of a project with their names.
	//
	// Args
	//
	// - context.Context
	//
	// - string: name of the project.
	//
	// - []string: names of workflows.
	//
	// Returns
	//
	// - map[string]domain.Workflow: mapping name->Workflow, steps in
	// registered order. Names which are not found are omitted silently.
	//
	// - error
	Get(ctx context.Context, projectName string, names []string) (map[string]domain.Workflow, error)

	// find names of workflows in a project.
	//
	// Args
	//
	// - context.Context
	//
	// - string: name of the project.
	//
	// Returns
	//
	// - []string: names of workflows, in name order.
	//
	// - error
	Find(ctx context.Context, projectName string) ([]string, error)

	// Delete a workflow.
	//
	// Runs which were triggered from this workflow are left as they are:
	// they hold their own frozen copy of the steps.
	//
	// Args
	//
	// - context.Context
	//
	// - string: name of the project.
	//
	// - string: name of the workflow to be deleted.
	//
	// Returns
	//
	// - error: ErrMissing (when no such workflow)
	Delete(ctx context.Context, projectName string, name string) error
}
