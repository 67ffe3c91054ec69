package db

import (
	"context"

	"github.com/quaark/mlrun-remote-project/pkg/domain"
)

type Interface interface {
	// register a project if it is not known yet.
	//
	// When a project with the same name is already registered,
	// this does nothing and returns the registered one as it is.
	//
	// Args
	//
	// - context.Context
	//
	// - string: name of the project.
	//
	// - string: remote git URL the project context is synced from. Can be empty.
	//
	// Returns
	//
	// - domain.Project: the project which is registered now (or has been).
	//
	// - error
	Register(ctx context.Context, name string, source string) (domain.Project, error)

	// Retreive projects with their names.
	//
	// Args
	//
	// - context.Context
	//
	// - []string: names of projects.
	//
	// Returns
	//
	// - map[string]domain.Project: mapping name->Project.
	// Names which are not found are omitted silently.
	//
	// - error
	Get(ctx context.Context, names []string) (map[string]domain.Project, error)

	// list names of all projects.
	//
	// Returns
	//
	// - []string: project names, in name order.
	//
	// - error
	Find(ctx context.Context) ([]string, error)

	// Delete a project.
	//
	// Functions, workflows, runs and artifact records of the project
	// are deleted together. Keys of deleted artifacts, and the key of
	// the project source archive, are moved to "garbage" so that the
	// gc loop sweeps them out of the object store.
	//
	// Args
	//
	// - context.Context
	//
	// - string: name of the project to be deleted.
	//
	// Returns
	//
	// - error: ErrMissing (when no such project),
	// ErrProjectActive (when the project has runs which are not finished yet,
	// or endpoints which are not removed yet)
	Delete(ctx context.Context, name string) error
}
