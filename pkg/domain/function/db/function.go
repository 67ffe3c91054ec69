package db

import (
	"context"

	"github.com/quaark/mlrun-remote-project/pkg/domain"
)

type Interface interface {
	// register a function, or update the registered one.
	//
	// The function is identified with (ProjectName, Name).
	// Registering twice overwrites kind, image, handler, source and
	// resource requirements, and bumps the update timestamp.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.FunctionBody: function to be registered.
	//
	// Returns
	//
	// - domain.Function: the function as it is stored now.
	//
	// - error: ErrMissing (when the project is not registered)
	Upsert(ctx context.Context, f domain.FunctionBody) (domain.Function, error)

	// Retreive functions of a project with their names.
	//
	// Args
	//
	// - context.Context
	//
	// - string: name of the project.
	//
	// - []string: names of functions.
	//
	// Returns
	//
	// - map[string]domain.Function: mapping name->Function.
	// Names which are not found are omitted silently.
	//
	// - error
	Get(ctx context.Context, projectName string, names []string) (map[string]domain.Function, error)

	// find functions which the query matches.
	//
	// Functions are identified with (project, name) pairs, not single ids,
	// so this returns whole records rather than id strings.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.FunctionFindQuery
	//
	// Returns
	//
	// - []domain.Function: found functions, in (project name, function name) order.
	//
	// - error
	Find(ctx context.Context, query domain.FunctionFindQuery) ([]domain.Function, error)

	// Delete a function.
	//
	// Runs which were triggered with this function are left as they are:
	// they hold their own frozen copy of the function.
	//
	// Args
	//
	// - context.Context
	//
	// - string: name of the project.
	//
	// - string: name of the function to be deleted.
	//
	// Returns
	//
	// - error: ErrMissing (when no such function)
	Delete(ctx context.Context, projectName string, name string) error
}
