package db

import (
	"context"

	"github.com/quaark/mlrun-remote-project/pkg/domain"
)

type Interface interface {
	// Register a model endpoint, or redeploy the registered one.
	//
	// The endpoint is identified with its name, platform-wide.
	// Registering a name twice points the endpoint at the new run and
	// resets its status to deploying. The run which backed the endpoint
	// before loses its protection and can be retried or deleted.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.Endpoint: endpoint to be registered.
	// Status and UpdatedAt in it are ignored.
	//
	// Returns
	//
	// - domain.Endpoint: the endpoint as it is stored now.
	//
	// - error: ErrMissing (when the run is not found).
	Register(ctx context.Context, endpoint domain.Endpoint) (domain.Endpoint, error)

	// Retreive endpoints with their names.
	//
	// Args
	//
	// - context.Context
	//
	// - []string: endpoint names.
	//
	// Returns
	//
	// - map[string]domain.Endpoint: mapping name->endpoint.
	// Names which are not found are omitted silently.
	//
	// - error
	Get(ctx context.Context, names []string) (map[string]domain.Endpoint, error)

	// Find names of endpoints matching the query.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.EndpointFindQuery
	//
	// Returns
	//
	// - []string: endpoint names, ordered by update time (and name, as
	// tiebreaker).
	//
	// - error
	Find(ctx context.Context, query domain.EndpointFindQuery) ([]string, error)

	// SetStatus moves an endpoint along deploying -> ready -> retired.
	//
	// Setting the status it already has is a no-op.
	//
	// Args
	//
	// - context.Context
	//
	// - string: name of the endpoint.
	//
	// - domain.EndpointStatus: status to be set.
	//
	// Returns
	//
	// - domain.Endpoint: the endpoint as it is stored now.
	//
	// - error: ErrMissing (when no endpoint has the name),
	// ErrInvalidEndpointStateChanging (when the status would move
	// backwards).
	SetStatus(ctx context.Context, name string, status domain.EndpointStatus) (domain.Endpoint, error)

	// Delete a retired endpoint.
	//
	// Args
	//
	// - context.Context
	//
	// - string: name of the endpoint.
	//
	// Returns
	//
	// - error: ErrMissing (when no endpoint has the name),
	// ErrInvalidEndpointStateChanging (when the endpoint is not
	// retired).
	Delete(ctx context.Context, name string) error
}
