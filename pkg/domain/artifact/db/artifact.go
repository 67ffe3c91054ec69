package db

import (
	"context"

	"github.com/quaark/mlrun-remote-project/pkg/domain"
)

type Interface interface {
	// Register an artifact, or update the registered one.
	//
	// The artifact is identified with its object key
	// "<project>/<run id>/<name>". Registering a key twice overwrites
	// kind and size and bumps the update timestamp, since workers may
	// upload the same artifact again after a crash.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.ArtifactBody: artifact to be registered.
	// UpdatedAt in it is ignored.
	//
	// Returns
	//
	// - domain.ArtifactBody: the artifact as it is stored now.
	//
	// - error: ErrMissing (when the run in the key is not found),
	// or an error describing a malformed key.
	Register(ctx context.Context, artifact domain.ArtifactBody) (domain.ArtifactBody, error)

	// Retreive artifacts with their object keys.
	//
	// Args
	//
	// - context.Context
	//
	// - []string: object keys.
	//
	// Returns
	//
	// - map[string]domain.ArtifactBody: mapping key->artifact.
	// Keys which are not found are omitted silently.
	//
	// - error
	Get(ctx context.Context, keys []string) (map[string]domain.ArtifactBody, error)

	// Find object keys of artifacts matching the query.
	//
	// Args
	//
	// - context.Context
	//
	// - domain.ArtifactFindQuery
	//
	// Returns
	//
	// - []string: object keys, ordered by update time (and key, as
	// tiebreaker).
	//
	// - error
	Find(ctx context.Context, query domain.ArtifactFindQuery) ([]string, error)
}
