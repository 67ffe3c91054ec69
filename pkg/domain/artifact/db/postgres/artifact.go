package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	kpool "github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kdbartifact "github.com/quaark/mlrun-remote-project/pkg/domain/artifact/db"
	kerrpg "github.com/quaark/mlrun-remote-project/pkg/domain/errors/dberrors/postgres"
	kpgintr "github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/postgres"
	"github.com/quaark/mlrun-remote-project/pkg/utils"
)

type pgArtifact struct { // implements db.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) *pgArtifact {
	return &pgArtifact{pool: pool}
}

func (m *pgArtifact) Register(ctx context.Context, artifact domain.ArtifactBody) (domain.ArtifactBody, error) {
	projectName, runId, name, err := domain.ParseArtifactKey(artifact.Key)
	if err != nil {
		return domain.ArtifactBody{}, err
	}
	if artifact.RunId != runId {
		return domain.ArtifactBody{}, fmt.Errorf(
			"artifact key '%s' does not point at run '%s'", artifact.Key, artifact.RunId,
		)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return domain.ArtifactBody{}, err
	}
	defer tx.Rollback(ctx)

	// Take lock so that the run cannot be purged before commit.
	var runProject string
	if err := tx.QueryRow(
		ctx,
		`select "project_name" from "run" where "run_id" = $1 for share`,
		runId,
	).Scan(&runProject); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ArtifactBody{}, kerrpg.Missing{
				Table:    "run",
				Identity: fmt.Sprintf("run_id='%s'", runId),
			}
		}
		return domain.ArtifactBody{}, err
	}
	if runProject != projectName {
		return domain.ArtifactBody{}, fmt.Errorf(
			"artifact key '%s' names project '%s', but run '%s' belongs to '%s'",
			artifact.Key, projectName, runId, runProject,
		)
	}

	var stored domain.ArtifactBody
	var kind kpgintr.ArtifactKind
	if err := tx.QueryRow(
		ctx,
		`
		insert into "artifact" ("key", "project_name", "name", "kind", "run_id", "size")
		values ($1, $2, $3, $4::artifactKind, $5, $6)
		on conflict ("key") do update set
			"kind" = excluded."kind",
			"size" = excluded."size",
			"updated_at" = now()
		returning "key", "kind", "run_id", "size", "updated_at"
		`,
		artifact.Key, projectName, name, string(artifact.Kind), runId, artifact.Size,
	).Scan(&stored.Key, &kind, &stored.RunId, &stored.Size, &stored.UpdatedAt); err != nil {
		return domain.ArtifactBody{}, err
	}
	stored.Kind = domain.ArtifactKind(kind)

	if err := tx.Commit(ctx); err != nil {
		return domain.ArtifactBody{}, err
	}
	return stored, nil
}

func (m *pgArtifact) Get(ctx context.Context, keys []string) (map[string]domain.ArtifactBody, error) {
	if len(keys) == 0 {
		return map[string]domain.ArtifactBody{}, nil
	}

	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return kpgintr.GetArtifactBody(ctx, conn, keys)
}

func (m *pgArtifact) Find(ctx context.Context, query domain.ArtifactFindQuery) ([]string, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "key" from "artifact"
		where
			($1 or "project_name" = ANY($2::varchar[]))
			and ($3 or "run_id" = ANY($4::varchar[]))
			and ($5 or "kind" = ANY($6::artifactKind[]))
			and ($7 or "name" = ANY($8::varchar[]))
		order by "updated_at", "key"
		`,
		len(query.ProjectName) == 0, query.ProjectName,
		len(query.RunId) == 0, query.RunId,
		len(query.Kind) == 0, utils.Map(
			query.Kind, func(k domain.ArtifactKind) string { return string(k) },
		),
		len(query.Name) == 0, query.Name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

var _ kdbartifact.Interface = &pgArtifact{}
