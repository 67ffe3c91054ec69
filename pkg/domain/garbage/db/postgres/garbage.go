package postgres

import (
	"context"

	kpool "github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool"
	types "github.com/quaark/mlrun-remote-project/pkg/domain"
	kgarbage "github.com/quaark/mlrun-remote-project/pkg/domain/garbage/db"
)

type pgGarbage struct {
	pool kpool.Pool
}

func New(pool kpool.Pool) kgarbage.Interface {
	return &pgGarbage{pool: pool}
}

func (g *pgGarbage) Pop(ctx context.Context, callback func(types.Garbage) error) (bool, error) {
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	// pop a record from garbage table
	rows, err := tx.Query(
		ctx,
		`
		with "del_key" as (
			select "key", "run_id" from "garbage" limit 1 for update skip locked
		),
		"del_garbage" as (
			delete from "garbage"
			where "key" in (select "key" from "del_key")
		)
		select * from "del_key";
		`,
	)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	var key string
	var runId string
	pop := false
	for rows.Next() {
		err = rows.Scan(&key, &runId)
		if err != nil {
			return false, err
		}
		pop = true
	}
	if err := rows.Err(); err != nil {
		return false, err
	}

	if pop && callback != nil {
		if err := callback(types.Garbage{Key: key, RunId: runId}); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	return pop, err
}
