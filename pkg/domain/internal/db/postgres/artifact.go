package postgres

import (
	"context"
	"fmt"

	kpool "github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
)

type ArtifactKind domain.ArtifactKind

// implement sql.Scanner
func (ak *ArtifactKind) Scan(v any) error {

	var s string
	switch vv := v.(type) {
	case string:
		s = vv
	case []byte:
		s = string(vv)
	default:
		return fmt.Errorf("parse error for ArtifactKind: %#v", v)
	}

	parsed, err := domain.AsArtifactKind(s)
	if err != nil {
		return err
	}
	*ak = ArtifactKind(parsed)
	return nil
}

// get ArtifactBody by object key
//
// # Args
//
// - context.Context
//
// - Queryer
//
// - []string : object keys to query
//
// # Return
//
// - map[string]domain.ArtifactBody : mapping from key to domain.ArtifactBody
//
// - error
func GetArtifactBody(ctx context.Context, conn kpool.Queryer, keys []string) (map[string]domain.ArtifactBody, error) {
	result := map[string]domain.ArtifactBody{}
	rows, err := conn.Query(
		ctx,
		`
		select "key", "kind", "run_id", "size", "updated_at" from "artifact"
		where "key" = any($1::varchar[])
		`,
		keys,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.ArtifactBody
		var kind ArtifactKind
		if err := rows.Scan(&a.Key, &kind, &a.RunId, &a.Size, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Kind = domain.ArtifactKind(kind)
		result[a.Key] = a
	}

	return result, nil
}
