package postgres

import (
	"context"
	"fmt"

	kpool "github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
)

type EndpointStatus domain.EndpointStatus

// implement sql.Scanner
func (es *EndpointStatus) Scan(v any) error {

	var s string
	switch vv := v.(type) {
	case string:
		s = vv
	case []byte:
		s = string(vv)
	default:
		return fmt.Errorf("parse error for EndpointStatus: %#v", v)
	}

	parsed, err := domain.AsEndpointStatus(s)
	if err != nil {
		return err
	}
	*es = EndpointStatus(parsed)
	return nil
}

// get Endpoint by name
//
// # Args
//
// - context.Context
//
// - Queryer
//
// - []string : endpoint names to query
//
// # Return
//
// - map[string]domain.Endpoint : mapping from name to domain.Endpoint
//
// - error
func GetEndpoint(ctx context.Context, conn kpool.Queryer, names []string) (map[string]domain.Endpoint, error) {
	result := map[string]domain.Endpoint{}
	rows, err := conn.Query(
		ctx,
		`
		select
			"name", "project_name", "model_name", "run_id",
			"service", "port", "status", "updated_at"
		from "endpoint"
		where "name" = any($1::varchar[])
		`,
		names,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ep domain.Endpoint
		var status EndpointStatus
		if err := rows.Scan(
			&ep.Name, &ep.ProjectName, &ep.ModelName, &ep.RunId,
			&ep.Service, &ep.Port, &status, &ep.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ep.Status = domain.EndpointStatus(status)
		result[ep.Name] = ep
	}

	return result, nil
}
