package postgres

import (
	"context"
	"fmt"

	kpool "github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	"github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/postgres/marshal"
	"k8s.io/apimachinery/pkg/api/resource"
)

type FunctionKind domain.FunctionKind

// implement sql.Scanner
func (fk *FunctionKind) Scan(v any) error {

	var s string
	switch vv := v.(type) {
	case string:
		s = vv
	case []byte:
		s = string(vv)
	default:
		return fmt.Errorf("parse error for FunctionKind: %#v", v)
	}

	parsed, err := domain.AsFunctionKind(s)
	if err != nil {
		return err
	}
	*fk = FunctionKind(parsed)
	return nil
}

// get Functions of a project by name.
//
// # Args
//
// - context.Context
//
// - Queryer
//
// - string : project name
//
// - []string : function names to be queried
//
// # Return
//
// - map[string]domain.Function : mapping function name to domain.Function.
// Functions not found are just omitted, without error.
//
// - error
func GetFunction(ctx context.Context, conn kpool.Queryer, projectName string, names []string) (map[string]domain.Function, error) {
	result := map[string]domain.Function{}

	rows, err := conn.Query(
		ctx,
		`
		select
			"name", "kind", "image", "image_version",
			"handler", "source", "updated_at"
		from "function"
		where "project_name" = $1 and "name" = any($2::varchar[])
		`,
		projectName, names,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		f := domain.Function{
			FunctionBody: domain.FunctionBody{
				ProjectName: projectName,
				Resources:   map[string]resource.Quantity{},
			},
		}
		var kind FunctionKind
		var image, version string
		if err := rows.Scan(
			&f.Name, &kind, &image, &version,
			&f.Handler, &f.Source, &f.UpdatedAt,
		); err != nil {
			return nil, err
		}
		f.Kind = domain.FunctionKind(kind)
		if image != "" || version != "" {
			f.Image = &domain.ImageIdentifier{Image: image, Version: version}
		}
		result[f.Name] = f
	}

	res_rows, err := conn.Query(
		ctx,
		`
		select "function_name", "type", "value" from "function_resource"
		where "project_name" = $1 and "function_name" = any($2::varchar[])
		`,
		projectName, names,
	)
	if err != nil {
		return nil, err
	}
	defer res_rows.Close()

	for res_rows.Next() {
		var name, typ string
		var value marshal.ResourceQuantity
		if err := res_rows.Scan(&name, &typ, &value); err != nil {
			return nil, err
		}
		f, ok := result[name]
		if !ok {
			continue
		}
		f.Resources[typ] = resource.Quantity(value)
		result[name] = f
	}

	return result, nil
}
