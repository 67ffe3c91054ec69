package postgres

import (
	"context"
	"fmt"
	"time"

	kpool "github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	"github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/postgres/marshal"
	"k8s.io/apimachinery/pkg/api/resource"
)

type RunStatus domain.RunStatus

// implement sql.Scanner
func (rs *RunStatus) Scan(v any) error {

	var s string
	switch vv := v.(type) {
	case string:
		s = vv
	case []byte:
		s = string(vv)
	default:
		return fmt.Errorf("parse error for RunStatus: %#v", v)
	}

	parsed, err := domain.AsRunStatus(s)
	if err != nil {
		return err
	}
	*rs = RunStatus(parsed)
	return nil
}

// runDescriptor is half-baked RunBody.
//
// It is used for building Run or RunBody.
type runDescriptor struct {
	Id            string
	Status        RunStatus
	WorkerName    string
	UpdatedAt     time.Time
	ProjectName   string
	WorkflowName  string
	PipelineRunId string
	StepName      string
	FunctionName  string
	FunctionKind  string
	Image         string
	ImageVersion  string
	Handler       string
	Source        string
}

func getRunDescriptors(ctx context.Context, conn kpool.Queryer, runIds []string) (map[string]runDescriptor, error) {
	result := map[string]runDescriptor{}
	rows, err := conn.Query(
		ctx,
		`
		select
			"run_id", "status", "updated_at", "project_name", "workflow_name",
			coalesce("run_step"."pipeline_run_id", ''),
			coalesce("run_step"."step_name", ''),
			coalesce("run_step"."function_name", ''),
			coalesce("run_step"."function_kind"::text, ''),
			coalesce("run_step"."image", ''),
			coalesce("run_step"."image_version", ''),
			coalesce("run_step"."handler", ''),
			coalesce("run_step"."source", ''),
			coalesce("worker"."name", '')
		from "run"
		left outer join "run_step" using ("run_id")
		left outer join "worker" using ("run_id")
		where "run_id" = ANY($1::varchar[])
		`,
		runIds,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rd runDescriptor
		if err := rows.Scan(
			&rd.Id, &rd.Status, &rd.UpdatedAt, &rd.ProjectName,
			&rd.WorkflowName, &rd.PipelineRunId, &rd.StepName,
			&rd.FunctionName, &rd.FunctionKind,
			&rd.Image, &rd.ImageVersion, &rd.Handler, &rd.Source,
			&rd.WorkerName,
		); err != nil {
			return nil, err
		}
		result[rd.Id] = rd
	}

	return result, nil
}

// get RunBody by runId
//
// # Args
//
// - context.Context
//
// - Queryer
//
// - []string : runIds to query
//
// # Return
//
// - map[string]domain.RunBody : mapping from runId to domain.RunBody
//
// - error
func GetRunBody(ctx context.Context, conn kpool.Queryer, runIds []string) (map[string]domain.RunBody, error) {

	runDescriptors, err := getRunDescriptors(ctx, conn, runIds)
	if err != nil {
		return nil, err
	}

	runExits := map[string]domain.RunExit{}
	{
		rows, err := conn.Query(
			ctx,
			`
			select "run_id", "exit_code", "message" from "run_exit"
			where "run_id" = any($1::varchar[])
			`,
			runIds,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var runId string
			exit := domain.RunExit{}
			if err := rows.Scan(&runId, &exit.Code, &exit.Message); err != nil {
				return nil, err
			}
			runExits[runId] = exit
		}
	}

	// runId -> step params, frozen at trigger time
	params := map[string]map[string]string{}
	{
		rows, err := conn.Query(
			ctx,
			`
			select "run_id", "key", "value" from "run_param"
			where "run_id" = any($1::varchar[])
			`,
			runIds,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var runId, key, value string
			if err := rows.Scan(&runId, &key, &value); err != nil {
				return nil, err
			}
			p, ok := params[runId]
			if !ok {
				p = map[string]string{}
			}
			p[key] = value
			params[runId] = p
		}
	}

	// runId -> names of needed steps
	needs := map[string][]string{}
	{
		rows, err := conn.Query(
			ctx,
			`
			select "run_dep"."run_id", "n"."step_name"
			from "run_dep"
			inner join "run_step" as "n" on "n"."run_id" = "run_dep"."needs_run_id"
			where "run_dep"."run_id" = any($1::varchar[])
			order by "run_dep"."run_id", "n"."step_name"
			`,
			runIds,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var runId, stepName string
			if err := rows.Scan(&runId, &stepName); err != nil {
				return nil, err
			}
			needs[runId] = append(needs[runId], stepName)
		}
	}

	// runId -> model name -> artifact name
	models := map[string]map[string]string{}
	{
		rows, err := conn.Query(
			ctx,
			`
			select "run_id", "model", "artifact" from "run_model"
			where "run_id" = any($1::varchar[])
			`,
			runIds,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var runId, model, artifact string
			if err := rows.Scan(&runId, &model, &artifact); err != nil {
				return nil, err
			}
			m, ok := models[runId]
			if !ok {
				m = map[string]string{}
			}
			m[model] = artifact
			models[runId] = m
		}
	}

	// runId -> resource type -> quantity
	resources := map[string]map[string]resource.Quantity{}
	{
		rows, err := conn.Query(
			ctx,
			`
			select "run_id", "type", "value" from "run_resource"
			where "run_id" = any($1::varchar[])
			`,
			runIds,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var runId, typ string
			var value marshal.ResourceQuantity
			if err := rows.Scan(&runId, &typ, &value); err != nil {
				return nil, err
			}
			r, ok := resources[runId]
			if !ok {
				r = map[string]resource.Quantity{}
			}
			r[typ] = resource.Quantity(value)
			resources[runId] = r
		}
	}

	result := map[string]domain.RunBody{}
	for _, rd := range runDescriptors {
		var exit *domain.RunExit
		if e, ok := runExits[rd.Id]; ok {
			exit = &e
		}

		body := domain.RunBody{
			Id:            rd.Id,
			Status:        domain.RunStatus(rd.Status),
			Exit:          exit,
			WorkerName:    rd.WorkerName,
			UpdatedAt:     rd.UpdatedAt,
			ProjectName:   rd.ProjectName,
			WorkflowName:  rd.WorkflowName,
			PipelineRunId: rd.PipelineRunId,
		}

		if rd.PipelineRunId != "" {
			kind, err := domain.AsFunctionKind(rd.FunctionKind)
			if err != nil {
				return nil, err
			}
			body.Step = &domain.WorkflowStep{
				Name:         rd.StepName,
				FunctionName: rd.FunctionName,
				Handler:      rd.Handler,
				Params:       params[rd.Id],
				Needs:        needs[rd.Id],
				Models:       models[rd.Id],
			}
			var image *domain.ImageIdentifier
			if rd.Image != "" || rd.ImageVersion != "" {
				image = &domain.ImageIdentifier{
					Image:   rd.Image,
					Version: rd.ImageVersion,
				}
			}
			body.Function = &domain.FunctionBody{
				ProjectName: rd.ProjectName,
				Name:        rd.FunctionName,
				Kind:        kind,
				Image:       image,
				Handler:     rd.Handler,
				Source:      rd.Source,
				Resources:   resources[rd.Id],
			}
		}

		result[rd.Id] = body
	}
	return result, nil
}

func GetRun(ctx context.Context, conn kpool.Queryer, runIds []string) (map[string]domain.Run, error) {

	runBodies, err := GetRunBody(ctx, conn, runIds)
	if err != nil {
		return nil, err
	}

	// runId -> artifacts published by the run
	artifacts := map[string][]domain.ArtifactBody{}
	{
		rows, err := conn.Query(
			ctx,
			`
			select "key", "kind", "run_id", "size", "updated_at" from "artifact"
			where "run_id" = any($1::varchar[])
			order by "run_id", "name"
			`,
			runIds,
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
			artifacts[a.RunId] = append(artifacts[a.RunId], a)
		}
	}

	result := map[string]domain.Run{}
	for runId := range runBodies {
		rb := runBodies[runId]
		result[rb.Id] = domain.Run{
			RunBody:   rb,
			Artifacts: artifacts[rb.Id],
		}
	}

	return result, nil
}
