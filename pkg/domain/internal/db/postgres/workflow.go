package postgres

import (
	"context"

	kpool "github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
)

// get Workflows of a project by name, with their steps.
//
// Steps are ordered as they were registered. Workflows not found are
// just omitted, without error.
func GetWorkflow(ctx context.Context, conn kpool.Queryer, projectName string, names []string) (map[string]domain.Workflow, error) {
	result := map[string]domain.Workflow{}

	rows, err := conn.Query(
		ctx,
		`
		select "name", "updated_at" from "workflow"
		where "project_name" = $1 and "name" = any($2::varchar[])
		`,
		projectName, names,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		w := domain.Workflow{ProjectName: projectName}
		if err := rows.Scan(&w.Name, &w.UpdatedAt); err != nil {
			return nil, err
		}
		result[w.Name] = w
	}

	// position of each step: workflow name -> step name -> index in Steps
	pos := map[string]map[string]int{}

	step_rows, err := conn.Query(
		ctx,
		`
		select "workflow_name", "name", "function_name", "handler"
		from "workflow_step"
		where "project_name" = $1 and "workflow_name" = any($2::varchar[])
		order by "workflow_name", "seq"
		`,
		projectName, names,
	)
	if err != nil {
		return nil, err
	}
	defer step_rows.Close()
	for step_rows.Next() {
		var workflowName string
		step := domain.WorkflowStep{}
		if err := step_rows.Scan(
			&workflowName, &step.Name, &step.FunctionName, &step.Handler,
		); err != nil {
			return nil, err
		}
		w, ok := result[workflowName]
		if !ok {
			continue
		}
		if _, ok := pos[workflowName]; !ok {
			pos[workflowName] = map[string]int{}
		}
		pos[workflowName][step.Name] = len(w.Steps)
		w.Steps = append(w.Steps, step)
		result[workflowName] = w
	}

	need_rows, err := conn.Query(
		ctx,
		`
		select "workflow_name", "step_name", "needs" from "step_need"
		where "project_name" = $1 and "workflow_name" = any($2::varchar[])
		order by "workflow_name", "step_name", "needs"
		`,
		projectName, names,
	)
	if err != nil {
		return nil, err
	}
	defer need_rows.Close()
	for need_rows.Next() {
		var workflowName, stepName, needs string
		if err := need_rows.Scan(&workflowName, &stepName, &needs); err != nil {
			return nil, err
		}
		nth, ok := pos[workflowName][stepName]
		if !ok {
			continue
		}
		w := result[workflowName]
		step := w.Steps[nth]
		step.Needs = append(step.Needs, needs)
		w.Steps[nth] = step
		result[workflowName] = w
	}

	param_rows, err := conn.Query(
		ctx,
		`
		select "workflow_name", "step_name", "key", "value" from "step_param"
		where "project_name" = $1 and "workflow_name" = any($2::varchar[])
		`,
		projectName, names,
	)
	if err != nil {
		return nil, err
	}
	defer param_rows.Close()
	for param_rows.Next() {
		var workflowName, stepName, key, value string
		if err := param_rows.Scan(&workflowName, &stepName, &key, &value); err != nil {
			return nil, err
		}
		nth, ok := pos[workflowName][stepName]
		if !ok {
			continue
		}
		w := result[workflowName]
		step := w.Steps[nth]
		if step.Params == nil {
			step.Params = map[string]string{}
		}
		step.Params[key] = value
		w.Steps[nth] = step
		result[workflowName] = w
	}

	model_rows, err := conn.Query(
		ctx,
		`
		select "workflow_name", "step_name", "model", "artifact" from "step_model"
		where "project_name" = $1 and "workflow_name" = any($2::varchar[])
		`,
		projectName, names,
	)
	if err != nil {
		return nil, err
	}
	defer model_rows.Close()
	for model_rows.Next() {
		var workflowName, stepName, model, artifact string
		if err := model_rows.Scan(&workflowName, &stepName, &model, &artifact); err != nil {
			return nil, err
		}
		nth, ok := pos[workflowName][stepName]
		if !ok {
			continue
		}
		w := result[workflowName]
		step := w.Steps[nth]
		if step.Models == nil {
			step.Models = map[string]string{}
		}
		step.Models[model] = artifact
		w.Steps[nth] = step
		result[workflowName] = w
	}

	return result, nil
}
