package tests_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool/testenv"
	"github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/scanner"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kerr "github.com/quaark/mlrun-remote-project/pkg/domain/errors"
	"github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/postgres/marshal"
	"github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/postgres/tables"
	th "github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/postgres/testhelpers"
	kpgrun "github.com/quaark/mlrun-remote-project/pkg/domain/run/db/postgres"
	"github.com/quaark/mlrun-remote-project/pkg/utils"
	"github.com/quaark/mlrun-remote-project/pkg/utils/cmp"
	"github.com/quaark/mlrun-remote-project/pkg/utils/try"
	"k8s.io/apimachinery/pkg/api/resource"
)

func TestRun_NewPipeline(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	fixedTime := try.To(th.ISO8601("2024-10-01T12:00:00+00:00")).OrFatal(t)

	given := tables.Operation{
		Project: []tables.Project{
			{
				Name:      "demo",
				Source:    "git://github.com/example/demo.git",
				CreatedAt: fixedTime,
			},
		},
		Function: []tables.Function{
			{
				ProjectName: "demo", Name: "ingest", Kind: domain.KindJob,
				Image: "mlrun/mlrun", ImageVersion: "1.6.0",
				Handler: "ingest", UpdatedAt: fixedTime,
			},
			{
				ProjectName: "demo", Name: "train", Kind: domain.KindJob,
				Image: "mlrun/mlrun", ImageVersion: "1.6.0",
				Handler: "train", UpdatedAt: fixedTime,
			},
			{
				ProjectName: "demo", Name: "serving", Kind: domain.KindServing,
				Handler: "serve", Source: "hub://v2_model_server",
				UpdatedAt: fixedTime,
			},
		},
		FunctionResources: []tables.FunctionResource{
			{
				ProjectName: "demo", FunctionName: "train",
				Type: "cpu", Value: marshal.ResourceQuantity(resource.MustParse("500m")),
			},
			{
				ProjectName: "demo", FunctionName: "train",
				Type: "memory", Value: marshal.ResourceQuantity(resource.MustParse("256Mi")),
			},
		},
		Workflow: []tables.Workflow{
			{ProjectName: "demo", Name: "main", UpdatedAt: fixedTime},
			{ProjectName: "demo", Name: "broken", UpdatedAt: fixedTime},
		},
		WorkflowSteps: []tables.WorkflowStep{
			{
				ProjectName: "demo", WorkflowName: "main",
				Name: "ingest", FunctionName: "ingest", Seq: 0,
			},
			{
				ProjectName: "demo", WorkflowName: "main",
				Name: "train", FunctionName: "train", Handler: "train_model", Seq: 1,
			},
			{
				ProjectName: "demo", WorkflowName: "main",
				Name: "deploy", FunctionName: "serving", Seq: 2,
			},

			// "broken" points at a function which is not registered.
			{
				ProjectName: "demo", WorkflowName: "broken",
				Name: "extract", FunctionName: "ghost", Seq: 0,
			},
		},
		StepNeeds: []tables.StepNeed{
			{ProjectName: "demo", WorkflowName: "main", StepName: "train", Needs: "ingest"},
			{ProjectName: "demo", WorkflowName: "main", StepName: "deploy", Needs: "train"},
		},
		StepParams: []tables.StepParam{
			{
				ProjectName: "demo", WorkflowName: "main", StepName: "train",
				Key: "label_column", Value: "label",
			},
			{
				ProjectName: "demo", WorkflowName: "main", StepName: "train",
				Key: "test_size", Value: "0.2",
			},
		},
		StepModels: []tables.StepModel{
			{
				ProjectName: "demo", WorkflowName: "main", StepName: "deploy",
				Model: "cancer-classifier", Artifact: "model",
			},
		},
	}

	t.Run("it creates a pipeline run and step runs frozen from the workflow", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		testee := kpgrun.New(pool)

		before := try.To(th.PGNow(ctx, conn)).OrFatal(t)
		pipelineRunId := try.To(testee.NewPipeline(
			ctx, "demo", "main",
			map[string]map[string]string{
				"train": {"test_size": "0.3"},
			},
		)).OrFatal(t)
		after := try.To(th.PGNow(ctx, conn)).OrFatal(t)

		runs := try.To(scanner.New[tables.Run]().QueryAll(
			ctx, conn, `table "run"`,
		)).OrFatal(t)
		if len(runs) != 4 {
			t.Fatalf("unexpected runs: %+v", runs)
		}
		for _, r := range runs {
			if r.Status != domain.Waiting {
				t.Errorf("run %s: status %s, want %s", r.RunId, r.Status, domain.Waiting)
			}
			if r.ProjectName != "demo" || r.WorkflowName != "main" {
				t.Errorf("run %s: unexpected origin: %+v", r.RunId, r)
			}
			if r.UpdatedAt.Before(before) || after.Before(r.UpdatedAt) {
				t.Errorf(
					"run %s: updated_at %s is not between %s and %s",
					r.RunId, r.UpdatedAt, before, after,
				)
			}
		}

		steps := try.To(scanner.New[tables.RunStep]().QueryAll(
			ctx, conn, `table "run_step"`,
		)).OrFatal(t)
		byName := utils.ToMap(steps, func(s tables.RunStep) string { return s.StepName })
		if len(byName) != 3 {
			t.Fatalf("unexpected step runs: %+v", steps)
		}
		for _, s := range steps {
			if s.PipelineRunId != pipelineRunId {
				t.Errorf("step %s: pipeline run id %s, want %s", s.StepName, s.PipelineRunId, pipelineRunId)
			}
		}
		{
			got := utils.Map(runs, func(r tables.Run) string { return r.RunId })
			want := append(
				utils.Map(steps, func(s tables.RunStep) string { return s.RunId }),
				pipelineRunId,
			)
			if !cmp.SliceContentEq(got, want) {
				t.Errorf("run ids:\n- got : %+v\n- want: %+v", got, want)
			}
		}

		{
			want := map[string]tables.RunStep{
				"ingest": {
					StepName: "ingest", FunctionName: "ingest", FunctionKind: domain.KindJob,
					Image: "mlrun/mlrun", ImageVersion: "1.6.0", Handler: "ingest",
				},
				"train": {
					StepName: "train", FunctionName: "train", FunctionKind: domain.KindJob,
					Image: "mlrun/mlrun", ImageVersion: "1.6.0", Handler: "train_model",
				},
				"deploy": {
					StepName: "deploy", FunctionName: "serving", FunctionKind: domain.KindServing,
					Handler: "serve", Source: "hub://v2_model_server",
				},
			}
			for name, w := range want {
				got, ok := byName[name]
				if !ok {
					t.Errorf("step %s is not recorded", name)
					continue
				}
				w.RunId = got.RunId
				w.PipelineRunId = got.PipelineRunId
				if got != w {
					t.Errorf("step %s:\n- got : %+v\n- want: %+v", name, got, w)
				}
			}
		}

		{
			got := try.To(scanner.New[tables.RunDep]().QueryAll(
				ctx, conn, `table "run_dep"`,
			)).OrFatal(t)
			want := []tables.RunDep{
				{RunId: byName["train"].RunId, NeedsRunId: byName["ingest"].RunId},
				{RunId: byName["deploy"].RunId, NeedsRunId: byName["train"].RunId},
			}
			if !cmp.SliceContentEq(got, want) {
				t.Errorf("run_dep:\n- got : %+v\n- want: %+v", got, want)
			}
		}

		{
			got := try.To(scanner.New[tables.RunParam]().QueryAll(
				ctx, conn, `table "run_param"`,
			)).OrFatal(t)
			want := []tables.RunParam{
				{RunId: byName["train"].RunId, Key: "label_column", Value: "label"},
				// overwritten at trigger time
				{RunId: byName["train"].RunId, Key: "test_size", Value: "0.3"},
			}
			if !cmp.SliceContentEq(got, want) {
				t.Errorf("run_param:\n- got : %+v\n- want: %+v", got, want)
			}
		}

		{
			got := try.To(scanner.New[tables.RunModel]().QueryAll(
				ctx, conn, `table "run_model"`,
			)).OrFatal(t)
			want := []tables.RunModel{
				{RunId: byName["deploy"].RunId, Model: "cancer-classifier", Artifact: "model"},
			}
			if !cmp.SliceContentEq(got, want) {
				t.Errorf("run_model:\n- got : %+v\n- want: %+v", got, want)
			}
		}

		{
			got := try.To(scanner.New[tables.RunResource]().QueryAll(
				ctx, conn, `table "run_resource"`,
			)).OrFatal(t)
			want := []tables.RunResource{
				{RunId: byName["train"].RunId, Type: "cpu", Value: marshal.ResourceQuantity(resource.MustParse("500m"))},
				{RunId: byName["train"].RunId, Type: "memory", Value: marshal.ResourceQuantity(resource.MustParse("256Mi"))},
			}
			if !cmp.SliceContentEqWith(
				got, want,
				func(a, b tables.RunResource) bool {
					return a.RunId == b.RunId && a.Type == b.Type && a.Value.Equal(&b.Value)
				},
			) {
				t.Errorf("run_resource:\n- got : %+v\n- want: %+v", got, want)
			}
		}

		{
			got := try.To(scanner.New[tables.Worker]().QueryAll(
				ctx, conn, `table "worker"`,
			)).OrFatal(t)
			want := utils.Map(steps, func(s tables.RunStep) tables.Worker {
				return tables.Worker{RunId: s.RunId, Name: "worker-run-" + s.RunId}
			})
			if !cmp.SliceContentEq(got, want) {
				t.Errorf("worker:\n- got : %+v\n- want: %+v", got, want)
			}
		}
	})

	t.Run("it takes the naming convention for worker names", func(t *testing.T) {
		ctx := context.Background()
		pool := poolBroaker.GetPool(ctx, t)
		if err := given.Apply(ctx, pool); err != nil {
			t.Fatal(err)
		}

		conn := try.To(pool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		testee := kpgrun.New(pool, kpgrun.WithNamingConvention(
			kpgrun.PrefixNamingConvention{PrefixWorker: "testing-"},
		))

		if _, err := testee.NewPipeline(ctx, "demo", "main", nil); err != nil {
			t.Fatal(err)
		}

		workers := try.To(scanner.New[tables.Worker]().QueryAll(
			ctx, conn, `table "worker"`,
		)).OrFatal(t)
		if len(workers) != 3 {
			t.Fatalf("unexpected workers: %+v", workers)
		}
		for _, w := range workers {
			if !strings.HasPrefix(w.Name, "testing-") {
				t.Errorf("worker %s: name %s does not follow the convention", w.RunId, w.Name)
			}
		}
	})

	{
		theory := func(projectName, workflowName string) func(*testing.T) {
			return func(t *testing.T) {
				ctx := context.Background()
				pool := poolBroaker.GetPool(ctx, t)
				if err := given.Apply(ctx, pool); err != nil {
					t.Fatal(err)
				}

				testee := kpgrun.New(pool)
				if _, err := testee.NewPipeline(ctx, projectName, workflowName, nil); !errors.Is(err, kerr.ErrMissing) {
					t.Errorf("unexpected error: %+v", err)
				}

				conn := try.To(pool.Acquire(ctx)).OrFatal(t)
				defer conn.Release()
				runs := try.To(scanner.New[tables.Run]().QueryAll(
					ctx, conn, `table "run"`,
				)).OrFatal(t)
				if len(runs) != 0 {
					t.Errorf("runs are registered unexpectedly: %+v", runs)
				}
			}
		}

		t.Run("when the workflow does not exist, it registers nothing", theory("demo", "ghost"))
		t.Run("when the project does not exist, it registers nothing", theory("no-such-project", "main"))
		t.Run("when a step wants an unknown function, it registers nothing", theory("demo", "broken"))
	}
}
