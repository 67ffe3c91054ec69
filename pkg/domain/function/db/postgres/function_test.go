package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool/testenv"
	"github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/scanner"
	"github.com/quaark/mlrun-remote-project/pkg/domain"
	kerr "github.com/quaark/mlrun-remote-project/pkg/domain/errors"
	kpgfunction "github.com/quaark/mlrun-remote-project/pkg/domain/function/db/postgres"
	"github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/postgres/marshal"
	"github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/postgres/tables"
	th "github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/postgres/testhelpers"
	"github.com/quaark/mlrun-remote-project/pkg/utils/cmp"
	"github.com/quaark/mlrun-remote-project/pkg/utils/rfctime"
	"github.com/quaark/mlrun-remote-project/pkg/utils/try"
	"k8s.io/apimachinery/pkg/api/resource"
)

func TestFunction_Upsert(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	fixedTime := try.To(
		rfctime.ParseRFC3339DateTime("2024-10-01T12:13:14.567+00:00"),
	).OrFatal(t).Time()

	eqResource := func(a, b tables.FunctionResource) bool {
		return a.ProjectName == b.ProjectName &&
			a.FunctionName == b.FunctionName &&
			a.Type == b.Type &&
			a.Value.Equal(&b.Value)
	}

	t.Run("it registers a new function into a project", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		if err := (&tables.Operation{
			Project: []tables.Project{
				{Name: "demo", Source: "https://example.com/demo.git", CreatedAt: fixedTime},
			},
		}).Apply(ctx, pgpool); err != nil {
			t.Fatal(err)
		}

		testee := kpgfunction.New(pgpool)

		conn := try.To(pgpool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		body := domain.FunctionBody{
			ProjectName: "demo",
			Name:        "train",
			Kind:        domain.KindJob,
			Image:       &domain.ImageIdentifier{Image: "mlrun/mlrun", Version: "1.6.0"},
			Handler:     "train_model",
			Source:      "src/train.py",
			Resources: map[string]resource.Quantity{
				"cpu":    resource.MustParse("500m"),
				"memory": resource.MustParse("256Mi"),
			},
		}

		before := try.To(th.PGNow(ctx, conn)).OrFatal(t)
		actual := try.To(testee.Upsert(ctx, body)).OrFatal(t)
		after := try.To(th.PGNow(ctx, conn)).OrFatal(t)

		expected := domain.Function{FunctionBody: body, UpdatedAt: actual.UpdatedAt}
		if !actual.Equal(&expected) {
			t.Errorf(
				"unmatch: function\n=== actual ===\n%+v\n=== expected ===\n%+v",
				actual, expected,
			)
		}
		if actual.UpdatedAt.Before(before) || actual.UpdatedAt.After(after) {
			t.Errorf(
				"updated_at: not in (%s, %s): %s",
				before, after, actual.UpdatedAt,
			)
		}

		functions := try.To(scanner.New[tables.Function]().QueryAll(
			ctx, conn, `table "function"`,
		)).OrFatal(t)
		expectedFunctions := []tables.Function{
			{
				ProjectName: "demo", Name: "train", Kind: domain.KindJob,
				Image: "mlrun/mlrun", ImageVersion: "1.6.0",
				Handler: "train_model", Source: "src/train.py",
				UpdatedAt: actual.UpdatedAt,
			},
		}
		if !cmp.SliceContentEqWith(
			functions, expectedFunctions,
			func(a, b tables.Function) bool { return a.Equal(&b) },
		) {
			t.Errorf(
				"unmatch: function\n=== actual ===\n%+v\n=== expected ===\n%+v",
				functions, expectedFunctions,
			)
		}

		resources := try.To(scanner.New[tables.FunctionResource]().QueryAll(
			ctx, conn, `table "function_resource"`,
		)).OrFatal(t)
		expectedResources := []tables.FunctionResource{
			{
				ProjectName: "demo", FunctionName: "train",
				Type: "cpu", Value: marshal.ResourceQuantity(resource.MustParse("500m")),
			},
			{
				ProjectName: "demo", FunctionName: "train",
				Type: "memory", Value: marshal.ResourceQuantity(resource.MustParse("256Mi")),
			},
		}
		if !cmp.SliceContentEqWith(resources, expectedResources, eqResource) {
			t.Errorf(
				"unmatch: function_resource\n=== actual ===\n%+v\n=== expected ===\n%+v",
				resources, expectedResources,
			)
		}
	})

	t.Run("it overwrites a known function", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		if err := (&tables.Operation{
			Project: []tables.Project{
				{Name: "demo", Source: "https://example.com/demo.git", CreatedAt: fixedTime},
			},
			Function: []tables.Function{
				{
					ProjectName: "demo", Name: "train", Kind: domain.KindJob,
					Image: "mlrun/mlrun", ImageVersion: "1.5.2",
					Handler: "old_train", Source: "src/train.py",
					UpdatedAt: fixedTime,
				},
			},
			FunctionResources: []tables.FunctionResource{
				{
					ProjectName: "demo", FunctionName: "train",
					Type: "cpu", Value: marshal.ResourceQuantity(resource.MustParse("250m")),
				},
				{
					ProjectName: "demo", FunctionName: "train",
					Type: "nvidia.com/gpu", Value: marshal.ResourceQuantity(resource.MustParse("1")),
				},
			},
		}).Apply(ctx, pgpool); err != nil {
			t.Fatal(err)
		}

		testee := kpgfunction.New(pgpool)

		body := domain.FunctionBody{
			ProjectName: "demo",
			Name:        "train",
			Kind:        domain.KindJob,
			Image:       &domain.ImageIdentifier{Image: "mlrun/mlrun", Version: "1.6.0"},
			Handler:     "train_model",
			Source:      "src/train.py",
			Resources: map[string]resource.Quantity{
				"cpu": resource.MustParse("500m"),
			},
		}
		actual := try.To(testee.Upsert(ctx, body)).OrFatal(t)

		expected := domain.Function{FunctionBody: body, UpdatedAt: actual.UpdatedAt}
		if !actual.Equal(&expected) {
			t.Errorf(
				"unmatch: function\n=== actual ===\n%+v\n=== expected ===\n%+v",
				actual, expected,
			)
		}
		if !actual.UpdatedAt.After(fixedTime) {
			t.Errorf("updated_at is not renewed: %s", actual.UpdatedAt)
		}

		conn := try.To(pgpool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		functions := try.To(scanner.New[tables.Function]().QueryAll(
			ctx, conn, `table "function"`,
		)).OrFatal(t)
		expectedFunctions := []tables.Function{
			{
				ProjectName: "demo", Name: "train", Kind: domain.KindJob,
				Image: "mlrun/mlrun", ImageVersion: "1.6.0",
				Handler: "train_model", Source: "src/train.py",
				UpdatedAt: actual.UpdatedAt,
			},
		}
		if !cmp.SliceContentEqWith(
			functions, expectedFunctions,
			func(a, b tables.Function) bool { return a.Equal(&b) },
		) {
			t.Errorf(
				"unmatch: function\n=== actual ===\n%+v\n=== expected ===\n%+v",
				functions, expectedFunctions,
			)
		}

		resources := try.To(scanner.New[tables.FunctionResource]().QueryAll(
			ctx, conn, `table "function_resource"`,
		)).OrFatal(t)
		expectedResources := []tables.FunctionResource{
			{
				ProjectName: "demo", FunctionName: "train",
				Type: "cpu", Value: marshal.ResourceQuantity(resource.MustParse("500m")),
			},
		}
		if !cmp.SliceContentEqWith(resources, expectedResources, eqResource) {
			t.Errorf(
				"unmatch: function_resource\n=== actual ===\n%+v\n=== expected ===\n%+v",
				resources, expectedResources,
			)
		}
	})

	t.Run("it registers a function sourced from the hub, without image", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		if err := (&tables.Operation{
			Project: []tables.Project{
				{Name: "demo", Source: "https://example.com/demo.git", CreatedAt: fixedTime},
			},
		}).Apply(ctx, pgpool); err != nil {
			t.Fatal(err)
		}

		testee := kpgfunction.New(pgpool)

		body := domain.FunctionBody{
			ProjectName: "demo",
			Name:        "serving",
			Kind:        domain.KindServing,
			Image:       nil,
			Source:      "hub://v2_model_server",
		}
		actual := try.To(testee.Upsert(ctx, body)).OrFatal(t)
		if actual.Image != nil {
			t.Errorf("image: expected nil, actual %+v", actual.Image)
		}

		got := try.To(testee.Get(ctx, "demo", []string{"serving"})).OrFatal(t)
		if f, ok := got["serving"]; !ok {
			t.Fatal("the function is not found after Upsert")
		} else if f.Image != nil {
			t.Errorf("image: expected nil, actual %+v", f.Image)
		}
	})

	t.Run("when the project does not exist, it returns ErrMissing", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)

		testee := kpgfunction.New(pgpool)

		_, err := testee.Upsert(ctx, domain.FunctionBody{
			ProjectName: "ghost",
			Name:        "train",
			Kind:        domain.KindJob,
		})
		if !errors.Is(err, kerr.ErrMissing) {
			t.Errorf("expected ErrMissing, actual: %+v", err)
		}

		conn := try.To(pgpool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()
		functions := try.To(scanner.New[tables.Function]().QueryAll(
			ctx, conn, `table "function"`,
		)).OrFatal(t)
		if len(functions) != 0 {
			t.Errorf("unexpected function records: %+v", functions)
		}
	})
}

func TestFunction_Get(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	fixedTime := try.To(
		rfctime.ParseRFC3339DateTime("2024-10-01T12:13:14.567+00:00"),
	).OrFatal(t).Time()

	fixture := tables.Operation{
		Project: []tables.Project{
			{Name: "demo", Source: "https://example.com/demo.git", CreatedAt: fixedTime},
			{Name: "other", Source: "https://example.com/other.git", CreatedAt: fixedTime},
		},
		Function: []tables.Function{
			{
				ProjectName: "demo", Name: "ingest", Kind: domain.KindJob,
				Image: "mlrun/mlrun", ImageVersion: "1.6.0",
				Handler: "ingest", Source: "src/ingest.py",
				UpdatedAt: fixedTime,
			},
			{
				ProjectName: "demo", Name: "train", Kind: domain.KindJob,
				Image: "mlrun/mlrun", ImageVersion: "1.6.0",
				Handler: "train_model", Source: "src/train.py",
				UpdatedAt: fixedTime,
			},
			{
				ProjectName: "demo", Name: "serving", Kind: domain.KindServing,
				Image: "mlrun/ml-models", ImageVersion: "1.6.0",
				Source:    "hub://v2_model_server",
				UpdatedAt: fixedTime,
			},
			{
				ProjectName: "other", Name: "ingest", Kind: domain.KindJob,
				Image: "mlrun/mlrun", ImageVersion: "1.5.2",
				Handler: "ingest", Source: "src/etl.py",
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
	}

	demoIngest := domain.Function{
		FunctionBody: domain.FunctionBody{
			ProjectName: "demo", Name: "ingest", Kind: domain.KindJob,
			Image:   &domain.ImageIdentifier{Image: "mlrun/mlrun", Version: "1.6.0"},
			Handler: "ingest", Source: "src/ingest.py",
		},
		UpdatedAt: fixedTime,
	}
	demoTrain := domain.Function{
		FunctionBody: domain.FunctionBody{
			ProjectName: "demo", Name: "train", Kind: domain.KindJob,
			Image:   &domain.ImageIdentifier{Image: "mlrun/mlrun", Version: "1.6.0"},
			Handler: "train_model", Source: "src/train.py",
			Resources: map[string]resource.Quantity{
				"cpu":    resource.MustParse("500m"),
				"memory": resource.MustParse("256Mi"),
			},
		},
		UpdatedAt: fixedTime,
	}
	demoServing := domain.Function{
		FunctionBody: domain.FunctionBody{
			ProjectName: "demo", Name: "serving", Kind: domain.KindServing,
			Image:  &domain.ImageIdentifier{Image: "mlrun/ml-models", Version: "1.6.0"},
			Source: "hub://v2_model_server",
		},
		UpdatedAt: fixedTime,
	}
	otherIngest := domain.Function{
		FunctionBody: domain.FunctionBody{
			ProjectName: "other", Name: "ingest", Kind: domain.KindJob,
			Image:   &domain.ImageIdentifier{Image: "mlrun/mlrun", Version: "1.5.2"},
			Handler: "ingest", Source: "src/etl.py",
		},
		UpdatedAt: fixedTime,
	}

	type When struct {
		projectName string
		names       []string
	}
	type Then struct {
		functions map[string]domain.Function
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			ctx := context.Background()
			pgpool := poolBroaker.GetPool(ctx, t)
			if err := fixture.Apply(ctx, pgpool); err != nil {
				t.Fatal(err)
			}

			testee := kpgfunction.New(pgpool)
			actual := try.To(testee.Get(
				ctx, when.projectName, when.names,
			)).OrFatal(t)

			if !cmp.MapEqWith(
				actual, then.functions,
				func(a, b domain.Function) bool { return a.Equal(&b) },
			) {
				t.Errorf(
					"unmatch: functions\n=== actual ===\n%+v\n=== expected ===\n%+v",
					actual, then.functions,
				)
			}
		}
	}

	t.Run("it gets a function with its resource requirements", theory(
		When{projectName: "demo", names: []string{"train"}},
		Then{functions: map[string]domain.Function{"train": demoTrain}},
	))

	t.Run("it gets functions, omitting unknown names", theory(
		When{projectName: "demo", names: []string{"ingest", "serving", "deploy"}},
		Then{functions: map[string]domain.Function{
			"ingest":  demoIngest,
			"serving": demoServing,
		}},
	))

	t.Run("it does not mix up functions of other projects", theory(
		When{projectName: "other", names: []string{"ingest", "train"}},
		Then{functions: map[string]domain.Function{"ingest": otherIngest}},
	))

	t.Run("it gets nothing when no names are passed", theory(
		When{projectName: "demo", names: []string{}},
		Then{functions: map[string]domain.Function{}},
	))
}

func TestFunction_Find(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	fixedTime := try.To(
		rfctime.ParseRFC3339DateTime("2024-10-01T12:13:14.567+00:00"),
	).OrFatal(t).Time()

	fixture := tables.Operation{
		Project: []tables.Project{
			{Name: "demo", Source: "https://example.com/demo.git", CreatedAt: fixedTime},
			{Name: "other", Source: "https://example.com/other.git", CreatedAt: fixedTime},
		},
		Function: []tables.Function{
			{
				ProjectName: "demo", Name: "ingest", Kind: domain.KindJob,
				Image: "mlrun/mlrun", ImageVersion: "1.6.0",
				Handler: "ingest", Source: "src/ingest.py",
				UpdatedAt: fixedTime,
			},
			{
				ProjectName: "demo", Name: "serving", Kind: domain.KindServing,
				Image: "mlrun/ml-models", ImageVersion: "1.6.0",
				Source:    "hub://v2_model_server",
				UpdatedAt: fixedTime,
			},
			{
				ProjectName: "demo", Name: "train", Kind: domain.KindJob,
				Image: "mlrun/mlrun", ImageVersion: "1.6.0",
				Handler: "train_model", Source: "src/train.py",
				UpdatedAt: fixedTime,
			},
			{
				ProjectName: "other", Name: "ingest", Kind: domain.KindJob,
				Image: "mlrun/mlrun", ImageVersion: "1.5.2",
				Handler: "ingest", Source: "src/etl.py",
				UpdatedAt: fixedTime,
			},
		},
	}

	names := func(fs []domain.Function) [][2]string {
		ret := make([][2]string, len(fs))
		for i, f := range fs {
			ret[i] = [2]string{f.ProjectName, f.Name}
		}
		return ret
	}

	type When struct {
		query domain.FunctionFindQuery
	}
	type Then struct {
		functions [][2]string
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			ctx := context.Background()
			pgpool := poolBroaker.GetPool(ctx, t)
			if err := fixture.Apply(ctx, pgpool); err != nil {
				t.Fatal(err)
			}

			testee := kpgfunction.New(pgpool)
			actual := try.To(testee.Find(ctx, when.query)).OrFatal(t)

			if !cmp.SliceEq(names(actual), then.functions) {
				t.Errorf(
					"unmatch: functions\n=== actual ===\n%+v\n=== expected ===\n%+v",
					names(actual), then.functions,
				)
			}
		}
	}

	t.Run("it finds all functions with an empty query", theory(
		When{query: domain.FunctionFindQuery{}},
		Then{functions: [][2]string{
			{"demo", "ingest"}, {"demo", "serving"}, {"demo", "train"},
			{"other", "ingest"},
		}},
	))

	t.Run("it finds functions by project", theory(
		When{query: domain.FunctionFindQuery{ProjectName: []string{"demo"}}},
		Then{functions: [][2]string{
			{"demo", "ingest"}, {"demo", "serving"}, {"demo", "train"},
		}},
	))

	t.Run("it finds functions by kind", theory(
		When{query: domain.FunctionFindQuery{Kind: []domain.FunctionKind{domain.KindServing}}},
		Then{functions: [][2]string{{"demo", "serving"}}},
	))

	t.Run("it finds functions by project and kind", theory(
		When{query: domain.FunctionFindQuery{
			ProjectName: []string{"other"},
			Kind:        []domain.FunctionKind{domain.KindServing},
		}},
		Then{functions: [][2]string{}},
	))

	t.Run("it finds nothing for an unknown project", theory(
		When{query: domain.FunctionFindQuery{ProjectName: []string{"ghost"}}},
		Then{functions: [][2]string{}},
	))
}

func TestFunction_Delete(t *testing.T) {
	poolBroaker := testenv.NewPoolBroaker(context.Background(), t)

	fixedTime := try.To(
		rfctime.ParseRFC3339DateTime("2024-10-01T12:13:14.567+00:00"),
	).OrFatal(t).Time()

	fixture := tables.Operation{
		Project: []tables.Project{
			{Name: "demo", Source: "https://example.com/demo.git", CreatedAt: fixedTime},
			{Name: "other", Source: "https://example.com/other.git", CreatedAt: fixedTime},
		},
		Function: []tables.Function{
			{
				ProjectName: "demo", Name: "ingest", Kind: domain.KindJob,
				Image: "mlrun/mlrun", ImageVersion: "1.6.0",
				Handler: "ingest", Source: "src/ingest.py",
				UpdatedAt: fixedTime,
			},
			{
				ProjectName: "demo", Name: "train", Kind: domain.KindJob,
				Image: "mlrun/mlrun", ImageVersion: "1.6.0",
				Handler: "train_model", Source: "src/train.py",
				UpdatedAt: fixedTime,
			},
			{
				ProjectName: "other", Name: "ingest", Kind: domain.KindJob,
				Image: "mlrun/mlrun", ImageVersion: "1.5.2",
				Handler: "ingest", Source: "src/etl.py",
				UpdatedAt: fixedTime,
			},
		},
		FunctionResources: []tables.FunctionResource{
			{
				ProjectName: "demo", FunctionName: "train",
				Type: "cpu", Value: marshal.ResourceQuantity(resource.MustParse("500m")),
			},
		},
	}

	t.Run("it deletes a function with its resource requirements", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		if err := fixture.Apply(ctx, pgpool); err != nil {
			t.Fatal(err)
		}

		testee := kpgfunction.New(pgpool)
		if err := testee.Delete(ctx, "demo", "train"); err != nil {
			t.Fatal(err)
		}

		conn := try.To(pgpool.Acquire(ctx)).OrFatal(t)
		defer conn.Release()

		functions := try.To(scanner.New[tables.Function]().QueryAll(
			ctx, conn, `select "project_name", "name" from "function"`,
		)).OrFatal(t)
		expectedFunctions := []tables.Function{
			{ProjectName: "demo", Name: "ingest"},
			{ProjectName: "other", Name: "ingest"},
		}
		if !cmp.SliceContentEqWith(
			functions, expectedFunctions,
			func(a, b tables.Function) bool {
				return a.ProjectName == b.ProjectName && a.Name == b.Name
			},
		) {
			t.Errorf(
				"unmatch: function\n=== actual ===\n%+v\n=== expected ===\n%+v",
				functions, expectedFunctions,
			)
		}

		resources := try.To(scanner.New[tables.FunctionResource]().QueryAll(
			ctx, conn, `table "function_resource"`,
		)).OrFatal(t)
		if len(resources) != 0 {
			t.Errorf("unexpected function_resource records: %+v", resources)
		}
	})

	t.Run("when the function is missing, it returns ErrMissing", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		if err := fixture.Apply(ctx, pgpool); err != nil {
			t.Fatal(err)
		}

		testee := kpgfunction.New(pgpool)
		if err := testee.Delete(ctx, "demo", "ghost"); !errors.Is(err, kerr.ErrMissing) {
			t.Errorf("expected ErrMissing, actual: %+v", err)
		}
	})

	t.Run("functions in other projects are out of scope", func(t *testing.T) {
		ctx := context.Background()
		pgpool := poolBroaker.GetPool(ctx, t)
		if err := fixture.Apply(ctx, pgpool); err != nil {
			t.Fatal(err)
		}

		testee := kpgfunction.New(pgpool)
		if err := testee.Delete(ctx, "other", "train"); !errors.Is(err, kerr.ErrMissing) {
			t.Errorf("expected ErrMissing, actual: %+v", err)
		}
	})
}
