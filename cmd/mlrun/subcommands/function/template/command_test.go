package template_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	kprof "github.com/quaark/mlrun-remote-project/cmd/mlrun/config/profiles"
	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	function_template "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/function/template"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/internal/commandline"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/logger"
	apifunctions "github.com/quaark/mlrun-remote-project/pkg/api/types/functions"
	"github.com/quaark/mlrun-remote-project/pkg/utils/images/analyzer"
	"github.com/quaark/mlrun-remote-project/pkg/utils/try"
	"gopkg.in/yaml.v3"
)

func TestFromImage(t *testing.T) {
	type when struct {
		configs []analyzer.TaggedConfig
		tag     string
	}

	type then struct {
		spec     apifunctions.Spec
		anyError bool
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			analyze := func(ctx context.Context, r io.Reader) ([]analyzer.TaggedConfig, error) {
				return when.configs, nil
			}

			testee := function_template.FromImage(analyze)

			ctx := context.Background()
			actual, err := testee(
				ctx, logger.Null(),
				namedReader{name: "test.tar", Reader: strings.NewReader("")},
				when.tag, *kenv.New(),
			)

			if then.anyError {
				if err == nil {
					t.Error("expected error, but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if actual.Name != then.spec.Name {
				t.Errorf("unexpected name: %s", actual.Name)
			}
			if actual.Kind != then.spec.Kind {
				t.Errorf("unexpected kind: %s", actual.Kind)
			}
			if !actual.Image.Equal(then.spec.Image) {
				t.Errorf("unexpected image: %+v", actual.Image)
			}
			if actual.Handler != then.spec.Handler {
				t.Errorf("unexpected handler: %s", actual.Handler)
			}
		}
	}

	t.Run("a python script in the command line should become the handler", theory(
		when{
			configs: []analyzer.TaggedConfig{
				{
					Tags: []string{"mlrun/gen-breast-cancer:1.0"},
					Config: analyzer.Config{
						Entrypoint: []string{"python"},
						Cmd:        []string{"/app/gen_breast_cancer.py"},
					},
				},
			},
		},
		then{
			spec: apifunctions.Spec{
				Name:    "gen-breast-cancer",
				Kind:    apifunctions.KindJob,
				Image:   &apifunctions.Image{Repository: "mlrun/gen-breast-cancer", Tag: "1.0"},
				Handler: "gen_breast_cancer",
			},
		},
	))

	t.Run("a server in the command line should make a serving Function", theory(
		when{
			configs: []analyzer.TaggedConfig{
				{
					Tags: []string{"mlrun/serving:1.0"},
					Config: analyzer.Config{
						Entrypoint: []string{"uvicorn", "server:app"},
					},
				},
			},
		},
		then{
			spec: apifunctions.Spec{
				Name:    "serving",
				Kind:    apifunctions.KindServing,
				Image:   &apifunctions.Image{Repository: "mlrun/serving", Tag: "1.0"},
				Handler: "main",
			},
		},
	))

	t.Run("when the image has multiple tags, the given image:tag should be used", theory(
		when{
			configs: []analyzer.TaggedConfig{
				{
					Tags: []string{"mlrun/train:latest"},
					Config: analyzer.Config{
						Entrypoint: []string{"python", "-m", "trainer.train"},
					},
				},
				{
					Tags: []string{"mlrun/other:latest"},
					Config: analyzer.Config{
						Entrypoint: []string{"sh"},
					},
				},
			},
			tag: "mlrun/train:latest",
		},
		then{
			spec: apifunctions.Spec{
				Name:    "train",
				Kind:    apifunctions.KindJob,
				Image:   &apifunctions.Image{Repository: "mlrun/train", Tag: "latest"},
				Handler: "trainer.train",
			},
		},
	))

	t.Run("when the tarball has multiple images and no tag is given, it should fail", theory(
		when{
			configs: []analyzer.TaggedConfig{
				{Tags: []string{"a:1"}},
				{Tags: []string{"b:1"}},
			},
		},
		then{anyError: true},
	))

	t.Run("when the tarball has no image, it should fail", theory(
		when{configs: []analyzer.TaggedConfig{}},
		then{anyError: true},
	))

	t.Run("when the given tag is not found, it should fail", theory(
		when{
			configs: []analyzer.TaggedConfig{
				{Tags: []string{"a:1"}},
			},
			tag: "b:1",
		},
		then{anyError: true},
	))
}

func TestTemplateCommand(t *testing.T) {
	t.Run("the generated document should decode back into a Function spec", func(t *testing.T) {
		profile := &kprof.Profile{ApiRoot: "http://api.mlrun.invalid"}
		client := try.To(krst.NewClient(profile)).OrFatal(t)

		testee := function_template.Task(
			function_template.FromScratch(),
			function_template.FromImage(
				func(ctx context.Context, r io.Reader) ([]analyzer.TaggedConfig, error) {
					return []analyzer.TaggedConfig{
						{
							Tags: []string{"mlrun/gen-breast-cancer:1.0"},
							Config: analyzer.Config{
								Entrypoint: []string{"python", "/app/gen_breast_cancer.py"},
							},
						},
					}, nil
				},
			),
		)

		stdout := new(strings.Builder)
		err := testee(
			context.Background(),
			logger.Null(),
			*kenv.New(),
			client,
			commandline.MockCommandline[function_template.Flag]{
				Fullname_: "mlrun function template",
				Stdin_:    strings.NewReader(""),
				Stdout_:   stdout,
				Stderr_:   new(strings.Builder),
				Flags_:    function_template.Flag{Input: "-"},
				Args_:     map[string][]string{function_template.ARG_IMAGE_TAG: {}},
			},
			[]any{},
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		decoded := apifunctions.Spec{}
		if err := yaml.Unmarshal([]byte(stdout.String()), &decoded); err != nil {
			t.Fatalf("broken document: %v", err)
		}
		if decoded.Name != "gen-breast-cancer" {
			t.Errorf("unexpected name: %s", decoded.Name)
		}
		if decoded.Kind != apifunctions.KindJob {
			t.Errorf("unexpected kind: %s", decoded.Kind)
		}
		if decoded.Handler != "gen_breast_cancer" {
			t.Errorf("unexpected handler: %s", decoded.Handler)
		}
		cpuRequirement := decoded.Requirements["cpu"]
		if cpuRequirement.String() != "1" {
			t.Errorf("unexpected cpu requirement: %v", decoded.Requirements)
		}
	})

	t.Run("when --scratch and image:tag are given together, it should fail as usage error", func(t *testing.T) {
		profile := &kprof.Profile{ApiRoot: "http://api.mlrun.invalid"}
		client := try.To(krst.NewClient(profile)).OrFatal(t)

		testee := function_template.Task(
			function_template.FromScratch(),
			function_template.FromImage(
				func(ctx context.Context, r io.Reader) ([]analyzer.TaggedConfig, error) {
					return nil, errors.New("should not be called")
				},
			),
		)

		err := testee(
			context.Background(),
			logger.Null(),
			*kenv.New(),
			client,
			commandline.MockCommandline[function_template.Flag]{
				Fullname_: "mlrun function template",
				Stdin_:    strings.NewReader(""),
				Stdout_:   new(strings.Builder),
				Stderr_:   new(strings.Builder),
				Flags_:    function_template.Flag{Input: "-", Scratch: true},
				Args_:     map[string][]string{function_template.ARG_IMAGE_TAG: {"image:tag"}},
			},
			[]any{},
		)
		if err == nil {
			t.Error("expected error, but got nil")
		}
	})
}

type namedReader struct {
	name string
	io.Reader
}

func (r namedReader) Name() string {
	return r.name
}
