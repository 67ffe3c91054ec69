package functions_test

import (
	"encoding/json"
	"testing"

	"github.com/quaark/mlrun-remote-project/pkg/api/types/functions"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/api/resource"
)

func TestImage(t *testing.T) {
	theory := func(expr string, image functions.Image) func(*testing.T) {
		return func(t *testing.T) {
			{
				actual := new(functions.Image)
				if err := actual.Parse(expr); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if *actual != image {
					t.Errorf("unexpected result: Image.Parse(%s) --> %#v", expr, actual)
				}
			}
			{
				type Json struct {
					Image *functions.Image `json:"image"`
				}

				actual, err := json.Marshal(Json{Image: &image})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if string(actual) != `{"image":"`+expr+`"}` {
					t.Errorf("unexpected result: json.Marshal(%#v) --> %s", image, actual)
				}
			}
			{
				type Yaml struct {
					Image *functions.Image `yaml:"image"`
				}

				actual, err := yaml.Marshal(Yaml{Image: &image})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				expected := `image: "` + expr + `"` + "\n"
				if got := string(actual); got != expected {
					t.Errorf("unexpected result: yaml.Marshal(%#v) --> %s", image, actual)
				}
			}
		}
	}

	t.Run("repository and tag", theory("mlrun/mlrun:1.4.0", functions.Image{
		Repository: "mlrun/mlrun",
		Tag:        "1.4.0",
	}))

	t.Run("registry, repository and tag", theory("registry.invalid/mlrun/mlrun:1.4.0", functions.Image{
		Repository: "registry.invalid/mlrun/mlrun",
		Tag:        "1.4.0",
	}))

	t.Run("registry /w port and repository and tag", theory("registry.invalid:5000/serve:latest", functions.Image{
		Repository: "registry.invalid:5000/serve",
		Tag:        "latest",
	}))

	t.Run("it rejects expression without tag", func(t *testing.T) {
		actual := new(functions.Image)
		if err := actual.Parse("mlrun/mlrun"); err == nil {
			t.Error("no error unexpectedly")
		}
	})
}

func TestKind(t *testing.T) {
	t.Run("it accepts job and serving", func(t *testing.T) {
		for _, expr := range []string{"job", "serving"} {
			k, err := functions.ParseKind(expr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if k.String() != expr {
				t.Errorf("unexpected result: ParseKind(%s) --> %s", expr, k)
			}
		}
	})

	t.Run("it rejects other kinds", func(t *testing.T) {
		if _, err := functions.ParseKind("nuclio"); err == nil {
			t.Error("no error unexpectedly")
		}
	})

	t.Run("it rejects unknown kind in json", func(t *testing.T) {
		target := []byte(`{"name": "fn", "kind": "daemon"}`)
		var spec functions.Spec
		if err := json.Unmarshal(target, &spec); err == nil {
			t.Error("no error unexpectedly")
		}
	})
}

func TestSpec(t *testing.T) {
	t.Run("it is unmarshalled from function.yaml", func(t *testing.T) {
		expr := `
name: data-prep
kind: job
image: "mlrun/mlrun:1.4.0"
handler: breast_cancer_generator
source: ./data-prep.py
requirements:
  cpu: 500m
  memory: 1Gi
`
		var actual functions.Spec
		if err := yaml.Unmarshal([]byte(expr), &actual); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := functions.Spec{
			Name:    "data-prep",
			Kind:    functions.KindJob,
			Image:   &functions.Image{Repository: "mlrun/mlrun", Tag: "1.4.0"},
			Handler: "breast_cancer_generator",
			Source:  "./data-prep.py",
			Requirements: functions.Requirements{
				"cpu":    resource.MustParse("500m"),
				"memory": resource.MustParse("1Gi"),
			},
		}

		if !actual.Equal(expected) {
			t.Errorf(
				"unexpected result:\n===actual===\n%+v\n===expected===\n%+v",
				actual, expected,
			)
		}
	})
}
