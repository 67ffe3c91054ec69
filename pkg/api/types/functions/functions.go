package functions

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/api/resource"
)

// Kind is the execution style of a Function.
type Kind string

const (
	// run to completion as a Kubernetes Job.
	KindJob Kind = "job"

	// run as a long-lived model server (Deployment + Service).
	KindServing Kind = "serving"
)

func (k Kind) String() string {
	return string(k)
}

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindJob:
		return KindJob, nil
	case KindServing:
		return KindServing, nil
	default:
		return "", fmt.Errorf(`unknown function kind "%s" (should be "job" or "serving")`, s)
	}
}

func (k *Kind) UnmarshalJSON(b []byte) error {
	expr := new(string)
	if err := json.Unmarshal(b, expr); err != nil {
		return err
	}
	parsed, err := ParseKind(*expr)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k *Kind) UnmarshalYAML(node *yaml.Node) error {
	expr := new(string)
	if err := node.Decode(expr); err != nil {
		return err
	}
	parsed, err := ParseKind(*expr)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

type Image struct {
	Repository string
	Tag        string
}

func (i *Image) Equal(o *Image) bool {
	if (i == nil) || (o == nil) {
		return (i == nil) && (o == nil)
	}
	return i.Repository == o.Repository &&
		i.Tag == o.Tag
}

// parse string as Image Tag, and update itself.
//
// this spec is based on docker image tag spec[^1].
//
// [^1]: https://docs.docker.com/engine/reference/commandline/tag/#description
func (i *Image) Parse(s string) error {
	// [<registry>[:<port>]/]<name>:<tag>

	ref, err := name.NewTag(s, name.WithDefaultRegistry(""))
	if err != nil {
		return err
	}

	i.Repository = ref.Repository.Name()
	i.Tag = ref.TagStr()
	return nil
}

func (i *Image) marshal() string {
	if i.Repository == "" && i.Tag == "" {
		return ""
	}
	return fmt.Sprintf(`%s:%s`, i.Repository, i.Tag)
}

func (i Image) MarshalJSON() ([]byte, error) {
	b := bytes.NewBufferString(`"`)
	b.WriteString(i.marshal())
	b.WriteString(`"`)
	return b.Bytes(), nil
}

func (i Image) MarshalYAML() (interface{}, error) {
	n := yaml.Node{
		Kind:  yaml.ScalarNode,
		Value: i.marshal(),
		Style: yaml.DoubleQuotedStyle,
	}
	return n, nil
}

func (i *Image) UnmarshalYAML(node *yaml.Node) error {
	expr := new(string)
	err := node.Decode(expr)
	if err != nil {
		return err
	}
	return i.Parse(*expr)
}

func (i *Image) UnmarshalJSON(b []byte) error {
	expr := new(string)
	err := json.Unmarshal(b, expr)
	if err != nil {
		return err
	}
	return i.Parse(*expr)
}

func (i *Image) String() string {
	return i.marshal()
}

// Requirements are compute resources reserved for each invocation,
// like {"cpu": "500m", "memory": "1Gi"}.
type Requirements map[string]resource.Quantity

func (r Requirements) Equal(o Requirements) bool {
	if len(r) != len(o) {
		return false
	}
	for k, v := range r {
		w, ok := o[k]
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}

func (r Requirements) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]resource.Quantity(r))
}

func (r Requirements) MarshalYAML() (interface{}, error) {
	jsonMap := map[string]string{}
	jsonBytes, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal(jsonBytes, &jsonMap)
	if err != nil {
		return nil, err
	}
	return jsonMap, nil
}

func (r *Requirements) UnmarshalYAML(node *yaml.Node) error {
	var m map[string]string
	if err := node.Decode(&m); err != nil {
		return err
	}

	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := r.UnmarshalJSON(jsonBytes); err != nil {
		return err
	}

	return nil
}

func (r *Requirements) UnmarshalJSON(b []byte) error {
	var m map[string]resource.Quantity
	err := json.Unmarshal(b, &m)
	if err != nil {
		return err
	}
	*r = Requirements(m)
	return nil
}

// Spec is the registration request body of a Function,
// and its expression in function.yaml.
type Spec struct {
	Name         string       `json:"name" yaml:"name"`
	Kind         Kind         `json:"kind" yaml:"kind"`
	Image        *Image       `json:"image,omitempty" yaml:"image,omitempty"`
	Handler      string       `json:"handler,omitempty" yaml:"handler,omitempty"`
	Source       string       `json:"source,omitempty" yaml:"source,omitempty"`
	Requirements Requirements `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

func (s Spec) Equal(o Spec) bool {
	return s.Name == o.Name &&
		s.Kind == o.Kind &&
		s.Image.Equal(o.Image) &&
		s.Handler == o.Handler &&
		s.Source == o.Source &&
		s.Requirements.Equal(o.Requirements)
}

type Summary struct {
	Project string `json:"project"`
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	Image   *Image `json:"image,omitempty"`
	Handler string `json:"handler,omitempty"`
}

func (s Summary) Equal(o Summary) bool {
	return s.Project == o.Project &&
		s.Name == o.Name &&
		s.Kind == o.Kind &&
		s.Image.Equal(o.Image) &&
		s.Handler == o.Handler
}

type Detail struct {
	Summary
	// props in Summary will be flattened in json.
	//     see also: https://github.com/golang/go/issues/7230

	Source       string          `json:"source,omitempty"`
	Requirements Requirements    `json:"requirements,omitempty"`
	UpdatedAt    rfctime.RFC3339 `json:"updatedAt"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Summary.Equal(o.Summary) &&
		d.Source == o.Source &&
		d.Requirements.Equal(o.Requirements) &&
		d.UpdatedAt.Equal(o.UpdatedAt)
}
