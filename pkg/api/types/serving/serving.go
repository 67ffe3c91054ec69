package serving

import (
	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
)

// Summary is the wire expression of a model Endpoint,
// the HTTP surface of a deployed serving Function.
type Summary struct {
	Name      string `json:"name"`
	Project   string `json:"project"`
	ModelName string `json:"modelName"`
	Status    string `json:"status"`
}

func (s Summary) Equal(o Summary) bool {
	return s == o
}

type Detail struct {
	Summary
	// props in Summary will be flattened in json.

	RunId string `json:"runId"`

	// URL is the invoke path, relative to the api root.
	URL string `json:"url"`

	UpdatedAt rfctime.RFC3339 `json:"updatedAt"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Summary.Equal(o.Summary) &&
		d.RunId == o.RunId &&
		d.URL == o.URL &&
		d.UpdatedAt.Equal(o.UpdatedAt)
}

// InferRequest is the payload POSTed to /v2/models/{model}/infer .
//
// Each element of Inputs is one sample: a fixed-arity vector of features.
type InferRequest struct {
	Inputs [][]float64 `json:"inputs"`
}

func (r InferRequest) Equal(o InferRequest) bool {
	if len(r.Inputs) != len(o.Inputs) {
		return false
	}
	for i := range r.Inputs {
		if len(r.Inputs[i]) != len(o.Inputs[i]) {
			return false
		}
		for j := range r.Inputs[i] {
			if r.Inputs[i][j] != o.Inputs[i][j] {
				return false
			}
		}
	}
	return true
}

// InferResponse is the answer of /v2/models/{model}/infer :
// one output per input sample, in order.
type InferResponse struct {
	Id        string    `json:"id"`
	ModelName string    `json:"model_name"`
	Outputs   []float64 `json:"outputs"`
}

func (r InferResponse) Equal(o InferResponse) bool {
	if r.Id != o.Id || r.ModelName != o.ModelName || len(r.Outputs) != len(o.Outputs) {
		return false
	}
	for i := range r.Outputs {
		if r.Outputs[i] != o.Outputs[i] {
			return false
		}
	}
	return true
}
