package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrBadInput is returned when a sample does not fit the model.
var ErrBadInput = errors.New("bad input")

// Logistic is a binary logistic-regression model:
// score(x) = sigmoid(coefficients . x + intercept), labelled by classes.
//
// This is the shape of the model artifact a training step registers.
type Logistic struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`

	// Classes are the labels answered for (negative, positive) scores.
	//
	// optional. default: [0, 1]
	Classes []float64 `json:"classes"`

	// Features is the input vector length.
	//
	// optional. default: len(Coefficients)
	Features int `json:"features,omitempty"`
}

// Parse reads a model artifact.
func Parse(r io.Reader) (*Logistic, error) {
	m := &Logistic{}
	if err := json.NewDecoder(r).Decode(m); err != nil {
		return nil, fmt.Errorf("malformed model artifact: %w", err)
	}

	if len(m.Coefficients) == 0 {
		return nil, errors.New("malformed model artifact: no coefficients")
	}
	if m.Features == 0 {
		m.Features = len(m.Coefficients)
	}
	if m.Features != len(m.Coefficients) {
		return nil, fmt.Errorf(
			"malformed model artifact: %d coefficients for %d features",
			len(m.Coefficients), m.Features,
		)
	}
	if len(m.Classes) == 0 {
		m.Classes = []float64{0, 1}
	}
	if len(m.Classes) != 2 {
		return nil, fmt.Errorf(
			"malformed model artifact: %d classes (binary models only)",
			len(m.Classes),
		)
	}

	return m, nil
}

// Arity is the input vector length the model accepts.
func (m *Logistic) Arity() int {
	return m.Features
}

// Predict scores one sample and rounds the score to the nearer class label.
func (m *Logistic) Predict(x []float64) (float64, error) {
	if len(x) != m.Features {
		return 0, fmt.Errorf(
			"%w: got %d features, want %d", ErrBadInput, len(x), m.Features,
		)
	}

	z := m.Intercept
	for i, w := range m.Coefficients {
		z += w * x[i]
	}
	p := 1.0 / (1.0 + math.Exp(-z))

	if p < 0.5 {
		return m.Classes[0], nil
	}
	return m.Classes[1], nil
}
