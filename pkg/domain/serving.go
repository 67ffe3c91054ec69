package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/quaark/mlrun-remote-project/pkg/utils/cmp"
)

type EndpointStatus string

const (
	// deployment is created but not yet available.
	Deploying EndpointStatus = "deploying"

	// deployment is available and the endpoint answers inferences.
	EndpointReady EndpointStatus = "ready"

	// the endpoint is going to be removed.
	Retired EndpointStatus = "retired"
)

func (es EndpointStatus) String() string {
	return string(es)
}

func AsEndpointStatus(s string) (EndpointStatus, error) {
	switch s {
	case string(Deploying):
		return Deploying, nil
	case string(EndpointReady):
		return EndpointReady, nil
	case string(Retired):
		return Retired, nil
	default:
		return "", fmt.Errorf("'%s' is not EndpointStatus", s)
	}
}

var ErrInvalidEndpointStateChanging = errors.New("cannot change endpoint state")

func NewErrInvalidEndpointStateChanging(from, to EndpointStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidEndpointStateChanging, from, to)
}

// Endpoint is the HTTP surface of a deployed serving Function.
//
// Service/Port point the in-cluster Service answering
// POST /v2/models/<ModelName>/infer .
type Endpoint struct {
	// name of the endpoint, unique platform-wide.
	// Defaults to the model name.
	Name string

	ProjectName string

	// name of the model this endpoint exposes.
	ModelName string

	// id of the step run which deployed this endpoint.
	RunId string

	// in-cluster Service name of the model server.
	Service string
	Port    int32

	Status EndpointStatus

	UpdatedAt time.Time
}

func (ep *Endpoint) Equal(o *Endpoint) bool {
	if (ep == nil) || (o == nil) {
		return (ep == nil) && (o == nil)
	}
	return ep.Name == o.Name &&
		ep.ProjectName == o.ProjectName &&
		ep.ModelName == o.ModelName &&
		ep.RunId == o.RunId &&
		ep.Service == o.Service &&
		ep.Port == o.Port &&
		ep.Status == o.Status &&
		ep.UpdatedAt.Equal(o.UpdatedAt)
}

// parameter to query endpoints
//
// When all dimensions match an endpoint, this query matches the endpoint.
type EndpointFindQuery struct {
	// match if endpoint's project is one of these.
	//
	// If it is nil or empty, it means "match any".
	ProjectName []string

	// match if endpoint's model is one of these.
	//
	// If it is nil or empty, it means "match any".
	ModelName []string

	// match if endpoint's status is one of these.
	//
	// If it is nil or empty, it means "match any".
	Status []EndpointStatus
}

func (efq EndpointFindQuery) Equal(other EndpointFindQuery) bool {
	return cmp.SliceContentEq(efq.ProjectName, other.ProjectName) &&
		cmp.SliceContentEq(efq.ModelName, other.ModelName) &&
		cmp.SliceContentEq(efq.Status, other.Status)
}
