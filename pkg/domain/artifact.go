package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/quaark/mlrun-remote-project/pkg/utils/cmp"
)

type ArtifactKind string

const (
	KindDataset ArtifactKind = "dataset"
	KindModel   ArtifactKind = "model"
	KindMetrics ArtifactKind = "metrics"
)

func (ak ArtifactKind) String() string {
	return string(ak)
}

func AsArtifactKind(s string) (ArtifactKind, error) {
	switch s {
	case string(KindDataset):
		return KindDataset, nil
	case string(KindModel):
		return KindModel, nil
	case string(KindMetrics):
		return KindMetrics, nil
	default:
		return "", fmt.Errorf("'%s' is not ArtifactKind", s)
	}
}

// ArtifactBody is the index record of an object in the artifact store.
//
// Key is the object key: "<project>/<run id>/<artifact name>".
type ArtifactBody struct {
	Key   string
	Kind  ArtifactKind
	RunId string

	// object size in bytes, as reported by the store.
	Size int64

	UpdatedAt time.Time
}

func (ab *ArtifactBody) Equal(o *ArtifactBody) bool {
	if (ab == nil) || (o == nil) {
		return (ab == nil) && (o == nil)
	}
	return ab.Key == o.Key &&
		ab.Kind == o.Kind &&
		ab.RunId == o.RunId &&
		ab.Size == o.Size &&
		ab.UpdatedAt.Equal(o.UpdatedAt)
}

// ArtifactName extracts the trailing artifact name from Key.
func (ab ArtifactBody) ArtifactName() string {
	for i := len(ab.Key) - 1; 0 <= i; i-- {
		if ab.Key[i] == '/' {
			return ab.Key[i+1:]
		}
	}
	return ab.Key
}

// ArtifactKeyOf composes the object key of an artifact.
func ArtifactKeyOf(projectName, runId, name string) string {
	return projectName + "/" + runId + "/" + name
}

// ParseArtifactKey splits an object key into project name, run id and artifact name.
//
// The artifact name may contain slashes.
func ParseArtifactKey(key string) (projectName, runId, name string, err error) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf(
			"'%s' is not an artifact key (want <project>/<run id>/<name>)", key,
		)
	}
	return parts[0], parts[1], parts[2], nil
}

// parameter to query artifacts
//
// When all dimensions match an artifact, this query matches the artifact.
type ArtifactFindQuery struct {
	// match if artifact's project is one of these.
	//
	// If it is nil or empty, it means "match any".
	ProjectName []string

	// match if artifact's run is one of these.
	//
	// If it is nil or empty, it means "match any".
	RunId []string

	// match if artifact's kind is one of these.
	//
	// If it is nil or empty, it means "match any".
	Kind []ArtifactKind

	// match if artifact's name is one of these.
	//
	// If it is nil or empty, it means "match any".
	Name []string
}

func (afq ArtifactFindQuery) Equal(other ArtifactFindQuery) bool {
	return cmp.SliceContentEq(afq.ProjectName, other.ProjectName) &&
		cmp.SliceContentEq(afq.RunId, other.RunId) &&
		cmp.SliceContentEq(afq.Kind, other.Kind) &&
		cmp.SliceContentEq(afq.Name, other.Name)
}
