package artifacts

import (
	"encoding/json"
	"fmt"

	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
)

type Kind string

const (
	KindDataset Kind = "dataset"
	KindModel   Kind = "model"
	KindMetrics Kind = "metrics"
)

func (k Kind) String() string {
	return string(k)
}

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDataset, KindModel, KindMetrics:
		return Kind(s), nil
	default:
		return "", fmt.Errorf(`unknown artifact kind "%s"`, s)
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

// Summary is the record of a published Artifact.
//
// Key is the object-store key, "<project>/<run id>/<artifact name>".
type Summary struct {
	Key       string          `json:"key"`
	Kind      Kind            `json:"kind"`
	RunId     string          `json:"runId"`
	Size      int64           `json:"size"`
	UpdatedAt rfctime.RFC3339 `json:"updatedAt"`
}

func (s Summary) Equal(o Summary) bool {
	return s.Key == o.Key &&
		s.Kind == o.Kind &&
		s.RunId == o.RunId &&
		s.Size == o.Size &&
		s.UpdatedAt.Equal(o.UpdatedAt)
}
