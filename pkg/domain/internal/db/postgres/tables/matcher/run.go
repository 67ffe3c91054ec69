package matcher

import (
	"fmt"
	"time"

	"github.com/quaark/mlrun-remote-project/pkg/domain"
	"github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/postgres/tables"
)

type Run struct {
	RunId                 Matcher[string]
	ProjectName           Matcher[string]
	WorkflowName          Matcher[string]
	Status                Matcher[domain.RunStatus]
	LifecycleSuspendUntil Matcher[time.Time]
	UpdatedAt             Matcher[time.Time]
}

func (r Run) Match(actual tables.Run) bool {
	return r.RunId.Match(actual.RunId) &&
		r.ProjectName.Match(actual.ProjectName) &&
		r.WorkflowName.Match(actual.WorkflowName) &&
		r.Status.Match(actual.Status) &&
		r.LifecycleSuspendUntil.Match(actual.LifecycleSuspendUntil) &&
		r.UpdatedAt.Match(actual.UpdatedAt)
}

func (r Run) String() string {
	return fmt.Sprintf(
		"{RunId:%s ProjectName:%s WorkflowName:%s Status:%s LifecycleSuspendUntil:%s UpdatedAt:%s}",
		r.RunId, r.ProjectName, r.WorkflowName, r.Status, r.LifecycleSuspendUntil, r.UpdatedAt,
	)
}

func (r Run) Format(s fmt.State, _ rune) {
	fmt.Fprint(s, r.String())
}
