package domain

import (
	"errors"
	"time"
)

// Project is the namespace owning Functions, Workflows and Runs.
type Project struct {
	// unique name of the project.
	Name string

	// remote git URL the project context is synced from, if any.
	Source string

	CreatedAt time.Time
}

func (p *Project) Equal(o *Project) bool {
	if (p == nil) || (o == nil) {
		return (p == nil) && (o == nil)
	}
	return p.Name == o.Name &&
		p.Source == o.Source &&
		p.CreatedAt.Equal(o.CreatedAt)
}

// ProjectSourceKey composes the object key of the uploaded source archive
// of a project.
//
// The "source" segment cannot collide with artifact keys:
// artifact keys carry a run id there, and run ids are UUIDs.
func ProjectSourceKey(projectName string) string {
	return projectName + "/source/context.tar.gz"
}

var (
	// the project still owns runs which are not finished,
	// or endpoints which are not removed.
	ErrProjectActive = errors.New("the project has active runs or endpoints")
)
