package tables

import (
	"time"

	"github.com/quaark/mlrun-remote-project/pkg/domain"
	"github.com/quaark/mlrun-remote-project/pkg/domain/internal/db/postgres/marshal"
)

// golang representation of record of PostgreSQL tables
//
// some tables are omitted, because of its simpleness.

type Project struct {
	Name      string
	Source    string
	CreatedAt time.Time
}

func (a *Project) Equal(b *Project) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Name == b.Name &&
		a.Source == b.Source &&
		a.CreatedAt.Equal(b.CreatedAt)
}

type Function struct {
	ProjectName  string
	Name         string
	Kind         domain.FunctionKind
	Image        string
	ImageVersion string
	Handler      string
	Source       string
	UpdatedAt    time.Time
}

func (a *Function) Equal(b *Function) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ProjectName == b.ProjectName &&
		a.Name == b.Name &&
		a.Kind == b.Kind &&
		a.Image == b.Image &&
		a.ImageVersion == b.ImageVersion &&
		a.Handler == b.Handler &&
		a.Source == b.Source &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

type FunctionResource struct {
	ProjectName  string
	FunctionName string
	Type         string
	Value        marshal.ResourceQuantity
}

type Workflow struct {
	ProjectName string
	Name        string
	UpdatedAt   time.Time
}

func (a *Workflow) Equal(b *Workflow) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ProjectName == b.ProjectName &&
		a.Name == b.Name &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

type WorkflowStep struct {
	ProjectName  string
	WorkflowName string
	Name         string
	FunctionName string
	Handler      string
	Seq          int
}

type StepNeed struct {
	ProjectName  string
	WorkflowName string
	StepName     string
	Needs        string
}

type StepParam struct {
	ProjectName  string
	WorkflowName string
	StepName     string
	Key          string
	Value        string
}

type StepModel struct {
	ProjectName  string
	WorkflowName string
	StepName     string
	Model        string
	Artifact     string
}

type Run struct {
	RunId                 string
	ProjectName           string
	WorkflowName          string
	Status                domain.RunStatus
	LifecycleSuspendUntil time.Time
	UpdatedAt             time.Time
}

func (a *Run) Equal(b *Run) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.RunId == b.RunId && a.Equiv(b)
}

func (a *Run) Equiv(b *Run) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ProjectName == b.ProjectName &&
		a.WorkflowName == b.WorkflowName &&
		a.Status == b.Status &&
		a.LifecycleSuspendUntil.Equal(b.LifecycleSuspendUntil) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

type RunStep struct {
	RunId         string
	PipelineRunId string
	StepName      string
	FunctionName  string
	FunctionKind  domain.FunctionKind
	Image         string
	ImageVersion  string
	Handler       string
	Source        string
}

func (a *RunStep) Equal(b *RunStep) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}

type RunDep struct {
	RunId      string
	NeedsRunId string
}

type RunParam struct {
	RunId string
	Key   string
	Value string
}

type RunModel struct {
	RunId    string
	Model    string
	Artifact string
}

type RunResource struct {
	RunId string
	Type  string
	Value marshal.ResourceQuantity
}

type RunExit struct {
	RunId    string
	ExitCode uint8
	Message  string
}

type Worker struct {
	RunId string
	Name  string
}

type Artifact struct {
	Key         string
	ProjectName string
	Name        string
	Kind        domain.ArtifactKind
	RunId       string
	Size        int64
	UpdatedAt   time.Time
}

func (a *Artifact) Equal(b *Artifact) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key == b.Key &&
		a.ProjectName == b.ProjectName &&
		a.Name == b.Name &&
		a.Kind == b.Kind &&
		a.RunId == b.RunId &&
		a.Size == b.Size &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

type Endpoint struct {
	Name        string
	ProjectName string
	ModelName   string
	RunId       string
	Service     string
	Port        int32
	Status      domain.EndpointStatus
	UpdatedAt   time.Time
}

func (a *Endpoint) Equal(b *Endpoint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Name == b.Name &&
		a.ProjectName == b.ProjectName &&
		a.ModelName == b.ModelName &&
		a.RunId == b.RunId &&
		a.Service == b.Service &&
		a.Port == b.Port &&
		a.Status == b.Status &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

type Garbage struct {
	Key   string
	RunId string
}

func (a *Garbage) Equal(b *Garbage) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.Key == b.Key &&
		a.RunId == b.RunId
}
