package tables

import (
	"context"
	"fmt"

	kpool "github.com/quaark/mlrun-remote-project/pkg/conn/db/postgres/pool"
)

// one run with its satellite records.
//
// When RunStep is left zero, the run is taken as a pipeline run and
// no "run_step" record is inserted.
type Step struct {
	Run       Run
	RunStep   RunStep
	Deps      []RunDep
	Params    []RunParam
	Models    []RunModel
	Resources []RunResource

	// artifacts this run has published.
	Outcomes []Artifact

	Worker string
	Exit   *RunExit
}

func (step *Step) Apply(ctx context.Context, pool kpool.Pool) error {
	tbls := New(ctx, pool)
	return step.apply(tbls)
}

func (step *Step) apply(tbls *Tables) error {
	if err := tbls.InsertRun(&step.Run); err != nil {
		return err
	}
	if step.RunStep.RunId != "" {
		if err := tbls.InsertRunStep(&step.RunStep); err != nil {
			return err
		}
	}
	for _, d := range step.Deps {
		if err := tbls.InsertRunDep(&d); err != nil {
			return err
		}
	}
	for _, p := range step.Params {
		if err := tbls.InsertRunParam(&p); err != nil {
			return err
		}
	}
	for _, m := range step.Models {
		if err := tbls.InsertRunModel(&m); err != nil {
			return err
		}
	}
	for _, res := range step.Resources {
		if err := tbls.InsertRunResource(res); err != nil {
			return err
		}
	}
	if step.Worker != "" {
		if err := tbls.InsertWorker(
			&Worker{RunId: step.Run.RunId, Name: step.Worker},
		); err != nil {
			return err
		}
	}

	for _, a := range step.Outcomes {
		if err := tbls.InsertArtifact(&a); err != nil {
			return err
		}
	}

	if step.Exit != nil {
		if err := tbls.InsertRunExit(step.Exit); err != nil {
			return err
		}
	}

	return nil
}

// Declare premise of test.
type Operation struct {
	Project           []Project
	Function          []Function
	FunctionResources []FunctionResource
	Workflow          []Workflow
	WorkflowSteps     []WorkflowStep
	StepNeeds         []StepNeed
	StepParams        []StepParam
	StepModels        []StepModel

	// runs inserted as-is, without satellite records.
	//
	// Runs are inserted before Steps. Put pipeline runs here when
	// their step runs in Steps point at them.
	Runs []Run

	Steps []Step

	// artifacts not published by any run in Steps.
	Artifacts []Artifact

	Endpoints []Endpoint
	Keychain  []string
	Garbage   []Garbage
}

func (prem *Operation) Apply(ctx context.Context, pool kpool.Pool) error {
	tbls := New(ctx, pool)

	for _, p := range prem.Project {
		if err := tbls.InsertProject(&p); err != nil {
			return err
		}
	}

	for _, fn := range prem.Function {
		if err := tbls.InsertFunction(&fn); err != nil {
			return err
		}
	}

	for _, res := range prem.FunctionResources {
		if err := tbls.InsertFunctionResource(res); err != nil {
			return err
		}
	}

	for _, w := range prem.Workflow {
		if err := tbls.InsertWorkflow(&w); err != nil {
			return err
		}
	}

	for _, ws := range prem.WorkflowSteps {
		if err := tbls.InsertWorkflowStep(&ws); err != nil {
			return err
		}
	}

	for _, sn := range prem.StepNeeds {
		if err := tbls.InsertStepNeed(&sn); err != nil {
			return err
		}
	}

	for _, sp := range prem.StepParams {
		if err := tbls.InsertStepParam(&sp); err != nil {
			return err
		}
	}

	for _, sm := range prem.StepModels {
		if err := tbls.InsertStepModel(&sm); err != nil {
			return err
		}
	}

	for _, r := range prem.Runs {
		if err := tbls.InsertRun(&r); err != nil {
			return err
		}
	}

	for nth, step := range prem.Steps {
		if err := step.apply(tbls); err != nil {
			return fmt.Errorf("@ step#%d: %w", nth, err)
		}
	}

	for _, a := range prem.Artifacts {
		if err := tbls.InsertArtifact(&a); err != nil {
			return err
		}
	}

	for _, ep := range prem.Endpoints {
		if err := tbls.InsertEndpoint(&ep); err != nil {
			return err
		}
	}

	for _, kc := range prem.Keychain {
		if err := tbls.InsertKeychain(kc); err != nil {
			return err
		}
	}

	for _, gab := range prem.Garbage {
		if err := tbls.InsertGarbage(&gab); err != nil {
			return err
		}
	}

	return nil
}
