// domain package contains the Domain Models and Interfaces of the platform.
//
// `domain/platform` package exposes the root object.
// Entrypoints of applications should instantiate the Platform object and use it
// to interact with the domain.
//
// `domain/ENTITY.go` has high-level entities (Domain Model types) and functions.
// For example, `domain/run.go` contains the `Run` entities.
//
// `domain/ENTITY` directory contains the "physical" representation of the domain
// entities, the RDB or Kubernetes(k8s).
// For example, `domain/function/db` handles the database expression of the
// Function entity described in `domain/function.go`.
//
// # Entities
//
// Core entities in the domain are:
//
// - `project`: Namespace owning Functions, Workflows and Runs.
// A Project may carry a remote git URL as the source of its working context.
//
// - `function`: Registered unit of execution. Functions with kind "job" run to
// completion as Kubernetes Jobs; functions with kind "serving" run as long-lived
// model servers (Deployment + Service).
//
// - `workflow`: DAG of Steps. Each Step invokes a Function with params, and
// Steps are ordered by their "needs" edges.
//
// - `run`: Execution records. Triggering a Workflow creates one pipeline Run and
// one step Run per Step. The "scheduling loop" promotes step Runs whose
// dependencies are done, the "initialize loop" prepares them to start, the
// "run management loop" starts and watches workers, and the "finishing loop"
// finalizes them and advances the pipeline Run.
//
// And others:
//
// - `artifact`: Outputs of step Runs (datasets, models, metrics),
// stored in the object store and indexed in RDB.
//
// - `serving`: Model Endpoints exposed by deployed serving Functions.
//
// - `keychain`: Manages signkeys for JWT based on K8s secret. This is used to
// create run tokens for `/api/artifacts/*`.
//
// - `loop`: Manages recurring tasks. This defines constants for each loop.
// Implementation of the loops is in `cmd/loops/tasks/` directory.
package domain
