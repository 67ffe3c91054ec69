package db

import (
	martifact "github.com/quaark/mlrun-remote-project/pkg/domain/artifact/db"
	mfunction "github.com/quaark/mlrun-remote-project/pkg/domain/function/db"
	mgarbage "github.com/quaark/mlrun-remote-project/pkg/domain/garbage/db"
	mkeychain "github.com/quaark/mlrun-remote-project/pkg/domain/keychain/db"
	mproject "github.com/quaark/mlrun-remote-project/pkg/domain/project/db"
	mrun "github.com/quaark/mlrun-remote-project/pkg/domain/run/db"
	mschema "github.com/quaark/mlrun-remote-project/pkg/domain/schema/db"
	mserving "github.com/quaark/mlrun-remote-project/pkg/domain/serving/db"
	mworkflow "github.com/quaark/mlrun-remote-project/pkg/domain/workflow/db"
)

type Database interface {
	Project() mproject.Interface
	Function() mfunction.Interface
	Workflow() mworkflow.Interface
	Run() mrun.Interface
	Artifact() martifact.Interface
	Serving() mserving.Interface
	Garbage() mgarbage.Interface
	Schema() mschema.SchemaInterface
	Keychain() mkeychain.KeychainInterface
	Close() error
}
