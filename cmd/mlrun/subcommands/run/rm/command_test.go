package rm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	kprof "github.com/quaark/mlrun-remote-project/cmd/mlrun/config/profiles"
	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/rest/mock"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/internal/commandline"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/logger"
	run_rm "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/run/rm"
	"github.com/quaark/mlrun-remote-project/pkg/utils/try"
)

func TestRmCommand(t *testing.T) {
	type when struct {
		removeError error
	}

	type then struct {
		err error
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			profile := &kprof.Profile{ApiRoot: "http://api.mlrun.invalid"}
			client := try.To(krst.NewClient(profile)).OrFatal(t)

			removed := []string{}
			remove := func(ctx context.Context, client krst.Client, runId string) error {
				removed = append(removed, runId)
				return when.removeError
			}

			testee := run_rm.Task(remove)

			ctx := context.Background()
			err := testee(
				ctx,
				logger.Null(),
				*kenv.New(),
				client,
				commandline.MockCommandline[struct{}]{
					Fullname_: "mlrun run rm",
					Stdout_:   new(strings.Builder),
					Stderr_:   new(strings.Builder),
					Flags_:    struct{}{},
					Args_: map[string][]string{
						run_rm.ARG_RUNID: {"test-runId"},
					},
				},
				[]any{},
			)

			if !errors.Is(err, then.err) {
				t.Errorf("wrong result: (actual, expected) != (%v, %v)", err, then.err)
			}
			if len(removed) != 1 || removed[0] != "test-runId" {
				t.Errorf("unexpected removal: %+v", removed)
			}
		}
	}

	t.Run("it should remove the Run", theory(
		when{},
		then{},
	))

	{
		err := errors.New("fake error")
		t.Run("when the removal causes error, it should return the error", theory(
			when{removeError: err},
			then{err: err},
		))
	}
}

func TestRunDeleteRun(t *testing.T) {
	t.Run("it should delete the Run via client", func(t *testing.T) {
		ctx := context.Background()
		client := mock.New(t)
		client.Impl.DeleteRun = func(ctx context.Context, runId string) error {
			return nil
		}

		if err := run_rm.RunDeleteRun(ctx, client, "test-runId"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(client.Calls.DeleteRun) != 1 || client.Calls.DeleteRun[0] != "test-runId" {
			t.Errorf("unexpected calls: %+v", client.Calls.DeleteRun)
		}
	})
}
