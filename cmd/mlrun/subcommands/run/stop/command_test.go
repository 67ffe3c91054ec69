package stop_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/rest/mock"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/internal/commandline"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/logger"
	run_stop "github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/run/stop"
	"github.com/quaark/mlrun-remote-project/pkg/api/types/runs"
)

func TestStopCommand(t *testing.T) {
	type when struct {
		flags        run_stop.Flags
		abortError   error
		tearoffError error
	}

	type then struct {
		err         error
		abortCalls  []string
		tearoffCall []string
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			client := mock.New(t)
			client.Impl.Abort = func(ctx context.Context, runId string) (runs.Detail, error) {
				return runs.Detail{
					Summary: runs.Summary{RunId: runId, Status: "aborting"},
				}, when.abortError
			}
			client.Impl.Tearoff = func(ctx context.Context, runId string) (runs.Detail, error) {
				return runs.Detail{
					Summary: runs.Summary{RunId: runId, Status: "completing"},
				}, when.tearoffError
			}

			testee := run_stop.Task()

			ctx := context.Background()
			err := testee(
				ctx,
				logger.Null(),
				*kenv.New(),
				krst.Client(client),
				commandline.MockCommandline[run_stop.Flags]{
					Fullname_: "mlrun run stop",
					Stdout_:   new(strings.Builder),
					Stderr_:   new(strings.Builder),
					Flags_:    when.flags,
					Args_: map[string][]string{
						run_stop.ARG_RUNID: {"test-runId"},
					},
				},
				[]any{},
			)

			if !errors.Is(err, then.err) {
				t.Errorf("wrong result: (actual, expected) != (%v, %v)", err, then.err)
			}

			if len(client.Calls.Abort) != len(then.abortCalls) {
				t.Errorf("unexpected Abort calls: %+v", client.Calls.Abort)
			}
			if len(client.Calls.Tearoff) != len(then.tearoffCall) {
				t.Errorf("unexpected Tearoff calls: %+v", client.Calls.Tearoff)
			}
		}
	}

	t.Run("when called without --fail, it should tear off the Run", theory(
		when{},
		then{tearoffCall: []string{"test-runId"}},
	))
	t.Run("when called with --fail, it should abort the Run", theory(
		when{flags: run_stop.Flags{Fail: true}},
		then{abortCalls: []string{"test-runId"}},
	))
	{
		err := errors.New("fake error")
		t.Run("when Tearoff causes error, it should return the error", theory(
			when{tearoffError: err},
			then{err: err, tearoffCall: []string{"test-runId"}},
		))
		t.Run("when Abort causes error, it should return the error", theory(
			when{flags: run_stop.Flags{Fail: true}, abortError: err},
			then{err: err, abortCalls: []string{"test-runId"}},
		))
	}
}
