package init

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	prof "github.com/quaark/mlrun-remote-project/cmd/mlrun/config/profiles"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	"github.com/youta-t/flarc"
	"gopkg.in/yaml.v3"
)

const ARG_PROFILE_FILE = "MLRUN_PROFILE_FILE"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Register an mlrun profile into your profile store.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_PROFILE_FILE, Required: true,
				Help: "filepath to an mlrun profile file, which you received from your admin.",
			},
		},
		common.NewTaskWithCommonFlag(Task()),
		flarc.WithDescription(`
Register a new mlrun profile into your profile store.

An mlrun profile is a file which tells where your mlrun API server is
(and, optionally, the CA certificate to trust it).
"{{ .Command }}" registers the given profile file into your profile store.

The name of the profile is given by "--profile" (default: current directory path).
`),
	)
}

func Task() common.TaskWithCommonFlag[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		cf common.CommonFlags,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		profFile := cl.Args()[ARG_PROFILE_FILE][0]

		profStore, err := prof.LoadProfileStore(cf.ProfileStore)
		if errors.Is(err, prof.ErrProfileStoreNotFound) {
			// ok. this is the first profile.
			profStore = prof.ProfileStore{}
		} else if err != nil {
			return fmt.Errorf(
				"failed to load profile store (%s): %w", cf.ProfileStore, err,
			)
		}

		newProf := new(prof.Profile)
		{
			content, err := os.ReadFile(profFile)
			if err != nil {
				return fmt.Errorf("failed to read profile file (%s): %w", profFile, err)
			}

			if err := yaml.Unmarshal(content, newProf); err != nil {
				return fmt.Errorf("failed to parse profile file (%s): %w", profFile, err)
			}
		}
		if err := newProf.Verify(); err != nil {
			return fmt.Errorf("%s: %w", profFile, err)
		}

		profName := cf.Profile
		profStore[profName] = newProf
		if err := profStore.Save(cf.ProfileStore); err != nil {
			return fmt.Errorf(
				"failed to save profile store (%s): %w", cf.ProfileStore, err,
			)
		}
		logger.Printf("profile %s is saved to %s", profName, cf.ProfileStore)

		return nil
	}
}
