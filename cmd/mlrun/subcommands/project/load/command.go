package load

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	git "github.com/go-git/go-git/v5"
	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/projectfile"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	apiprojects "github.com/quaark/mlrun-remote-project/pkg/api/types/projects"
	"github.com/youta-t/flarc"
)

// Cloner fetches the project source at url into dir.
type Cloner func(ctx context.Context, dir string, url string) error

type Option struct {
	clone Cloner
}

func WithCloner(clone Cloner) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.clone = clone
		return opt
	}
}

const (
	ARG_NAME    = "NAME"
	ARG_GIT_URL = "GIT_URL"
	ARG_DIR     = "DIR"
)

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		clone: GitClone,
	}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Load a Project from a remote git source.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_NAME, Required: true,
				Help: "Name of the Project to be loaded.",
			},
			{
				Name: ARG_GIT_URL, Required: true,
				Help: "Remote git URL of the project source.",
			},
			{
				Name: ARG_DIR, Required: false,
				Help: "Directory to clone the source into. Default: ./NAME",
			},
		},
		common.NewTask(Task(option.clone)),
		flarc.WithDescription(`
Clone the project source from GIT_URL and register the Project.

	{{ .Command }} breast-cancer https://github.com/example/demo.git

The clone becomes the project context directory: the project file
(project.yaml) is written into it.
`),
	)
}

func Task(clone Cloner) common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		mlrunEnv kenv.Env,
		client krst.Client,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		args := cl.Args()
		name := args[ARG_NAME][0]
		gitUrl := args[ARG_GIT_URL][0]

		dir := name
		if d := args[ARG_DIR]; 0 < len(d) {
			dir = d[0]
		}

		logger.Printf("cloning %s into %s ...", gitUrl, dir)
		if err := clone(ctx, dir, gitUrl); err != nil {
			return fmt.Errorf("failed to clone %s: %w", gitUrl, err)
		}

		spec := apiprojects.Spec{Name: name, Source: gitUrl}
		detail, err := client.RegisterProject(ctx, spec)
		if err != nil {
			return fmt.Errorf("failed to register Project: %w", err)
		}

		if err := projectfile.Save(dir, spec); err != nil {
			return fmt.Errorf("failed to write %s: %w", projectfile.Filename, err)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			return err
		}
		return nil
	}
}

// GitClone is the default Cloner.
func GitClone(ctx context.Context, dir string, url string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: url})
	return err
}
