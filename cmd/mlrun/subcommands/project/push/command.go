package push

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	git "github.com/go-git/go-git/v5"
	kcerr "github.com/quaark/mlrun-remote-project/cmd/mlrun/errors"
	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/projectfile"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	apiprojects "github.com/quaark/mlrun-remote-project/pkg/api/types/projects"
	"github.com/quaark/mlrun-remote-project/pkg/utils/archive"
	"github.com/youta-t/flarc"
)

type Flags struct {
	Context    string `flag:"context" alias:"C" metavar:"DIR" help:"Project context directory. Default: current directory."`
	WithSource bool   `flag:"with-source" help:"Also upload the context directory as the project source archive."`
}

// DetectSource finds the remote git URL of the repository at dir.
//
// ErrNoRemote is returned when dir is no git repository, or when the
// repository has no remote.
type DetectSource func(dir string) (string, error)

var ErrNoRemote = errors.New("no git remote")

type Option struct {
	detectSource DetectSource
	upload       func(ctx context.Context, client krst.Client, name string, source io.Reader) (apiprojects.SourceSummary, error)
}

func WithSourceDetector(detect DetectSource) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.detectSource = detect
		return opt
	}
}

func WithUploader(
	upload func(ctx context.Context, client krst.Client, name string, source io.Reader) (apiprojects.SourceSummary, error),
) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.upload = upload
		return opt
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		detectSource: GitRemoteUrl,
		upload:       RunPostProjectSource,
	}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Save the Project described by the context directory to the server.",
		Flags{Context: "."},
		flarc.Args{},
		common.NewTask(Task(option.detectSource, option.upload)),
		flarc.WithDescription(`
Register (or update) the Project described by DIR/project.yaml.

The Project needs a source: either "source:" in project.yaml, or the
remote URL of the git repository at the context directory. When neither
exists, this command fails; triggering Workflow Runs of a sourceless
Project would leave its workers nothing to fetch.

With --with-source, the whole context directory is archived (tar.gz) and
uploaded as the project source instead. This suits projects which are not
pushed to any git remote.
`),
	)
}

func Task(
	detectSource DetectSource,
	upload func(ctx context.Context, client krst.Client, name string, source io.Reader) (apiprojects.SourceSummary, error),
) common.Task[Flags] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		mlrunEnv kenv.Env,
		client krst.Client,
		cl flarc.Commandline[Flags],
		params []any,
	) error {
		flags := cl.Flags()

		spec, err := projectfile.Load(flags.Context)
		if err != nil {
			return err
		}

		if spec.Source == "" && !flags.WithSource {
			source, err := detectSource(flags.Context)
			if err != nil {
				if !errors.Is(err, ErrNoRemote) {
					return err
				}
				return kcerr.NewCuiError(
					fmt.Sprintf(
						"project %s has no source: project.yaml does not set `source`, and %s has no git remote",
						spec.Name, flags.Context,
					),
					kcerr.WithDetail(func(summary string) (string, error) {
						return summary + `

To push this project, do one of:

- set "source: GIT_URL" in project.yaml,
- add a remote to the repository (git remote add origin GIT_URL), or
- upload the context directory itself: ` + "`mlrun project push --with-source`", nil
					}),
					kcerr.WithCause(err),
				)
			}
			spec.Source = source
		}

		detail, err := client.RegisterProject(ctx, spec)
		if err != nil {
			return fmt.Errorf("failed to push Project: %w", err)
		}

		if flags.WithSource {
			logger.Printf("uploading %s as the source of project %s ...", flags.Context, spec.Name)
			summary, err := uploadContext(ctx, client, spec.Name, flags.Context, upload)
			if err != nil {
				return fmt.Errorf("failed to upload project source: %w", err)
			}
			logger.Printf("uploaded: %s (%d bytes)", summary.Key, summary.Size)
		}

		enc := json.NewEncoder(cl.Stdout())
		enc.SetIndent("", "    ")
		if err := enc.Encode(detail); err != nil {
			return err
		}
		return nil
	}
}

func uploadContext(
	ctx context.Context,
	client krst.Client,
	name string,
	dir string,
	upload func(ctx context.Context, client krst.Client, name string, source io.Reader) (apiprojects.SourceSummary, error),
) (apiprojects.SourceSummary, error) {
	r, w := io.Pipe()
	gzwriter := gzip.NewWriter(w)

	prog := archive.GoTar(ctx, dir, gzwriter)
	go func() {
		<-prog.Done()
		err := prog.Error()
		if cerr := gzwriter.Close(); err == nil {
			err = cerr
		}
		w.CloseWithError(err)
	}()
	defer r.Close()

	return upload(ctx, client, name, r)
}

// GitRemoteUrl is the default DetectSource: the URL of the "origin"
// remote of the repository at dir, or of the first remote when there
// is no "origin".
func GitRemoteUrl(dir string) (string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", fmt.Errorf("%w: %s is not a git repository", ErrNoRemote, dir)
		}
		return "", err
	}

	remotes, err := repo.Remotes()
	if err != nil {
		return "", err
	}
	if len(remotes) == 0 {
		return "", fmt.Errorf("%w: the repository at %s has no remote", ErrNoRemote, dir)
	}

	candidate := remotes[0]
	for _, r := range remotes {
		if r.Config().Name == git.DefaultRemoteName {
			candidate = r
			break
		}
	}

	urls := candidate.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("%w: remote %s has no URL", ErrNoRemote, candidate.Config().Name)
	}
	return urls[0], nil
}

func RunPostProjectSource(
	ctx context.Context, client krst.Client, name string, source io.Reader,
) (apiprojects.SourceSummary, error) {
	return client.PostProjectSource(ctx, name, source)
}
