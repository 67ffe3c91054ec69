package template

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"strings"

	kenv "github.com/quaark/mlrun-remote-project/cmd/mlrun/env"
	krst "github.com/quaark/mlrun-remote-project/cmd/mlrun/rest"
	"github.com/quaark/mlrun-remote-project/cmd/mlrun/subcommands/common"
	apifunctions "github.com/quaark/mlrun-remote-project/pkg/api/types/functions"
	"github.com/quaark/mlrun-remote-project/pkg/utils/images/analyzer"
	y "github.com/quaark/mlrun-remote-project/pkg/utils/yamler"
	"github.com/youta-t/flarc"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/api/resource"
)

type Option struct {
	fromScratch func(context.Context, *log.Logger, string, kenv.Env) (apifunctions.Spec, error)
	fromImage   func(context.Context, *log.Logger, namedReader, string, kenv.Env) (apifunctions.Spec, error)
}

func WithTemplateMaker(
	fromScratch func(context.Context, *log.Logger, string, kenv.Env) (apifunctions.Spec, error),
	fromImage func(context.Context, *log.Logger, namedReader, string, kenv.Env) (apifunctions.Spec, error),
) func(*Option) *Option {
	return func(cmd *Option) *Option {
		cmd.fromScratch = fromScratch
		cmd.fromImage = fromImage
		return cmd
	}
}

type Flag struct {
	Scratch bool   `flag:"scratch" help:"Generate a Function file without reading any image."`
	Input   string `flag:"" alias:"i" metavar:"path/to/image.tar" help:"Tar file containing image (for example: output of 'docker save') to be used for the Function."`
}

const (
	ARG_IMAGE_TAG = "image:tag"
)

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		fromScratch: FromScratch(),
		fromImage:   FromImage(analyzer.Analyze),
	}
	for _, opt := range options {
		option = opt(option)
	}
	return flarc.NewCommand(
		"Generate a new Function definition from a container image.",

		Flag{Input: "-", Scratch: false},
		flarc.Args{
			{
				Name: ARG_IMAGE_TAG, Required: false,
				Help: fmt.Sprintf(`
Specify the image tag to use for the Function.
This is optional when the image has just one tag.

If --scratch is given, %s is prohibited.`,
					ARG_IMAGE_TAG,
				),
			},
		},
		common.NewTask(Task(option.fromScratch, option.fromImage)),
		flarc.WithDescription(`
Generate a Function file from "docker save".

	docker save image:tag | {{ .Command }} > function.yaml

Generate a Function file from a container image file.

	docker save image:tag > image.tar
	{{ .Command }} -i image.tar > function.yaml

You may need to specify image:tag explicitly when the image has multiple tags, like below:

	{{ .Command }} -i image-with-multiple-tag.tar image:tag > function.yaml
`),
	)
}

func Task(
	fromScratch func(context.Context, *log.Logger, string, kenv.Env) (apifunctions.Spec, error),
	fromImage func(context.Context, *log.Logger, namedReader, string, kenv.Env) (apifunctions.Spec, error),
) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		mlrunEnv kenv.Env,
		client krst.Client,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()
		args := cl.Args()

		var fn apifunctions.Spec
		if flags.Scratch {
			if l := len(args[ARG_IMAGE_TAG]); 0 < l {
				return fmt.Errorf(
					"%w: image:tag and --scratch are exclusive", flarc.ErrUsage,
				)
			}

			spec, err := fromScratch(ctx, logger, "image:version", mlrunEnv)
			if err != nil {
				return fmt.Errorf("can not generate Function file: %w", err)
			}
			fn = spec
		} else {
			imageTag := ""
			if 0 < len(args[ARG_IMAGE_TAG]) {
				imageTag = args[ARG_IMAGE_TAG][0]
			}

			var source namedReader = _namedReader{name: "STDIN", Reader: cl.Stdin()}
			if flags.Input != "-" {
				f, err := os.Open(flags.Input)
				if err != nil {
					return fmt.Errorf(
						"cannot open input file: %s: %w", flags.Input, err,
					)
				}
				defer f.Close()
				source = f
			}

			spec, err := fromImage(ctx, logger, source, imageTag, mlrunEnv)
			if err != nil {
				return fmt.Errorf("failed to generate Function file: %w", err)
			}
			fn = spec
		}

		req := map[string]string{}
		for k, v := range fn.Requirements {
			req[k] = v.String()
		}

		yfn := functionSpecWithDocument{
			Name:         fn.Name,
			Kind:         fn.Kind,
			Image:        fn.Image,
			Handler:      fn.Handler,
			Requirements: req,
		}

		out := cl.Stdout()
		io.WriteString(out, "\n")
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		enc.SetIndent(2)
		if err := enc.Encode(yfn); err != nil {
			return fmt.Errorf("cannot write Function file: %w", err)
		}
		io.WriteString(out, "\n")
		logger.Println("# Function file is generated. modify it as you like.")
		return nil
	}
}

func FromScratch() func(context.Context, *log.Logger, string, kenv.Env) (apifunctions.Spec, error) {
	return func(
		ctx context.Context,
		l *log.Logger,
		tag string,
		env kenv.Env,
	) (apifunctions.Spec, error) {
		image := new(apifunctions.Image)
		if err := image.Parse(tag); err != nil {
			return apifunctions.Spec{}, err
		}

		reqs, err := requirements(env)
		if err != nil {
			return apifunctions.Spec{}, err
		}

		return apifunctions.Spec{
			Name:         "my-function",
			Kind:         apifunctions.KindJob,
			Image:        image,
			Handler:      "main",
			Requirements: reqs,
		}, nil
	}
}

func FromImage(
	analyze func(context.Context, io.Reader) ([]analyzer.TaggedConfig, error),
) func(context.Context, *log.Logger, namedReader, string, kenv.Env) (apifunctions.Spec, error) {
	return func(
		ctx context.Context,
		l *log.Logger,
		source namedReader,
		tag string,
		env kenv.Env,
	) (apifunctions.Spec, error) {

		l.Printf(`...analyzing image from "%s"`, source.Name())
		foundConfigs, err := analyze(ctx, source)
		if err != nil {
			return apifunctions.Spec{}, err
		}

		var cfg analyzer.TaggedConfig
		if tag == "" {
			if l := len(foundConfigs); 1 < l {
				return apifunctions.Spec{}, fmt.Errorf("multiple images found, specify the image tag")
			} else if l == 0 {
				return apifunctions.Spec{}, fmt.Errorf("no image found")
			}
			cfg = foundConfigs[0]
		} else {
			found := false
		CONFIGS:
			for _, c := range foundConfigs {
				for _, t := range c.Tags {
					if t == tag {
						cfg = c
						found = true
						break CONFIGS
					}
				}
			}
			if !found {
				return apifunctions.Spec{}, fmt.Errorf("specified image tag '%s' is not found", tag)
			}
		}

		reqs, err := requirements(env)
		if err != nil {
			return apifunctions.Spec{}, err
		}

		var repository string
		var imagetag string
		if i, t, ok := cutImageTag(tag); ok {
			repository = i
			imagetag = t
		}

		if repository == "" && imagetag == "" {
			if 0 < len(cfg.Tags) {
				if i, t, ok := cutImageTag(cfg.Tags[0]); ok {
					repository = i
					imagetag = t
				}
			}
		}

		if repository == "" {
			repository = "IMAGE"
		}
		if imagetag == "" {
			imagetag = "TAG"
		}

		name := strings.ReplaceAll(path.Base(repository), "_", "-")
		if name == "" || name == "." {
			name = "my-function"
		}

		return apifunctions.Spec{
			Name: name,
			Kind: guessKind(cfg.Config),
			Image: &apifunctions.Image{
				Repository: repository,
				Tag:        imagetag,
			},
			Handler:      guessHandler(cfg.Config),
			Requirements: reqs,
		}, nil
	}
}

func requirements(env kenv.Env) (apifunctions.Requirements, error) {
	reqs := apifunctions.Requirements{}
	for k, v := range env.Requirements {
		q, err := resource.ParseQuantity(v)
		if err != nil {
			return nil, fmt.Errorf("invalid requirement value: %w", err)
		}
		reqs[k] = q
	}
	if _, ok := reqs["cpu"]; !ok {
		reqs["cpu"] = resource.MustParse("1")
	}
	if _, ok := reqs["memory"]; !ok {
		reqs["memory"] = resource.MustParse("1Gi")
	}
	return reqs, nil
}

// guessHandler derives a handler name from the entrypoint and cmd of
// the image. A python script "train.py" suggests the handler "train",
// and "-m package.module" suggests "package.module".
func guessHandler(cfg analyzer.Config) string {
	argv := append(cfg.Entrypoint[:len(cfg.Entrypoint):len(cfg.Entrypoint)], cfg.Cmd...)
	for i, a := range argv {
		if strings.HasSuffix(a, ".py") {
			base := path.Base(a)
			return strings.TrimSuffix(base, ".py")
		}
		if a == "-m" && i+1 < len(argv) {
			return argv[i+1]
		}
	}
	return "main"
}

// guessKind looks for a long-running server in the image command line.
func guessKind(cfg analyzer.Config) apifunctions.Kind {
	argv := append(cfg.Entrypoint[:len(cfg.Entrypoint):len(cfg.Entrypoint)], cfg.Cmd...)
	for _, a := range argv {
		switch {
		case strings.Contains(a, "serve"),
			strings.Contains(a, "uvicorn"),
			strings.Contains(a, "gunicorn"):
			return apifunctions.KindServing
		}
	}
	return apifunctions.KindJob
}

func cutImageTag(imageName string) (repo string, tag string, ok bool) {
	if i := strings.LastIndexByte(imageName, ':'); 0 < i {
		return imageName[:i], imageName[i+1:], true
	}
	return imageName, "", false
}

type namedReader interface {
	Name() string
	io.Reader
}

type _namedReader struct {
	name string
	io.Reader
}

func (r _namedReader) Name() string {
	return r.name
}

type functionSpecWithDocument struct {
	Name         string
	Kind         apifunctions.Kind
	Image        *apifunctions.Image
	Handler      string
	Requirements map[string]string
}

func (f functionSpecWithDocument) MarshalYAML() (interface{}, error) {
	image := ""
	if f.Image != nil {
		image = f.Image.String()
	}

	doc := y.Map(
		y.Entry(
			y.Text("name", y.WithHeadComment(`
name:
  Name of this Function, unique in its Project.
`)),
			y.Text(f.Name, y.WithStyle(yaml.DoubleQuotedStyle)),
		),
		y.Entry(
			y.Text("kind", y.WithHeadComment(`
kind:
  How this Function runs: "job" runs to completion per pipeline step,
  "serving" stays up as a model server behind an Endpoint.
`)),
			y.Text(f.Kind.String(), y.WithStyle(yaml.DoubleQuotedStyle)),
		),
		y.Entry(
			y.Text("image", y.WithHeadComment(`
image:
  Container image to be executed as this Function.
  This image-tag should be accessible from your mlrun cluster.
`)),
			y.Text(image, y.WithStyle(yaml.DoubleQuotedStyle)),
		),
		y.Entry(
			y.Text("handler", y.WithHeadComment(`
handler:
  Entry point invoked in the image for each run of this Function.
`)),
			y.Text(f.Handler, y.WithStyle(yaml.DoubleQuotedStyle)),
		),
		y.Entry(
			y.Text("requirements", y.WithHeadComment(`
requirements (optional, mutable):
  Compute resources reserved for each invocation of this Function.

(advanced note: These values are passed to container.resource.limits in kubernetes.)
`)),
			y.Map(
				y.Entry(
					y.Text("cpu", y.WithHeadComment(`
cpu (optional; default = 1):
  How many cores each invocation will use.
  This can be a fraction, like "0.5" or "500m" (= 500 millicore) for a half of a core.
`)),
					y.Text(f.Requirements["cpu"]),
				),
				y.Entry(
					y.Text("memory", y.WithHeadComment(`
memory (optional; default = 1Gi):
  How many bytes of memory each invocation will use.
  You can use suffixes like "Ki", "Mi", "Gi", case sensitive.
`)),
					y.Text(f.Requirements["memory"]),
				),
			),
		),
	)

	doc.FootComment = `
# # source (optional):
# #   Where the code of this Function comes from: a git URL or an
# #   uploaded archive. If missing, the Project source is used.
# source: "git://github.com/your-org/your-repo.git#main"
`

	return doc, nil
}
