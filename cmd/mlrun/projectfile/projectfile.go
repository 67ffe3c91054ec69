package projectfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quaark/mlrun-remote-project/pkg/api/types/projects"
	"gopkg.in/yaml.v3"
)

// Filename is the name of the project file in a project context directory.
const Filename = "project.yaml"

var ErrNotFound = errors.New("project file is not found")

// Load reads the project file in dir.
func Load(dir string) (projects.Spec, error) {
	content, err := os.ReadFile(filepath.Join(dir, Filename))
	if err != nil {
		if os.IsNotExist(err) {
			return projects.Spec{}, fmt.Errorf(
				"%w in %s. Move to your project directory, or try `mlrun project create` / `mlrun project load` first",
				ErrNotFound, dir,
			)
		}
		return projects.Spec{}, err
	}

	spec := projects.Spec{}
	if err := yaml.Unmarshal(content, &spec); err != nil {
		return projects.Spec{}, fmt.Errorf("broken project file in %s: %w", dir, err)
	}
	if spec.Name == "" {
		return projects.Spec{}, fmt.Errorf("broken project file in %s: name is required", dir)
	}

	return spec, nil
}

// Save writes spec as the project file in dir.
func Save(dir string, spec projects.Spec) error {
	content, err := yaml.Marshal(spec)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, Filename), content, os.FileMode(0644))
}

// ResolveName determines the project name a command works on.
//
// An explicit name (--project flag) wins. Otherwise it comes from
// the project file in dir.
func ResolveName(name string, dir string) (string, error) {
	if name != "" {
		return name, nil
	}
	spec, err := Load(dir)
	if err != nil {
		return "", err
	}
	return spec.Name, nil
}
