package env

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Env is the content of an mlrunenv file: defaults applied by this
// command when building requests.
//
// Params are merged into `mlrun project run` triggers (flags win).
// Requirements fill `mlrun function apply` specs which declare none.
type Env struct {
	Params       map[string]string `yaml:"params"`
	Requirements map[string]string `yaml:"requirements"`
}

func New() *Env {
	return new(Env)
}

// LoadEnv reads an mlrunenv file.
//
// A missing file is not an error: it yields an empty Env.
func LoadEnv(filepath string) (*Env, error) {

	env := Env{}

	content, err := os.ReadFile(filepath)
	if err != nil {
		return &env, nil
	}

	err = yaml.Unmarshal(content, &env)
	if err != nil {
		return nil, err
	}

	return &env, nil
}
