package task

import (
	"os"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// LoadSpecs reads task definitions from a YAML file. Each entry must
// validate; the file replaces nothing, it only describes additional
// tasks.
func LoadSpecs(path string) ([]Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading task file %s", path)
	}
	var specs []Spec
	if err := yaml.Unmarshal(raw, &specs); err != nil {
		return nil, errors.Wrapf(err, "parsing task file %s", path)
	}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, errors.Wrapf(err, "task file %s", path)
		}
	}
	return specs, nil
}
