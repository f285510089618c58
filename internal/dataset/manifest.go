package dataset

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadManifest reads a variant list from a YAML manifest. The manifest
// replaces the built-in defaults entirely, so it is the one place the
// "which rasters, in which order" decision lives; historical land-cover
// years are extra entries here, not code.
func LoadManifest(path string) ([]Variant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read manifest %s", path)
	}

	var wrapper struct {
		Datasets []Variant `yaml:"datasets"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrapf(err, "dataset: parse manifest %s", path)
	}
	if len(wrapper.Datasets) == 0 {
		return nil, eris.Errorf("dataset: manifest %s lists no datasets", path)
	}

	for _, v := range wrapper.Datasets {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return wrapper.Datasets, nil
}
