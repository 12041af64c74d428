package util

import (
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// LoadFromYaml reads path and unmarshals it into out.
func LoadFromYaml(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config file %s", path)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}

	return nil
}
