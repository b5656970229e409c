package pm2

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadParameterFile reads parameter overrides from a YAML file of
// name: value pairs, e.g.
//
//	mu_max: 2.1
//	K_N: 0.08
func LoadParameterFile(path string) (map[string]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading parameter file: %w", err)
	}
	overrides := map[string]float64{}
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parsing parameter file %s: %w", path, err)
	}
	return overrides, nil
}
