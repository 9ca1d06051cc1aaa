package catalog

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/health-package-engine/internal/models"
)

// catalogFile represents the YAML structure of a catalog file
type catalogFile struct {
	Version string           `yaml:"version"`
	Tests   []models.LabTest `yaml:"tests"`
}

// LoadFile loads a catalog from a YAML file
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("catalog loaded", "file", path, "version", c.Version(), "tests", c.Len())
	return c, nil
}

// Parse decodes catalog YAML
func Parse(data []byte) (*Catalog, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	if len(cf.Tests) == 0 {
		return nil, fmt.Errorf("catalog has no tests")
	}

	return New(cf.Version, cf.Tests)
}
