package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Cargo is a role within an exam board. Subjects may be empty, in which case
// the subject step is skipped during onboarding.
type Cargo struct {
	Name     string   `yaml:"name"`
	Subjects []string `yaml:"subjects"`
}

// Exam is a top-level exam board offering one or more cargos.
type Exam struct {
	Name   string  `yaml:"name"`
	Cargos []Cargo `yaml:"cargos"`
}

// Catalog is the static reference data driving menu choices. It is loaded once
// at process start and never mutated afterwards.
type Catalog struct {
	Exams  []Exam   `yaml:"exams"`
	Levels []string `yaml:"levels"`
}

// Load reads a catalog from a YAML file. An empty path loads the embedded
// default catalog.
func Load(path string) (*Catalog, error) {
	raw := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %q: %w", path, err)
		}
		raw = b
	}

	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Exams) == 0 {
		return errors.New("catalog: at least one exam board is required")
	}
	if len(c.Levels) == 0 {
		return errors.New("catalog: at least one level is required")
	}
	for _, e := range c.Exams {
		if e.Name == "" {
			return errors.New("catalog: exam board name must not be empty")
		}
		if len(e.Cargos) == 0 {
			return fmt.Errorf("catalog: exam board %q has no cargos", e.Name)
		}
		for _, cargo := range e.Cargos {
			if cargo.Name == "" {
				return fmt.Errorf("catalog: exam board %q has a cargo with no name", e.Name)
			}
		}
	}
	return nil
}

// Exam returns the exam board with the given name, if present.
func (c *Catalog) Exam(name string) (Exam, bool) {
	for _, e := range c.Exams {
		if e.Name == name {
			return e, true
		}
	}
	return Exam{}, false
}

// Cargo returns the named cargo under the named exam board, if present.
func (c *Catalog) Cargo(examName, cargoName string) (Cargo, bool) {
	e, ok := c.Exam(examName)
	if !ok {
		return Cargo{}, false
	}
	for _, cargo := range e.Cargos {
		if cargo.Name == cargoName {
			return cargo, true
		}
	}
	return Cargo{}, false
}
