package respondsdk

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ──────────────────────────────────────────────
// Persona definition files
// ──────────────────────────────────────────────

// LoadPersonaFile reads one persona definition from a YAML file.
//
//	name: alphasnob
//	display_name: AlphaSnob
//	description: sharp, dismissive troll voice
//	system_prompt: |
//	  You are AlphaSnob...
func LoadPersonaFile(path string) (Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("read persona: %w", err)
	}
	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Persona{}, fmt.Errorf("parse persona %s: %w", path, err)
	}
	if p.Name == "" {
		return Persona{}, fmt.Errorf("persona %s: missing name", path)
	}
	return p, nil
}

// LoadPersonaDir loads every *.yaml/*.yml persona in a directory into a new
// registry. Files that fail to parse are skipped with an error in the
// returned slice; one bad file never blocks the rest.
func LoadPersonaDir(dir string) (*PersonaRegistry, []error) {
	registry := NewPersonaRegistry()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return registry, []error{fmt.Errorf("read persona dir: %w", err)}
	}
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		p, err := LoadPersonaFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		registry.Register(p)
	}
	return registry, errs
}
