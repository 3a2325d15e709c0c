package prompts

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

const defaultDietType = "balanced"

type MealTemplate struct {
	Label     string              `yaml:"label"`
	Structure string              `yaml:"structure"`
	Suggested map[string][]string `yaml:"suggested"`
}

type Catalog struct {
	MealTypes map[MealType]MealTemplate `yaml:"meal_types"`
}

var (
	catalogOnce sync.Once
	catalog     *Catalog
	catalogErr  error
)

// LoadCatalog parses the embedded meal catalog once.
func LoadCatalog() (*Catalog, error) {
	catalogOnce.Do(func() {
		var c Catalog
		if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
			catalogErr = fmt.Errorf("parse meal catalog: %w", err)
			return
		}
		if _, ok := c.MealTypes[MealSnack]; !ok {
			catalogErr = fmt.Errorf("meal catalog missing %q", MealSnack)
			return
		}
		catalog = &c
	})
	return catalog, catalogErr
}

// Lookup returns the template and suggested foods for a meal type and diet
// type, falling back to the generic snack template and to the balanced list.
func (c *Catalog) Lookup(mt MealType, dietType string) (MealTemplate, []string) {
	tpl, ok := c.MealTypes[mt]
	if !ok {
		tpl = c.MealTypes[MealSnack]
	}
	foods, ok := tpl.Suggested[dietType]
	if !ok {
		foods = tpl.Suggested[defaultDietType]
	}
	return tpl, foods
}
