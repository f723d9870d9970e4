package wargame

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var validatorInstance = validator.New()

// DefaultAttackers is used when a scenario names none.
var DefaultAttackers = []string{"Enemy Sniper", "Artillery Strike", "Tank", "Ambush"}

// UnitSpec defines one unit in a scenario.
type UnitSpec struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name" validate:"required"`
	HP   int    `yaml:"hp" validate:"gt=0"`
}

// Scenario describes a skirmish.
type Scenario struct {
	Name      string     `yaml:"name" validate:"required"`
	Seed      int64      `yaml:"seed"`
	Rounds    int        `yaml:"rounds" validate:"gt=0"`
	Attackers []string   `yaml:"attackers" validate:"dive,required"`
	Units     []UnitSpec `yaml:"units" validate:"min=1,unique=ID,dive"`
}

// LoadScenario reads and validates a YAML scenario from fs.
func LoadScenario(fs afero.Fs, path string) (*Scenario, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if len(sc.Attackers) == 0 {
		sc.Attackers = DefaultAttackers
	}
	if err := validatorInstance.Struct(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// UnitIDs returns the unit identifiers in scenario order.
func (s *Scenario) UnitIDs() []string {
	ids := make([]string, len(s.Units))
	for i, u := range s.Units {
		ids[i] = u.ID
	}
	return ids
}
