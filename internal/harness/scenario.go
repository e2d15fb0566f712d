package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios execute a sequence of queries against a fresh graph and
// assert on results, created ids, and protocol error codes.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// AuthoritySeed selects the deterministic authority keypair: the hex
	// seed is 32 repetitions of this byte. Zero means no authority (open
	// mutations).
	AuthoritySeed uint8 `yaml:"authority_seed,omitempty"`

	// StepLimit overrides the engine's step budget. Zero keeps the default.
	StepLimit uint64 `yaml:"step_limit,omitempty"`

	// CapacityBytes overrides the graph's snapshot capacity. Zero keeps
	// the default.
	CapacityBytes int `yaml:"capacity_bytes,omitempty"`

	// Setup contains queries executed before the main flow. Setup queries
	// must succeed; mutations are signed with the authority key.
	Setup []string `yaml:"setup,omitempty"`

	// Flow contains the main test flow.
	Flow []FlowStep `yaml:"flow"`
}

// FlowStep is one query of the main flow with its expected outcome.
type FlowStep struct {
	// Query is the query text to execute.
	Query string `yaml:"query"`

	// Unsigned runs a mutation without authority proof, to assert
	// authorization failures.
	Unsigned bool `yaml:"unsigned,omitempty"`

	// Expect specifies the expected outcome. If nil the step only has to
	// succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of one step.
type ExpectClause struct {
	// Error is the expected protocol code name (e.g. "QueryParseFailed").
	// When set, the other fields must be empty.
	Error string `yaml:"error,omitempty"`

	// Rows are the expected projected values in order.
	Rows []string `yaml:"rows,omitempty"`

	// IDs are the expected node ids of the result rows in order.
	IDs []uint64 `yaml:"ids,omitempty"`

	// Created are the expected ids allocated by the step in order.
	Created []uint64 `yaml:"created,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	for i, q := range s.Setup {
		if q == "" {
			return fmt.Errorf("setup[%d]: query must not be empty", i)
		}
	}
	for i, step := range s.Flow {
		if step.Query == "" {
			return fmt.Errorf("flow[%d]: query is required", i)
		}
		if e := step.Expect; e != nil && e.Error != "" {
			if len(e.Rows) > 0 || len(e.IDs) > 0 || len(e.Created) > 0 {
				return fmt.Errorf("flow[%d].expect: error excludes rows/ids/created", i)
			}
		}
	}
	return nil
}
