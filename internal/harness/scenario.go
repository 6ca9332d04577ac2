package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/chatdom/internal/command"
)

// Scenario defines one transcript test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Document is the starting markup. It must contain the chat container.
	Document string `yaml:"document"`

	// ChatID overrides the chat container id.
	ChatID string `yaml:"chat_id,omitempty"`

	// Lenient disables strict mode. Scenarios run strict by default.
	Lenient bool `yaml:"lenient,omitempty"`

	// Session is the fixed journal session id. Defaults to "test-session".
	Session string `yaml:"session,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated against the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is a command plus its expected outcome.
type Step struct {
	command.Command `yaml:",inline"`

	// Expect checks the outcome. Without it the step must not fail.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes a step's expected outcome.
type Expect struct {
	// Applied is whether the command changed anything.
	Applied *bool `yaml:"applied,omitempty"`

	// Error is the expected runtime error code, e.g. NO_PLACEHOLDER.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks the final state.
type Assertion struct {
	// Type selects the check:
	//   - "message_order": message ids in document order equal IDs
	//   - "message_count": number of messages equals Count
	//   - "top_level": ids of messages directly in the chat container equal IDs
	//   - "members": ids of messages nested in ID equal IDs
	//   - "anchor": the anchor sits per Placement relative to Of
	//   - "consecutive": message ID has the consecutive flag set to Value
	//   - "invariants": the tree passes every invariant check
	//   - "context_menu": the host received IDs as context-menu targets
	//   - "scrolls": the host received Count scroll requests
	Type string `yaml:"type"`

	IDs       []string `yaml:"ids,omitempty"`
	ID        string   `yaml:"id,omitempty"`
	Count     int      `yaml:"count,omitempty"`
	Placement string   `yaml:"placement,omitempty"`
	Of        string   `yaml:"of,omitempty"`
	Value     *bool    `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertMessageOrder = "message_order"
	AssertMessageCount = "message_count"
	AssertTopLevel     = "top_level"
	AssertMembers      = "members"
	AssertAnchor       = "anchor"
	AssertConsecutive  = "consecutive"
	AssertInvariants   = "invariants"
	AssertContextMenu  = "context_menu"
	AssertScrolls      = "scrolls"
)

// Anchor placements.
const (
	PlacementInside = "inside"
	PlacementAfter  = "after"
	PlacementNone   = "none"
)

// LoadScenario reads and parses a scenario file. Unknown fields are
// rejected so that typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Document == "" {
		return fmt.Errorf("document is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := step.Command.Validate(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.Expect != nil && step.Expect.Applied == nil && step.Expect.Error == "" {
			return fmt.Errorf("steps[%d].expect: applied or error is required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertMessageOrder, AssertTopLevel, AssertContextMenu:
		if a.IDs == nil {
			return fmt.Errorf("assertions[%d]: ids is required for %s (use [] for none)", index, a.Type)
		}
	case AssertMembers:
		if a.ID == "" || a.IDs == nil {
			return fmt.Errorf("assertions[%d]: id and ids are required for members", index)
		}
	case AssertMessageCount, AssertScrolls, AssertInvariants:
	case AssertAnchor:
		switch a.Placement {
		case PlacementInside, PlacementAfter:
			if a.Of == "" {
				return fmt.Errorf("assertions[%d]: of is required for anchor placement %q", index, a.Placement)
			}
		case PlacementNone:
		default:
			return fmt.Errorf("assertions[%d]: unknown anchor placement %q", index, a.Placement)
		}
	case AssertConsecutive:
		if a.ID == "" || a.Value == nil {
			return fmt.Errorf("assertions[%d]: id and value are required for consecutive", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
