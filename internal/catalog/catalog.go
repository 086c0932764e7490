// Package catalog loads the signal catalog that seeds the dashboard state.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/plc-visualizer/safety-dashboard/internal/models"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownSignal  = errors.New("unknown signal id")
	ErrDuplicateID    = errors.New("duplicate signal id")
	ErrEmptyCategory  = errors.New("empty category")
	ErrUnknownKind    = errors.New("unknown signal kind")
	ErrUnknownProfile = errors.New("unknown catalog profile")
)

// Catalog is the YAML description of the platform's flags and signals.
type Catalog struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Flags       []FlagSpec   `yaml:"flags"`
	Inputs      []SignalSpec `yaml:"inputs"`
	Outputs     []SignalSpec `yaml:"outputs"`
	Alarms      []string     `yaml:"alarms"`
	ActiveLow   []string     `yaml:"active_low"`
}

// FlagSpec describes a top-level flag.
type FlagSpec struct {
	ID           string `yaml:"id"`
	Label        string `yaml:"label"`
	Value        bool   `yaml:"value"`
	ErrorMessage string `yaml:"error_message"`
	Inverted     bool   `yaml:"inverted"`
	Aggregate    bool   `yaml:"aggregate"`
}

// SignalSpec describes one input or output signal.
type SignalSpec struct {
	ID           string `yaml:"id"`
	Label        string `yaml:"label"`
	State        bool   `yaml:"state"`
	Category     string `yaml:"category"`
	Kind         string `yaml:"kind,omitempty"`
	ErrorMessage string `yaml:"error_message,omitempty"`
}

// ParseFile parses a YAML catalog file and validates it.
func ParseFile(filePath string) (*Catalog, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseReader(file)
}

// ParseReader parses a catalog from an io.Reader and validates it.
func ParseReader(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data)
}

// ParseBytes parses a catalog from raw YAML and validates it.
func ParseBytes(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks id uniqueness per collection, categories, kinds and that
// every designated alarm/active-low id names an existing signal.
func (c *Catalog) Validate() error {
	inputs, err := indexSignals(models.CollectionInputs, c.Inputs)
	if err != nil {
		return err
	}
	outputs, err := indexSignals(models.CollectionOutputs, c.Outputs)
	if err != nil {
		return err
	}

	flags := make(map[string]struct{}, len(c.Flags))
	for _, f := range c.Flags {
		if _, dup := flags[f.ID]; dup {
			return fmt.Errorf("flags: %w: %s", ErrDuplicateID, f.ID)
		}
		flags[f.ID] = struct{}{}
	}

	for _, id := range c.Alarms {
		if _, ok := outputs[id]; !ok {
			return fmt.Errorf("alarms: %w: %s not in outputs", ErrUnknownSignal, id)
		}
	}
	for _, id := range c.ActiveLow {
		if _, ok := inputs[id]; !ok {
			return fmt.Errorf("active_low: %w: %s not in inputs", ErrUnknownSignal, id)
		}
	}
	return nil
}

func indexSignals(coll models.Collection, specs []SignalSpec) (map[string]struct{}, error) {
	seen := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		if s.ID == "" {
			return nil, fmt.Errorf("%s: signal with label %q has no id", coll, s.Label)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("%s: %w: %s", coll, ErrDuplicateID, s.ID)
		}
		if strings.TrimSpace(s.Category) == "" {
			return nil, fmt.Errorf("%s: %w for %s", coll, ErrEmptyCategory, s.ID)
		}
		if s.Kind != "" {
			if _, ok := knownKinds[models.Kind(s.Kind)]; !ok {
				return nil, fmt.Errorf("%s: %w %q for %s", coll, ErrUnknownKind, s.Kind, s.ID)
			}
		}
		seen[s.ID] = struct{}{}
	}
	return seen, nil
}

// State builds the initial dashboard state from the catalog.
func (c *Catalog) State() models.State {
	st := models.State{
		Flags:     make([]models.Flag, 0, len(c.Flags)),
		Inputs:    make([]models.Signal, 0, len(c.Inputs)),
		Outputs:   make([]models.Signal, 0, len(c.Outputs)),
		Alarms:    append([]string(nil), c.Alarms...),
		ActiveLow: append([]string(nil), c.ActiveLow...),
	}
	for _, f := range c.Flags {
		st.Flags = append(st.Flags, models.Flag{
			ID:           f.ID,
			Label:        f.Label,
			Value:        f.Value,
			ErrorMessage: f.ErrorMessage,
			Inverted:     f.Inverted,
			Aggregate:    f.Aggregate,
		})
	}
	for _, s := range c.Inputs {
		st.Inputs = append(st.Inputs, s.signal())
	}
	for _, s := range c.Outputs {
		st.Outputs = append(st.Outputs, s.signal())
	}
	return st
}

func (s SignalSpec) signal() models.Signal {
	kind := models.Kind(s.Kind)
	if kind == "" {
		kind = InferKind(s.Label)
	}
	return models.Signal{
		ID:           s.ID,
		Label:        s.Label,
		CurrentState: s.State,
		Category:     s.Category,
		Kind:         kind,
		ErrorMessage: s.ErrorMessage,
	}
}
