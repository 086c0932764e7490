// Package models contains domain types for the Safety Service Dashboard.
package models

// Collection identifies one of the two signal collections.
type Collection string

const (
	CollectionInputs  Collection = "inputs"
	CollectionOutputs Collection = "outputs"
)

// Kind classifies a signal for fault-message purposes.
type Kind string

const (
	KindEStop      Kind = "estop"
	KindInterlock  Kind = "interlock"
	KindSensor     Kind = "sensor"
	KindProtection Kind = "protection"
	KindDetection  Kind = "detection"
	KindHoldToRun  Kind = "hold_to_run"
	KindContactor  Kind = "contactor"
	KindAlarm      Kind = "alarm"
	KindGeneric    Kind = "generic"
)

// Signal is a single named boolean telemetry point.
type Signal struct {
	ID           string `json:"id" msgpack:"id"`
	Label        string `json:"label" msgpack:"label"`
	CurrentState bool   `json:"currentState" msgpack:"currentState"`
	Category     string `json:"category" msgpack:"category"`
	Kind         Kind   `json:"kind" msgpack:"kind"`
	ErrorMessage string `json:"errorMessage,omitempty" msgpack:"errorMessage,omitempty"`
}

// Flag is a top-level system boolean such as "PLC Connected".
// Inverted flags are healthy when false (e.g. a timeout).
type Flag struct {
	ID           string `json:"id" msgpack:"id"`
	Label        string `json:"label" msgpack:"label"`
	Value        bool   `json:"value" msgpack:"value"`
	ErrorMessage string `json:"errorMessage" msgpack:"errorMessage"`
	Inverted     bool   `json:"inverted,omitempty" msgpack:"inverted,omitempty"`
	Aggregate    bool   `json:"aggregate" msgpack:"aggregate"`
}

// Healthy reports the flag's pass/fail value after inversion.
func (f Flag) Healthy() bool {
	if f.Inverted {
		return !f.Value
	}
	return f.Value
}

// State is a point-in-time copy of everything the aggregator reads.
type State struct {
	Flags   []Flag   `json:"flags" msgpack:"flags"`
	Inputs  []Signal `json:"inputs" msgpack:"inputs"`
	Outputs []Signal `json:"outputs" msgpack:"outputs"`

	// Alarms lists output ids whose active state is a fault.
	Alarms []string `json:"alarms,omitempty" msgpack:"alarms,omitempty"`
	// ActiveLow lists input ids that are healthy when false.
	ActiveLow []string `json:"activeLow,omitempty" msgpack:"activeLow,omitempty"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	return State{
		Flags:     append([]Flag(nil), s.Flags...),
		Inputs:    append([]Signal(nil), s.Inputs...),
		Outputs:   append([]Signal(nil), s.Outputs...),
		Alarms:    append([]string(nil), s.Alarms...),
		ActiveLow: append([]string(nil), s.ActiveLow...),
	}
}

// FindSignal looks a signal up in inputs first, then outputs.
func (s State) FindSignal(id string) (Signal, Collection, bool) {
	for _, sig := range s.Inputs {
		if sig.ID == id {
			return sig, CollectionInputs, true
		}
	}
	for _, sig := range s.Outputs {
		if sig.ID == id {
			return sig, CollectionOutputs, true
		}
	}
	return Signal{}, "", false
}
