package models

// Condition is a derived pass/fail fact. It is recomputed on every read.
type Condition struct {
	Label        string `json:"label" msgpack:"label"`
	Status       bool   `json:"status" msgpack:"status"`
	ErrorMessage string `json:"errorMessage" msgpack:"errorMessage"`
	Source       string `json:"source" msgpack:"source"` // flag or signal id
}

// Summary is the aggregate safety verdict.
type Summary struct {
	Conditions       []Condition `json:"conditions" msgpack:"conditions"`
	FailedConditions []Condition `json:"failedConditions" msgpack:"failedConditions"`
	IsSystemSafe     bool        `json:"isSystemSafe" msgpack:"isSystemSafe"`
}

// Group holds the signals of one category in scan order.
type Group struct {
	Category string   `json:"category" msgpack:"category"`
	Signals  []Signal `json:"signals" msgpack:"signals"`
}

// Snapshot is the full dashboard payload served to clients.
type Snapshot struct {
	Version   uint64      `json:"version" msgpack:"version"`
	State     State       `json:"state" msgpack:"state"`
	Summary   Summary     `json:"summary" msgpack:"summary"`
	Groups    []Group     `json:"groups" msgpack:"groups"`
	TopFaults []Condition `json:"topFaults" msgpack:"topFaults"`
}
