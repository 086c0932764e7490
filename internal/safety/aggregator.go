// Package safety derives conditions and the system-safe verdict from the
// dashboard state. Everything here is a pure function of its input.
package safety

import (
	"slices"

	"github.com/plc-visualizer/safety-dashboard/internal/models"
)

// DefaultTopFaults is how many faults the overview panel lists.
const DefaultTopFaults = 3

// Evaluate builds the ordered condition list (aggregated flags, outputs,
// inputs) and the summary. Callers must not cache the result across state
// changes.
func Evaluate(st models.State) models.Summary {
	conditions := Conditions(st)

	failed := make([]models.Condition, 0)
	for _, c := range conditions {
		if !c.Status {
			failed = append(failed, c)
		}
	}

	return models.Summary{
		Conditions:       conditions,
		FailedConditions: failed,
		IsSystemSafe:     len(failed) == 0,
	}
}

// Conditions returns every condition in evaluation order.
func Conditions(st models.State) []models.Condition {
	out := make([]models.Condition, 0, len(st.Flags)+len(st.Outputs)+len(st.Inputs))

	for _, f := range st.Flags {
		if !f.Aggregate {
			continue
		}
		out = append(out, models.Condition{
			Label:        f.Label,
			Status:       f.Healthy(),
			ErrorMessage: f.ErrorMessage,
			Source:       f.ID,
		})
	}

	for _, sig := range st.Outputs {
		out = append(out, OutputCondition(sig, slices.Contains(st.Alarms, sig.ID)))
	}

	for _, sig := range st.Inputs {
		out = append(out, InputCondition(sig, slices.Contains(st.ActiveLow, sig.ID)))
	}

	return out
}

// OutputCondition maps an output signal. An alarm output is healthy while
// it is off.
func OutputCondition(sig models.Signal, alarm bool) models.Condition {
	c := models.Condition{
		Label:        sig.Label,
		Status:       sig.CurrentState,
		ErrorMessage: FaultMessage(models.KindContactor, sig.Label),
		Source:       sig.ID,
	}
	if alarm {
		c.Status = !sig.CurrentState
		c.ErrorMessage = FaultMessage(models.KindAlarm, sig.Label)
	}
	if sig.ErrorMessage != "" {
		c.ErrorMessage = sig.ErrorMessage
	}
	return c
}

// InputCondition maps an input signal. An active-low input is healthy while
// it is false.
func InputCondition(sig models.Signal, activeLow bool) models.Condition {
	status := sig.CurrentState
	if activeLow {
		status = !status
	}
	msg := sig.ErrorMessage
	if msg == "" {
		msg = FaultMessage(sig.Kind, sig.Label)
	}
	return models.Condition{
		Label:        sig.Label,
		Status:       status,
		ErrorMessage: msg,
		Source:       sig.ID,
	}
}

// TopFaults returns at most n failed conditions in order.
func TopFaults(s models.Summary, n int) []models.Condition {
	if n < 0 {
		n = 0
	}
	if len(s.FailedConditions) <= n {
		return append([]models.Condition(nil), s.FailedConditions...)
	}
	return append([]models.Condition(nil), s.FailedConditions[:n]...)
}

// GroupByCategory partitions signals by category. Groups appear in the
// order their category is first seen; members keep scan order.
func GroupByCategory(signals []models.Signal) []models.Group {
	groups := make([]models.Group, 0)
	index := make(map[string]int)
	for _, sig := range signals {
		i, ok := index[sig.Category]
		if !ok {
			i = len(groups)
			index[sig.Category] = i
			groups = append(groups, models.Group{Category: sig.Category})
		}
		groups[i].Signals = append(groups[i].Signals, sig)
	}
	return groups
}

// FilterCategory returns the signals of one category in order.
func FilterCategory(signals []models.Signal, category string) []models.Signal {
	var out []models.Signal
	for _, sig := range signals {
		if sig.Category == category {
			out = append(out, sig)
		}
	}
	return out
}
