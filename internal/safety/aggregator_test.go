package safety

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/plc-visualizer/safety-dashboard/internal/catalog"
	"github.com/plc-visualizer/safety-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// healthyState returns the default platform with every signal healthy:
// inputs and contactors on, buzzer off, hold-to-run released.
func healthyState(t *testing.T) models.State {
	t.Helper()
	c, err := catalog.LoadProfile(catalog.DefaultProfile)
	require.NoError(t, err)
	return c.State()
}

func setSignal(st *models.State, id string, value bool) {
	for i := range st.Inputs {
		if st.Inputs[i].ID == id {
			st.Inputs[i].CurrentState = value
		}
	}
	for i := range st.Outputs {
		if st.Outputs[i].ID == id {
			st.Outputs[i].CurrentState = value
		}
	}
}

func TestEvaluate_AllHealthy(t *testing.T) {
	s := Evaluate(healthyState(t))

	assert.True(t, s.IsSystemSafe)
	assert.Empty(t, s.FailedConditions)
	// 2 aggregated flags + 5 outputs + 16 inputs
	assert.Len(t, s.Conditions, 23)
}

func TestEvaluate_ConditionOrder(t *testing.T) {
	s := Evaluate(healthyState(t))

	sources := make([]string, 0, len(s.Conditions))
	for _, c := range s.Conditions {
		sources = append(sources, c.Source)
	}
	assert.Equal(t, []string{"online", "plc-connected", "stage-contactor"}, sources[:3])
	assert.Equal(t, "isolation-fault-buzzer", sources[6])
	assert.Equal(t, "e-stop-0", sources[7])
	assert.Equal(t, "isolation-detection-charger-3", sources[len(sources)-1])

	// stable across repeated evaluation
	assert.Equal(t, s, Evaluate(healthyState(t)))
}

func TestEvaluate_DoorInterlockTripped(t *testing.T) {
	st := healthyState(t)
	setSignal(&st, "door-interlock-0", false)

	s := Evaluate(st)
	assert.False(t, s.IsSystemSafe)
	require.Len(t, s.FailedConditions, 1)
	assert.Equal(t, "Door Interlock 0 tripped", s.FailedConditions[0].ErrorMessage)
	assert.True(t, strings.HasSuffix(s.FailedConditions[0].ErrorMessage, "tripped"))
}

func TestEvaluate_BuzzerTriggered(t *testing.T) {
	st := healthyState(t)
	setSignal(&st, "isolation-fault-buzzer", true)

	s := Evaluate(st)
	assert.False(t, s.IsSystemSafe)
	require.Len(t, s.FailedConditions, 1)
	assert.Equal(t, "isolation-fault-buzzer", s.FailedConditions[0].Source)
	assert.Equal(t, "Isolation Fault Buzzer triggered", s.FailedConditions[0].ErrorMessage)
}

func TestEvaluate_InvertedSignals(t *testing.T) {
	for _, state := range []bool{true, false} {
		st := healthyState(t)
		setSignal(&st, "isolation-fault-buzzer", state)
		setSignal(&st, "hold-to-run", state)

		for _, c := range Evaluate(st).Conditions {
			switch c.Source {
			case "isolation-fault-buzzer", "hold-to-run":
				assert.Equal(t, !state, c.Status, c.Source)
			}
		}
	}

	st := healthyState(t)
	setSignal(&st, "hold-to-run", true)
	s := Evaluate(st)
	require.Len(t, s.FailedConditions, 1)
	assert.Equal(t, "Hold To Run active", s.FailedConditions[0].ErrorMessage)
}

func TestEvaluate_FlagConditions(t *testing.T) {
	st := healthyState(t)
	st.Flags[1].Value = false // plc-connected
	st.Flags[2].Value = false // platform-safe, display only

	s := Evaluate(st)
	require.Len(t, s.FailedConditions, 1)
	assert.Equal(t, "Disconnected from PLC", s.FailedConditions[0].ErrorMessage)

	inverted := models.State{Flags: []models.Flag{
		{ID: "timeout", Label: "Communication", Value: false, Inverted: true, Aggregate: true, ErrorMessage: "Communication timeout"},
	}}
	assert.True(t, Evaluate(inverted).IsSystemSafe)
	inverted.Flags[0].Value = true
	assert.False(t, Evaluate(inverted).IsSystemSafe)
}

func TestEvaluate_FixingSignalRemovesOnlyItsCondition(t *testing.T) {
	st := healthyState(t)
	setSignal(&st, "door-interlock-1", false)
	setSignal(&st, "e-stop-0", false)
	setSignal(&st, "pod-contactor", false)

	before := Evaluate(st)
	require.Len(t, before.FailedConditions, 3)

	setSignal(&st, "e-stop-0", true)
	after := Evaluate(st)

	var expected []models.Condition
	for _, c := range before.FailedConditions {
		if c.Source != "e-stop-0" {
			expected = append(expected, c)
		}
	}
	assert.Equal(t, expected, after.FailedConditions)
}

func TestEvaluate_SafeIffAllConditionsPass(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 200; i++ {
		st := healthyState(t)
		for j := range st.Inputs {
			st.Inputs[j].CurrentState = r.Float64() < 0.9
		}
		for j := range st.Outputs {
			st.Outputs[j].CurrentState = r.Float64() < 0.5
		}

		s := Evaluate(st)
		allPass := true
		for _, c := range s.Conditions {
			allPass = allPass && c.Status
		}
		assert.Equal(t, allPass, s.IsSystemSafe)
		assert.Equal(t, len(s.FailedConditions) == 0, s.IsSystemSafe)
	}
}

func TestFaultMessage(t *testing.T) {
	tests := []struct {
		kind models.Kind
		want string
	}{
		{models.KindEStop, "X pressed"},
		{models.KindInterlock, "X tripped"},
		{models.KindSensor, "X triggered"},
		{models.KindProtection, "X tripped"},
		{models.KindDetection, "X triggered"},
		{models.KindHoldToRun, "X active"},
		{models.KindContactor, "X Off"},
		{models.KindAlarm, "X triggered"},
		{models.KindGeneric, "X fault"},
		{"", "X fault"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FaultMessage(tt.kind, "X"))
	}
}

func TestOutputCondition_Messages(t *testing.T) {
	contactor := OutputCondition(models.Signal{ID: "k1", Label: "Main Contactor", CurrentState: false}, false)
	assert.False(t, contactor.Status)
	assert.Equal(t, FaultMessage(models.KindContactor, "Main Contactor"), contactor.ErrorMessage)
	assert.Equal(t, "Main Contactor Off", contactor.ErrorMessage)

	buzzer := OutputCondition(models.Signal{ID: "buzzer", Label: "Buzzer", CurrentState: true}, true)
	assert.False(t, buzzer.Status)
	assert.Equal(t, "Buzzer triggered", buzzer.ErrorMessage)

	custom := OutputCondition(models.Signal{ID: "k2", Label: "K2", ErrorMessage: "K2 dropped out"}, false)
	assert.Equal(t, "K2 dropped out", custom.ErrorMessage)
}

func TestInputCondition_ExplicitMessage(t *testing.T) {
	c := InputCondition(models.Signal{ID: "a", Label: "A", Kind: models.KindSensor, ErrorMessage: "custom"}, false)
	assert.False(t, c.Status)
	assert.Equal(t, "custom", c.ErrorMessage)
}

func TestTopFaults(t *testing.T) {
	st := healthyState(t)
	for _, id := range []string{"e-stop-0", "e-stop-1", "door-interlock-0", "door-interlock-1"} {
		setSignal(&st, id, false)
	}
	s := Evaluate(st)

	top := TopFaults(s, DefaultTopFaults)
	require.Len(t, top, 3)
	assert.Equal(t, "E-Stop 0 pressed", top[0].ErrorMessage)
	assert.Equal(t, "Door Interlock 0 tripped", top[2].ErrorMessage)

	assert.Len(t, TopFaults(s, 10), 4)
	assert.Empty(t, TopFaults(Evaluate(healthyState(t)), DefaultTopFaults))
}

func TestGroupByCategory(t *testing.T) {
	st := healthyState(t)
	groups := GroupByCategory(st.Inputs)

	categories := make([]string, 0, len(groups))
	seen := make(map[string]int)
	total := 0
	for _, g := range groups {
		categories = append(categories, g.Category)
		for _, sig := range g.Signals {
			assert.Equal(t, g.Category, sig.Category)
			seen[sig.ID]++
			total++
		}
	}

	assert.Equal(t, []string{
		"Emergency Systems", "Interlocks", "Environmental Sensors",
		"Control Systems", "Power Protection", "Isolation Detection",
	}, categories)
	assert.Equal(t, len(st.Inputs), total)
	for _, sig := range st.Inputs {
		assert.Equal(t, 1, seen[sig.ID], sig.ID)
	}

	assert.Empty(t, GroupByCategory(nil))
}

func TestGroupByCategory_Interleaved(t *testing.T) {
	groups := GroupByCategory([]models.Signal{
		{ID: "1", Category: "B"},
		{ID: "2", Category: "A"},
		{ID: "3", Category: "B"},
	})
	require.Len(t, groups, 2)
	assert.Equal(t, "B", groups[0].Category)
	assert.Equal(t, "1", groups[0].Signals[0].ID)
	assert.Equal(t, "3", groups[0].Signals[1].ID)
	assert.Equal(t, "A", groups[1].Category)
}

func TestFilterCategory(t *testing.T) {
	st := healthyState(t)
	contactors := FilterCategory(st.Outputs, "Contactors")
	assert.Len(t, contactors, 4)
	assert.Empty(t, FilterCategory(st.Outputs, "Nope"))
}
