package catalog

import (
	"strings"

	"github.com/plc-visualizer/safety-dashboard/internal/models"
)

var knownKinds = map[models.Kind]struct{}{
	models.KindEStop:      {},
	models.KindInterlock:  {},
	models.KindSensor:     {},
	models.KindProtection: {},
	models.KindDetection:  {},
	models.KindHoldToRun:  {},
	models.KindContactor:  {},
	models.KindAlarm:      {},
	models.KindGeneric:    {},
}

// labelRules is evaluated in order; the first match wins.
var labelRules = []struct {
	substr string
	kind   models.Kind
}{
	{"E-Stop", models.KindEStop},
	{"Interlock", models.KindInterlock},
	{"Sensor", models.KindSensor},
	{"Protection", models.KindProtection},
	{"Detection", models.KindDetection},
}

// InferKind derives a kind from a display label for catalogs that do not
// declare one. It only runs at load time.
func InferKind(label string) models.Kind {
	for _, r := range labelRules {
		if strings.Contains(label, r.substr) {
			return r.kind
		}
	}
	return models.KindGeneric
}
