package safety

import "github.com/plc-visualizer/safety-dashboard/internal/models"

var faultSuffix = map[models.Kind]string{
	models.KindEStop:      "pressed",
	models.KindInterlock:  "tripped",
	models.KindSensor:     "triggered",
	models.KindProtection: "tripped",
	models.KindDetection:  "triggered",
	models.KindHoldToRun:  "active",
	models.KindContactor:  "Off",
	models.KindAlarm:      "triggered",
}

// FaultMessage renders the fault text for a failed input of the given kind.
func FaultMessage(kind models.Kind, label string) string {
	if suffix, ok := faultSuffix[kind]; ok {
		return label + " " + suffix
	}
	return label + " fault"
}
