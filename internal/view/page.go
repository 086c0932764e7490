package view

import (
	"slices"

	"github.com/plc-visualizer/safety-dashboard/internal/models"
	"github.com/plc-visualizer/safety-dashboard/internal/safety"
)

// OnlineFlagID is the flag shown as the Online/Offline header badge.
const OnlineFlagID = "online"

// Card is one category panel of detailed rows.
type Card struct {
	Category string
	Rows     []Row
}

// Page is everything the dashboard renders.
type Page struct {
	Title         string
	Subtitle      string
	Version       uint64
	Safe          bool
	SafeBadge     Badge
	OnlineBadge   *Badge
	CoreRows      []Row
	ContactorRows []Row
	Faults        []string
	FaultTotal    int
	Cards         []Card
}

// BuildPage maps a snapshot onto the dashboard layout.
func BuildPage(title, subtitle string, snap models.Snapshot) Page {
	st := snap.State
	p := Page{
		Title:      title,
		Subtitle:   subtitle,
		Version:    snap.Version,
		Safe:       snap.Summary.IsSystemSafe,
		FaultTotal: len(snap.Summary.FailedConditions),
	}

	safeLabel := "System Fault"
	if p.Safe {
		safeLabel = "System Safe"
	}
	p.SafeBadge = BadgeFor(StatusOf(p.Safe), safeLabel, SizeMedium, true)

	for _, f := range st.Flags {
		p.CoreRows = append(p.CoreRows, RowFor(f.Label, f.Healthy(), false, f.ErrorMessage))
		if f.ID == OnlineFlagID {
			label := "Offline"
			if f.Healthy() {
				label = "Online"
			}
			b := BadgeFor(StatusOf(f.Healthy()), label, SizeSmall, false)
			p.OnlineBadge = &b
		}
	}

	var alarms []Row
	for _, sig := range st.Outputs {
		isAlarm := slices.Contains(st.Alarms, sig.ID)
		c := safety.OutputCondition(sig, isAlarm)
		row := RowFor(c.Label, c.Status, false, c.ErrorMessage)
		if isAlarm {
			alarms = append(alarms, row)
			continue
		}
		p.ContactorRows = append(p.ContactorRows, row)
	}
	p.ContactorRows = append(p.ContactorRows, alarms...)

	for _, c := range safety.TopFaults(snap.Summary, safety.DefaultTopFaults) {
		p.Faults = append(p.Faults, c.ErrorMessage)
	}

	for _, g := range snap.Groups {
		card := Card{Category: g.Category}
		for _, sig := range g.Signals {
			c := safety.InputCondition(sig, slices.Contains(st.ActiveLow, sig.ID))
			card.Rows = append(card.Rows, RowFor(c.Label, c.Status, true, c.ErrorMessage))
		}
		p.Cards = append(p.Cards, card)
	}

	return p
}
