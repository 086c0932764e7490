package view

// Row is one pass/fail line of the dashboard.
type Row struct {
	Label       string
	Status      bool
	ShowDetails bool
	Icon        string
	Pill        string // "OK"/"FAULT", empty without details
	Detail      string // error text, only for failed rows with details
}

// RowFor builds a condition row.
func RowFor(label string, status, showDetails bool, errorMessage string) Row {
	r := Row{
		Label:       label,
		Status:      status,
		ShowDetails: showDetails,
		Icon:        StyleFor(StatusOf(status)).Icon,
	}
	if !showDetails {
		return r
	}
	r.Pill = "OK"
	if !status {
		r.Pill = "FAULT"
		r.Detail = errorMessage
	}
	return r
}

// Tone returns the status token used for coloring the row.
func (r Row) Tone() Status { return StatusOf(r.Status) }
