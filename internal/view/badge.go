// Package view maps dashboard data onto presentational models shared by the
// HTML page and the terminal renderer.
package view

// Status is the visual state of a badge.
type Status string

const (
	StatusGood    Status = "good"
	StatusDanger  Status = "danger"
	StatusWarning Status = "warning"
	StatusNeutral Status = "neutral"
)

// Size is a badge size.
type Size string

const (
	SizeSmall  Size = "sm"
	SizeMedium Size = "md"
	SizeLarge  Size = "lg"
)

// StatusStyle holds the glyph and color tokens for one status.
type StatusStyle struct {
	Icon        string
	Glyph       string
	BgColor     string
	TextColor   string
	IconColor   string
	BorderColor string
}

var statusStyles = map[Status]StatusStyle{
	StatusGood: {
		Icon: "check-circle", Glyph: "✔",
		BgColor: "bg-safety-good", TextColor: "text-safety-good-foreground",
		IconColor: "text-safety-good", BorderColor: "border-safety-good/20",
	},
	StatusDanger: {
		Icon: "x-circle", Glyph: "✖",
		BgColor: "bg-safety-danger", TextColor: "text-safety-danger-foreground",
		IconColor: "text-safety-danger", BorderColor: "border-safety-danger/20",
	},
	StatusWarning: {
		Icon: "alert-circle", Glyph: "!",
		BgColor: "bg-safety-warning", TextColor: "text-safety-warning-foreground",
		IconColor: "text-safety-warning", BorderColor: "border-safety-warning/20",
	},
	StatusNeutral: {
		Icon: "clock", Glyph: "◷",
		BgColor: "bg-safety-neutral", TextColor: "text-safety-neutral-foreground",
		IconColor: "text-safety-neutral", BorderColor: "border-safety-neutral/20",
	},
}

var sizeClasses = map[Size]string{
	SizeSmall:  "px-2 py-1 text-xs",
	SizeMedium: "px-3 py-1.5 text-sm",
	SizeLarge:  "px-4 py-2 text-base",
}

var iconSizes = map[Size]string{
	SizeSmall:  "w-3 h-3",
	SizeMedium: "w-4 h-4",
	SizeLarge:  "w-5 h-5",
}

// StyleFor returns the style of a status; unknown values are neutral.
func StyleFor(s Status) StatusStyle {
	if st, ok := statusStyles[s]; ok {
		return st
	}
	return statusStyles[StatusNeutral]
}

// Badge is a rendered status indicator.
type Badge struct {
	Status    Status
	Label     string
	Size      Size
	ShowIcon  bool
	Style     StatusStyle
	SizeClass string
	IconClass string
}

// IconOnly reports whether the badge is a round icon without text.
func (b Badge) IconOnly() bool { return b.Label == "" }

// BadgeFor builds a badge. Unknown sizes fall back to medium.
func BadgeFor(status Status, label string, size Size, showIcon bool) Badge {
	if _, ok := sizeClasses[size]; !ok {
		size = SizeMedium
	}
	style := StyleFor(status)
	if _, ok := statusStyles[status]; !ok {
		status = StatusNeutral
	}
	return Badge{
		Status:    status,
		Label:     label,
		Size:      size,
		ShowIcon:  showIcon,
		Style:     style,
		SizeClass: sizeClasses[size],
		IconClass: iconSizes[size],
	}
}

// StatusOf maps a pass/fail boolean onto good/danger.
func StatusOf(ok bool) Status {
	if ok {
		return StatusGood
	}
	return StatusDanger
}
