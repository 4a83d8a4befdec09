package render

import "github.com/darshan-rambhia/naspanel/internal/model"

// Utilization thresholds. A value must exceed the bound to enter the tier.
const (
	WarningAbove = 60.0
	DangerAbove  = 80.0
)

// Severity is the tier a utilization value falls into.
type Severity int

const (
	SeveritySuccess Severity = iota
	SeverityWarning
	SeverityDanger
)

func (s Severity) String() string {
	switch s {
	case SeverityDanger:
		return "danger"
	case SeverityWarning:
		return "warning"
	default:
		return "success"
	}
}

// Tier pairs a severity with the color used to draw it.
type Tier struct {
	Severity Severity
	Color    model.Color
}

// Classify maps a utilization percentage to its tier. Danger is checked
// first, so 80 is Warning and 60 is Success.
func Classify(pct float64) Tier {
	switch {
	case pct > DangerAbove:
		return Tier{Severity: SeverityDanger, Color: model.ColorDanger}
	case pct > WarningAbove:
		return Tier{Severity: SeverityWarning, Color: model.ColorWarning}
	default:
		return Tier{Severity: SeveritySuccess, Color: model.ColorSuccess}
	}
}

// DiskColor returns the indicator color for a disk slot.
func DiskColor(s model.DiskStatus) model.Color {
	switch s {
	case model.DiskError:
		return model.ColorDanger
	case model.DiskWarning:
		return model.ColorWarning
	default:
		return model.ColorSuccess
	}
}
