package shared

// PeriodStatus is the fiscal period lifecycle state. Transitions are
// one-directional: open -> locked -> closed.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "open"
	PeriodLocked PeriodStatus = "locked"
	PeriodClosed PeriodStatus = "closed"
)

// YearStatus is the fiscal year lifecycle state.
type YearStatus string

const (
	YearOpen   YearStatus = "open"
	YearClosed YearStatus = "closed"
)
