package quota

import "time"

// Tier is the access level the connected application holds with the
// provider. Limits differ per tier, so counts accumulated under one tier
// are meaningless under another.
type Tier int

const (
	TierStandard Tier = iota
	TierPartner
)

func (t Tier) String() string {
	switch t {
	case TierStandard:
		return "standard"
	case TierPartner:
		return "partner"
	default:
		return "unknown"
	}
}

// Period identifies one counting window length.
type Period int

const (
	PeriodMinute Period = iota
	PeriodHour
	PeriodDay
)

// periods in checking order, shortest first
var allPeriods = [...]Period{PeriodMinute, PeriodHour, PeriodDay}

func (p Period) Window() time.Duration {
	switch p {
	case PeriodMinute:
		return time.Minute
	case PeriodHour:
		return time.Hour
	case PeriodDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

func (p Period) String() string {
	switch p {
	case PeriodMinute:
		return "minute"
	case PeriodHour:
		return "hour"
	case PeriodDay:
		return "day"
	default:
		return "unknown"
	}
}
