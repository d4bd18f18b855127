package leveling

import "time"

// MonthsBetween returns the number of whole calendar months from dob to now.
// A month only counts once now's day-of-month has reached dob's.
func MonthsBetween(dob, now time.Time) int {
	months := (now.Year()-dob.Year())*12 + int(now.Month()) - int(dob.Month())
	if now.Day() < dob.Day() {
		months--
	}
	return months
}

// YearsBetween returns the number of whole years from dob to now, counting a
// year only once the anniversary has occurred.
func YearsBetween(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	hadBirthday := now.Month() > dob.Month() || (now.Month() == dob.Month() && now.Day() >= dob.Day())
	if !hadBirthday {
		years--
	}
	return years
}

// Bracket is the age band that decides which level finder questions apply
type Bracket int

const (
	BracketUnknown Bracket = iota
	BracketTooYoung
	BracketInfant
	BracketToddler
	BracketChild
	BracketAdult
)

func (b Bracket) String() string {
	switch b {
	case BracketTooYoung:
		return "too_young"
	case BracketInfant:
		return "infant"
	case BracketToddler:
		return "toddler"
	case BracketChild:
		return "child"
	case BracketAdult:
		return "adult"
	}
	return "unknown"
}

// Age band limits in months and years
const (
	MinMonths       = 4
	ToddlerMonths   = 24
	MaxToddlerMonth = 36
	AdultYears      = 16
)

// AgeBracket classifies a birthday against now. A nil birthday is BracketUnknown.
func AgeBracket(dob *time.Time, now time.Time) Bracket {
	if dob == nil {
		return BracketUnknown
	}
	months := MonthsBetween(*dob, now)
	switch {
	case months < MinMonths:
		return BracketTooYoung
	case months < ToddlerMonths:
		return BracketInfant
	case months <= MaxToddlerMonth:
		return BracketToddler
	case YearsBetween(*dob, now) >= AdultYears:
		return BracketAdult
	}
	return BracketChild
}
