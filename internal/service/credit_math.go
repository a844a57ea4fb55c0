package service

const (
	theoryHoursPerCredit    = 15.0
	practicalHoursPerCredit = 30.0

	// creditEpsilon absorbs float drift when comparing credit amounts.
	creditEpsilon = 1e-9
)

// CreditBreakdown is the credit value of a course split by hour type.
type CreditBreakdown struct {
	Theory    float64 `json:"theory"`
	Practical float64 `json:"practical"`
	Total     float64 `json:"total"`
}

// CalculateCredits converts study hours into credits. Values are never rounded.
func CalculateCredits(theoryHours, practicalHours float64) CreditBreakdown {
	theory := theoryHours / theoryHoursPerCredit
	practical := practicalHours / practicalHoursPerCredit
	return CreditBreakdown{Theory: theory, Practical: practical, Total: theory + practical}
}

// creditsCover reports whether balance satisfies required within tolerance.
func creditsCover(balance, required float64) bool {
	return balance+creditEpsilon >= required
}

// deductCredits subtracts amount from balance, flooring float dust at zero.
// ok is false when the result is genuinely negative.
func deductCredits(balance, amount float64) (float64, bool) {
	result := balance - amount
	if result < -creditEpsilon {
		return result, false
	}
	if result < 0 {
		result = 0
	}
	return result, true
}
