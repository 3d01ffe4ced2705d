package session

import "unicode"

// Strength is the result of evaluating a candidate password: a 0-5
// score plus the labels of the unmet requirements. It feeds signup-form
// feedback only; the backend applies its own policy.
type Strength struct {
	Score    int
	Feedback []string
}

// CheckPasswordStrength scores pwd against five independent checks:
// length >= 8, an uppercase letter, a lowercase letter, a digit, and a
// symbol. Each satisfied check adds one point.
func CheckPasswordStrength(pwd string) Strength {
	var s Strength

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range pwd {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	check := func(ok bool, label string) {
		if ok {
			s.Score++
		} else {
			s.Feedback = append(s.Feedback, label)
		}
	}
	check(len(pwd) >= 8, "At least 8 characters")
	check(hasUpper, "One uppercase letter")
	check(hasLower, "One lowercase letter")
	check(hasDigit, "One number")
	check(hasSymbol, "One special character")

	return s
}
