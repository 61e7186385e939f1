package native

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Rule validates and formats the values of the keys bound to it.
type Rule interface {
	// Name is the name used to bind the rule in a Table.
	Name() string
	// Validate returns an error describing why value can not be stored.
	Validate(value string) error
	// Format returns the display form of a stored value.
	Format(value string) (string, error)
}

// builtin holds all rules that can be referenced from a rule table.
var builtin = map[string]Rule{
	cpfRule{}.Name():  cpfRule{},
	dateRule{}.Name(): dateRule{},
}

// Lookup returns the built-in rule with the given name.
func Lookup(name string) (Rule, bool) {
	r, ok := builtin[strings.ToLower(name)]
	return r, ok
}

// --------------------------------------------------------------------------
// CPF (brazilian national ID)
// --------------------------------------------------------------------------

var (
	errCPFLength   = errors.New("CPF must have exactly 11 digits")
	errCPFRepeated = errors.New("CPF must not consist of a single repeated digit")
	errCPFChecksum = errors.New("CPF check digits do not match")
)

type cpfRule struct{}

func (cpfRule) Name() string { return "cpf" }

// Validate accepts 11 digits, optionally punctuated as ddd.ddd.ddd-dd.
func (cpfRule) Validate(value string) error {
	_, err := cpfDigits(value)
	return err
}

func (cpfRule) Format(value string) (string, error) {
	d, err := cpfDigits(value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%s.%s-%s", d[0:3], d[3:6], d[6:9], d[9:11]), nil
}

// cpfDigits strips the punctuation from value and checks both check digits.
func cpfDigits(value string) (string, error) {
	digits := make([]byte, 0, 11)
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= '0' && c <= '9':
			digits = append(digits, c)
		case c == '.' || c == '-':
		default:
			return "", fmt.Errorf("CPF contains invalid character %q", c)
		}
	}
	if len(digits) != 11 {
		return "", errCPFLength
	}

	repeated := true
	for _, c := range digits[1:] {
		if c != digits[0] {
			repeated = false
			break
		}
	}
	if repeated {
		return "", errCPFRepeated
	}

	if cpfCheckDigit(digits[:9]) != digits[9] || cpfCheckDigit(digits[:10]) != digits[10] {
		return "", errCPFChecksum
	}
	return string(digits), nil
}

// cpfCheckDigit computes the mod 11 check digit over the given digits
// with weights len+1 down to 2.
func cpfCheckDigit(digits []byte) byte {
	sum := 0
	weight := len(digits) + 1
	for _, c := range digits {
		sum += int(c-'0') * weight
		weight--
	}
	rest := sum % 11
	if rest < 2 {
		return '0'
	}
	return byte('0' + 11 - rest)
}

// --------------------------------------------------------------------------
// Calendar date
// --------------------------------------------------------------------------

const (
	dateLayout        = "2006-01-02"
	dateDisplayLayout = "02/01/2006"
)

type dateRule struct{}

func (dateRule) Name() string { return "date" }

// Validate accepts ISO dates (YYYY-MM-DD) that exist in the calendar.
func (dateRule) Validate(value string) error {
	_, err := parseDate(value)
	return err
}

func (dateRule) Format(value string) (string, error) {
	t, err := parseDate(value)
	if err != nil {
		return "", err
	}
	return t.Format(dateDisplayLayout), nil
}

func parseDate(value string) (time.Time, error) {
	if len(value) != len(dateLayout) {
		return time.Time{}, fmt.Errorf("date %q must have the format YYYY-MM-DD", value)
	}
	// time.Parse rejects days outside of the month (e.g. 2000-02-30)
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	return t, nil
}
