package compare

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultMoneyFormat is used when a shop has no money format configured.
const DefaultMoneyFormat = "${{amount}}"

var placeholderRe = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// FormatMoney renders an amount in minor units using a shop money format
// such as "${{amount}}" or "{{amount_with_comma_separator}} €".
func FormatMoney(cents int64, format string) string {
	if format == "" {
		format = DefaultMoneyFormat
	}

	loc := placeholderRe.FindStringSubmatchIndex(format)
	if loc == nil {
		return format
	}

	var value string
	switch format[loc[2]:loc[3]] {
	case "amount_no_decimals":
		value = withDelimiters(cents, 0, ",", ".")
	case "amount_with_comma_separator":
		value = withDelimiters(cents, 2, ".", ",")
	case "amount_no_decimals_with_comma_separator":
		value = withDelimiters(cents, 0, ".", ",")
	case "amount_with_space_separator":
		value = withDelimiters(cents, 2, " ", ",")
	case "amount_no_decimals_with_space_separator":
		value = withDelimiters(cents, 0, " ", ",")
	case "amount_with_period_and_space_separator":
		value = withDelimiters(cents, 2, " ", ".")
	case "amount_with_apostrophe_separator":
		value = withDelimiters(cents, 2, "'", ".")
	default:
		// "amount" and any placeholder this shop format does not know.
		value = withDelimiters(cents, 2, ",", ".")
	}

	return format[:loc[0]] + value + format[loc[1]:]
}

// withDelimiters formats cents with 0 or 2 decimals, rounding half away from zero.
func withDelimiters(cents int64, precision int, thousands, decimal string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	var whole, frac int64
	if precision == 0 {
		whole = (cents + 50) / 100 //nolint:mnd // minor units
	} else {
		whole, frac = cents/100, cents%100 //nolint:mnd // minor units
	}

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	b.WriteString(sign)
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteString(thousands)
		}
		b.WriteRune(r)
	}

	if precision > 0 {
		b.WriteString(decimal)
		if frac < 10 { //nolint:mnd // zero pad
			b.WriteByte('0')
		}
		b.WriteString(strconv.FormatInt(frac, 10))
	}

	return b.String()
}
