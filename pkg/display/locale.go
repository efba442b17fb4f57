package display

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	ErrNotNumeric  = errors.New("state is not numeric")
	ErrEmptyFormat = errors.New("host formatter returned an empty string")
)

// LocaleFormatter formats numeric states with the digit grouping and
// decimal separator of a locale and appends the unit after a space.
type LocaleFormatter struct {
	printer *message.Printer
}

func NewLocaleFormatter(locale string) (*LocaleFormatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, err
	}
	return &LocaleFormatter{
		printer: message.NewPrinter(tag),
	}, nil
}

func (l *LocaleFormatter) FormatState(reading Reading) (string, error) {
	value, ok := ParseFinite(reading.State)
	if !ok {
		return "", ErrNotNumeric
	}

	scale := fractionDigits(reading.State, value)
	if reading.Precision != nil && *reading.Precision >= 0 && *reading.Precision <= maxPrecision {
		scale = *reading.Precision
	}

	formatted := l.printer.Sprint(number.Decimal(value, number.Scale(scale)))
	if reading.Unit == "" {
		return formatted, nil
	}
	return formatted + " " + reading.Unit, nil
}

// fractionDigits keeps the number of decimals the state was reported with.
// Exponent notation counts the decimals of the shortest plain form.
func fractionDigits(state string, value float64) int {
	trimmed := strings.TrimSpace(state)
	if strings.ContainsAny(trimmed, "eE") {
		trimmed = strconv.FormatFloat(value, 'f', -1, 64)
	}
	dot := strings.IndexByte(trimmed, '.')
	if dot < 0 {
		return 0
	}
	return min(len(trimmed)-dot-1, maxPrecision)
}
