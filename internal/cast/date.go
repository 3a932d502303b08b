package cast

import (
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// DefaultDateFormat is the format used when none is configured.
const DefaultDateFormat = "Y-m-d H:i:s"

// phpTokens maps PHP date() format characters to Go layout fragments.
var phpTokens = map[rune]string{
	'd': "02",
	'D': "Mon",
	'j': "2",
	'l': "Monday",
	'F': "January",
	'm': "01",
	'M': "Jan",
	'n': "1",
	'Y': "2006",
	'y': "06",
	'a': "pm",
	'A': "PM",
	'g': "3",
	'h': "03",
	'H': "15",
	'i': "04",
	's': "05",
	'u': "000000",
	'v': "000",
	'e': "MST",
	'T': "MST",
	'P': "-07:00",
	'O': "-0700",
	'c': time.RFC3339,
	'r': time.RFC1123Z,
}

// phpUnsupported lists PHP tokens with no Go layout equivalent.
const phpUnsupported = "NSzWtLoGBIZU"

// Date casts between time.Time on the model side and formatted strings on
// the data side. Formats use PHP date() tokens ("Y-m-d") unless they
// contain '%', in which case they are strftime formats ("%Y-%m-%d").
type Date struct {
	format   string
	layout   string
	strftime bool
	dayOnly  bool
}

// NewDate builds a date caster. When dayOnly is set decoded values are
// truncated to midnight.
func NewDate(format string, dayOnly bool) (*Date, error) {
	if format == "" {
		format = DefaultDateFormat
	}

	d := &Date{format: format, dayOnly: dayOnly}

	if strings.ContainsRune(format, '%') {
		d.strftime = true
		return d, nil
	}

	layout, err := PHPLayout(format)
	if err != nil {
		return nil, err
	}

	d.layout = layout

	return d, nil
}

// Format returns the declared format string.
func (d *Date) Format() string {
	return d.format
}

// Decode parses strings, accepts time values and unix seconds.
func (d *Date) Decode(value any) (any, error) {
	var t time.Time

	switch v := value.(type) {
	case time.Time:
		t = v
	case *time.Time:
		t = *v
	case string:
		if v == "" {
			return nil, nil
		}

		parsed, err := d.parse(v)
		if err != nil {
			return nil, err
		}

		t = parsed
	case int:
		t = time.Unix(int64(v), 0).UTC()
	case int64:
		t = time.Unix(v, 0).UTC()
	case float64:
		t = time.Unix(int64(v), 0).UTC()
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}

	if d.dayOnly {
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}

	return t, nil
}

// Encode renders time values with the format; strings are already rendered.
func (d *Date) Encode(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return d.render(v), nil
	case *time.Time:
		return d.render(*v), nil
	case string:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}

func (d *Date) render(t time.Time) string {
	if d.strftime {
		return strftime.Format(d.format, t)
	}

	return t.Format(d.layout)
}

func (d *Date) parse(s string) (time.Time, error) {
	if d.strftime {
		return strftime.Parse(d.format, s)
	}

	return time.Parse(d.layout, s)
}

// layoutProbe differs from the Go reference time in every layout element.
var layoutProbe = time.Date(1999, time.November, 28, 1, 47, 38, 123456789, time.FixedZone("XYZ", 9*3600+1800))

// literalMask stands in for literal characters when checking a layout.
const literalMask = '\uE000'

type layoutPiece struct {
	text    string
	literal bool
}

// PHPLayout translates a PHP date() format into a Go time layout.
// A backslash escapes the next character. Literal text that Go would read
// as part of a layout element ("1", "Jan", "Mon") is rejected.
func PHPLayout(format string) (string, error) {
	var pieces []layoutPiece

	escaped := false

	for _, r := range format {
		frag, token := phpTokens[r]

		switch {
		case escaped:
			token = false
			escaped = false
		case r == '\\':
			escaped = true
			continue
		case strings.ContainsRune(phpUnsupported, r):
			return "", fmt.Errorf("%w %q in %q", ErrUnsupportedFormat, r, format)
		}

		if !token {
			pieces = append(pieces, layoutPiece{text: string(r), literal: true})
			continue
		}

		// Go reads fractional seconds only after a separator.
		if (r == 'u' || r == 'v') && len(pieces) > 0 {
			if last := &pieces[len(pieces)-1]; last.text == "." || last.text == "," {
				last.literal = false
			}
		}

		pieces = append(pieces, layoutPiece{text: frag})
	}

	layout, err := checkLiterals(pieces)
	if err != nil {
		return "", fmt.Errorf("%w in %q", err, format)
	}

	return layout, nil
}

// checkLiterals joins pieces into a layout and verifies that every literal
// formats as itself: masking the literals must not change the output.
func checkLiterals(pieces []layoutPiece) (string, error) {
	var (
		layout, masked strings.Builder
		literals       []rune
	)

	for _, p := range pieces {
		layout.WriteString(p.text)

		if p.literal {
			masked.WriteRune(literalMask)
			literals = append(literals, []rune(p.text)...)
		} else {
			masked.WriteString(p.text)
		}
	}

	i := 0
	restored := strings.Map(func(r rune) rune {
		if r == literalMask && i < len(literals) {
			r = literals[i]
			i++
		}

		return r
	}, layoutProbe.Format(masked.String()))

	if layoutProbe.Format(layout.String()) != restored {
		return "", fmt.Errorf("%w: literal text reads as a layout element", ErrUnsupportedFormat)
	}

	return layout.String(), nil
}
