package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses an SVD scaledNonNegativeInteger value.
// Supported are hexadecimal (0x prefix), binary (# prefix) and decimal
// values with an optional k, m, g or t scale suffix. A leading zero does not
// indicate an octal value.
func ParseNumber(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidNumber)
	}

	base := 10
	digits := s
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		base = 16
		digits = s[2:]
	case strings.HasPrefix(s, "#"):
		base = 2
		digits = s[1:]
	}

	var shift uint
	if base != 16 && len(digits) > 1 {
		shift = scaleShift(digits[len(digits)-1])
		if shift > 0 {
			digits = digits[:len(digits)-1]
		}
	}

	value, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: '%s'", ErrInvalidNumber, s)
	}
	if shift > 0 && value > math.MaxUint64>>shift {
		return 0, fmt.Errorf("%w: '%s' overflows", ErrInvalidNumber, s)
	}
	return value << shift, nil
}

// parseSigned parses an interrupt index, which unlike the other numbers of
// the document may be negative for core exceptions.
func parseSigned(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		value, err := ParseNumber(rest)
		if err != nil {
			return 0, err
		}
		if value > math.MaxInt64 {
			return 0, fmt.Errorf("%w: '%s' overflows", ErrInvalidNumber, s)
		}
		return -int64(value), nil
	}

	value, err := ParseNumber(s)
	if err != nil {
		return 0, err
	}
	if value > math.MaxInt64 {
		return 0, fmt.Errorf("%w: '%s' overflows", ErrInvalidNumber, s)
	}
	return int64(value), nil
}

func scaleShift(suffix byte) uint {
	switch suffix {
	case 'k', 'K':
		return 10
	case 'm', 'M':
		return 20
	case 'g', 'G':
		return 30
	case 't', 'T':
		return 40
	default:
		return 0
	}
}
