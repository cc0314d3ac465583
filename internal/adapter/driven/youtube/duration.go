package youtube

import "math"

// ParseDuration converts an ISO-8601 duration as used by the YouTube API
// ("PT4M13S", "P1DT2H") to milliseconds. Digits accumulate until a unit
// letter flushes them. Days are accepted before the T designator; hours,
// minutes, and seconds after it.
func ParseDuration(s string) (int64, error) {
	const op = "youtube.ParseDuration"

	if len(s) == 0 || s[0] != 'P' {
		return 0, parseErr(op, "duration %q must start with P", s)
	}

	var (
		total  int64
		n      int64
		digits int
		inTime bool
	)
	for _, r := range s[1:] {
		if r >= '0' && r <= '9' {
			d := int64(r - '0')
			if n > (math.MaxInt64-d)/10 {
				return 0, parseErr(op, "number overflows in duration %q", s)
			}
			n = n*10 + d
			digits++
			continue
		}

		if r == 'T' {
			if inTime || digits > 0 {
				return 0, parseErr(op, "unexpected T in duration %q", s)
			}
			inTime = true
			continue
		}

		if digits == 0 {
			return 0, parseErr(op, "missing number before %q in duration %q", r, s)
		}
		unit, ok := unitMillis(r, inTime)
		if !ok {
			return 0, parseErr(op, "unsupported unit %q in duration %q", r, s)
		}
		if n > (math.MaxInt64-total)/unit {
			return 0, parseErr(op, "duration %q overflows", s)
		}
		total += n * unit
		n, digits = 0, 0
	}

	if digits > 0 {
		return 0, parseErr(op, "trailing number without unit in duration %q", s)
	}
	return total, nil
}

func unitMillis(r rune, inTime bool) (int64, bool) {
	if !inTime {
		if r == 'D' {
			return 24 * 60 * 60 * 1000, true
		}
		return 0, false
	}
	switch r {
	case 'H':
		return 60 * 60 * 1000, true
	case 'M':
		return 60 * 1000, true
	case 'S':
		return 1000, true
	default:
		return 0, false
	}
}
