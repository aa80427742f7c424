package source

import "sort"

// SortNatural sorts strings so that embedded digit runs compare as
// integers: frame2.jpg sorts before frame10.jpg. Digit runs are compared
// by value (leading zeros ignored), with the shorter original run winning
// ties so the order is total.
func SortNatural(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return compareNatural(names[i], names[j]) < 0
	})
}

func compareNatural(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			// Collect both digit runs.
			ia := i
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			jb := j
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			if c := compareDigitRuns(a[ia:i], b[jb:j]); c != 0 {
				return c
			}
			continue
		}
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(a)-i < len(b)-j:
		return -1
	case len(a)-i > len(b)-j:
		return 1
	}
	return 0
}

// compareDigitRuns compares two digit strings numerically without
// converting to integers, so arbitrarily long runs cannot overflow.
func compareDigitRuns(a, b string) int {
	ta := trimLeadingZeros(a)
	tb := trimLeadingZeros(b)
	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	if ta != tb {
		if ta < tb {
			return -1
		}
		return 1
	}
	// Equal values: fewer leading zeros sorts first.
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return 0
}

func trimLeadingZeros(s string) string {
	k := 0
	for k < len(s)-1 && s[k] == '0' {
		k++
	}
	return s[k:]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
