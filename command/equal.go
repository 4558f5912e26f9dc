package command

// Equal compares two argument vectors. With orderSignificant the vectors must
// match position for position; otherwise they are compared as multisets.
// Two nil vectors are equal; a nil vector never equals a non-nil one, even an
// empty one.
func Equal(a, b []string, orderSignificant bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if len(a) != len(b) {
		return false
	}

	if orderSignificant {
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}

	counts := make(map[string]int, len(a))
	for _, s := range a {
		counts[s]++
	}
	for _, s := range b {
		counts[s]--
		if counts[s] < 0 {
			return false
		}
	}
	return true
}
