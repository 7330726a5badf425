package common

// First returns the leading element of s, if any.
func First[S ~[]E, E any](s S) (first E, ok bool) {
	if ok = len(s) > 0; ok {
		first = s[0]
	}

	return first, ok
}
