package plural

import "strconv"

func Slice[S ~[]E, E any](s S, suffix string) string {
	return Int(len(s), suffix)
}

func Int(n int, suffix string) string {
	if n == 1 {
		return ""
	}
	return suffix
}

// Of returns n followed by word, pluralized with an "s" unless n is 1.
func Of(n int, word string) string {
	return strconv.Itoa(n) + " " + word + Int(n, "s")
}
