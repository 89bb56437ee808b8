package table

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Compare orders a and b by the value at spec.Column.
//
// Values are left-padded with '0' to a common length and compared as
// strings, so numeric-looking columns sort by magnitude. An empty value
// sorts after any non-empty value in both directions; only the non-empty
// comparison is inverted for descending order.
func Compare(a, b Row, spec SortSpec) int {
	v1 := cell(a, spec.Column)
	v2 := cell(b, spec.Column)

	switch {
	case v1 == "" && v2 == "":
		return 0
	case v1 == "":
		return 1
	case v2 == "":
		return -1
	}

	n1 := utf8.RuneCountInString(v1)
	n2 := utf8.RuneCountInString(v2)
	if n1 < n2 {
		v1 = strings.Repeat("0", n2-n1) + v1
	} else if n2 < n1 {
		v2 = strings.Repeat("0", n1-n2) + v2
	}

	c := strings.Compare(v1, v2)
	if !spec.Ascending {
		c = -c
	}
	return c
}

// Sort stably orders body in place by spec.
func Sort(body Body, spec SortSpec) {
	sort.SliceStable(body, func(i, j int) bool {
		return Compare(body[i], body[j], spec) < 0
	})
}

func cell(r Row, column int) string {
	if column < 0 || column >= len(r) {
		return ""
	}
	return r[column]
}
