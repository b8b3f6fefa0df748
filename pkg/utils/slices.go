package utils

import (
	"fmt"
	"slices"
	"strings"
)

func SliceAppendUnique[S ~[]E, E comparable](s S, v E) S {
	if slices.Contains(s, v) {
		return s
	}
	s = append(s, v)
	return s
}

func SliceString[S ~[]E, E any](s S) string {
	ss := make([]string, 0, len(s))
	for _, v := range s {
		ss = append(ss, fmt.Sprint(v))
	}
	return strings.Join(ss, ",")
}
