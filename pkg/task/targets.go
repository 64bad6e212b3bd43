package task

import "sort"

// targetFunc derives the required output sequence from an input
// strip.
type targetFunc func(input []int) []int

var targets = map[string]targetFunc{
	"copy":             targetCopy,
	"reverse":          targetReverse,
	"duplicated-input": targetDedup,
	"repeat-copy":      targetRepeatCopy,
}

// Kinds returns the known target function names, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(targets))
	for k := range targets {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func targetCopy(input []int) []int {
	out := make([]int, len(input))
	copy(out, input)
	return out
}

func targetReverse(input []int) []int {
	out := make([]int, len(input))
	for i, c := range input {
		out[len(input)-1-i] = c
	}
	return out
}

// targetDedup expects an input of doubled symbols ("aabbcc") and
// requires the underlying sequence ("abc"); the tape environment
// generates inputs of that shape for this kind.
func targetDedup(input []int) []int {
	out := make([]int, 0, (len(input)+1)/2)
	for i := 0; i < len(input); i += 2 {
		out = append(out, input[i])
	}
	return out
}

func targetRepeatCopy(input []int) []int {
	out := make([]int, 0, 3*len(input))
	out = append(out, input...)
	out = append(out, targetReverse(input)...)
	out = append(out, input...)
	return out
}
