package task

import (
	"sort"

	"github.com/pkg/errors"
)

// Built-in task definitions. Thresholds are set so that a perfect
// controller qualifies on every episode, including the shortest.
var builtin = map[string]Spec{
	"copy": {
		Name:            "copy",
		Kind:            "copy",
		Base:            5,
		MinLength:       2,
		MaxLength:       6,
		RewardThreshold: 2,
		Trials:          5,
	},
	"reverse": {
		Name:            "reverse",
		Kind:            "reverse",
		Base:            2,
		MinLength:       2,
		MaxLength:       6,
		RewardThreshold: 2,
		Trials:          5,
	},
	"duplicated-input": {
		Name:            "duplicated-input",
		Kind:            "duplicated-input",
		Base:            5,
		MinLength:       2,
		MaxLength:       6,
		RewardThreshold: 2,
		Trials:          5,
	},
	"repeat-copy": {
		Name:            "repeat-copy",
		Kind:            "repeat-copy",
		Base:            5,
		MinLength:       2,
		MaxLength:       6,
		RewardThreshold: 6,
		Trials:          5,
	},
}

// Lookup returns the built-in task with the given name.
func Lookup(name string) (Spec, error) {
	spec, ok := builtin[name]
	if !ok {
		return Spec{}, errors.Errorf("unknown task %q; known tasks: %v", name, Names())
	}
	return spec, nil
}

// Names returns the built-in task names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
