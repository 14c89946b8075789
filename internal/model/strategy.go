package model

import "github.com/rotisserie/eris"

// DuplicateStrategy controls how an import handles a record whose vernr
// already exists in the cost collection.
type DuplicateStrategy string

const (
	// StrategyKeep always mints a new identity; duplicates accumulate.
	StrategyKeep DuplicateStrategy = "keep"
	// StrategySkip drops incoming records whose vernr already exists.
	StrategySkip DuplicateStrategy = "skip"
	// StrategyReplace overwrites the existing record, reusing its identity.
	StrategyReplace DuplicateStrategy = "replace"
)

// ParseDuplicateStrategy validates a strategy string. Empty input yields
// the default StrategyKeep.
func ParseDuplicateStrategy(s string) (DuplicateStrategy, error) {
	switch DuplicateStrategy(s) {
	case "":
		return StrategyKeep, nil
	case StrategyKeep, StrategySkip, StrategyReplace:
		return DuplicateStrategy(s), nil
	default:
		return "", eris.Errorf("model: unknown duplicate strategy %q", s)
	}
}
