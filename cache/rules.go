package cache

import (
	"context"
	"errors"
	"fmt"
)

// RuleKind selects what a Rule does.
type RuleKind int

const (
	// RuleInvalidate marks entries under Key stale.
	RuleInvalidate RuleKind = iota
	// RuleSet writes Value to Key directly.
	RuleSet
	// RuleRemove deletes entries under Key.
	RuleRemove
)

func (k RuleKind) String() string {
	switch k {
	case RuleInvalidate:
		return "invalidate"
	case RuleSet:
		return "set"
	case RuleRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// ErrUnknownRule is returned by Apply for a RuleKind it does not know.
var ErrUnknownRule = errors.New("cache: unknown rule kind")

// Rule is one cache update run after a successful write.
type Rule struct {
	Kind  RuleKind
	Key   Key
	Value any
}

// Invalidate returns a rule marking every entry under prefix stale.
func Invalidate(prefix Key) Rule {
	return Rule{Kind: RuleInvalidate, Key: prefix}
}

// Set returns a rule storing value under key.
func Set(key Key, value any) Rule {
	return Rule{Kind: RuleSet, Key: key, Value: value}
}

// Remove returns a rule deleting every entry under prefix.
func Remove(prefix Key) Rule {
	return Rule{Kind: RuleRemove, Key: prefix}
}

func (r Rule) String() string {
	return r.Kind.String() + " " + r.Key.String()
}

// Apply runs rules in order. Each rule is applied on its own; a failing rule
// does not stop the ones after it. The failures are joined.
func (s *Store) Apply(ctx context.Context, rules ...Rule) error {
	var errs []error
	for i, r := range rules {
		switch r.Kind {
		case RuleInvalidate:
			s.Invalidate(ctx, r.Key)
		case RuleRemove:
			s.Remove(ctx, r.Key)
		case RuleSet:
			if err := s.Set(ctx, r.Key, r.Value); err != nil {
				errs = append(errs, fmt.Errorf("rule %d (%s): %w", i, r, err))
			}
		default:
			errs = append(errs, fmt.Errorf("rule %d: %w: %d", i, ErrUnknownRule, r.Kind))
		}
	}
	return errors.Join(errs...)
}
