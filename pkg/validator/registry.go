package validator

import (
	"maps"
	"slices"
	"sync"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Registry maps rule types to validator factories. It is immutable once
// built and safe for concurrent use.
type Registry struct {
	factories map[core.RuleType]Factory
}

// NewRegistry builds a registry from a copy of factories.
func NewRegistry(factories map[core.RuleType]Factory) *Registry {
	return &Registry{factories: maps.Clone(factories)}
}

// Lookup returns the factory for a rule type.
func (r *Registry) Lookup(t core.RuleType) (Factory, bool) {
	f, ok := r.factories[t]
	return f, ok
}

// Types returns the registered rule types, sorted.
func (r *Registry) Types() []core.RuleType {
	return slices.Sorted(maps.Keys(r.factories))
}

// Default returns the registry of built-in validators. cross_field has no
// validator and is reported as unsupported at run time.
var Default = sync.OnceValue(func() *Registry {
	return NewRegistry(map[core.RuleType]Factory{
		core.RuleCompleteness:         NewCompleteness,
		core.RuleReferentialIntegrity: NewReferential,
		core.RuleDuplicates:           NewDuplicates,
		core.RuleUniqueness:           NewUniqueness,
		core.RuleRange:                NewRange,
		core.RuleDateRange:            NewDateRange,
		core.RulePattern:              NewPattern,
		core.RuleOutliers:             NewOutliers,
		core.RuleCustomSQL:            NewCustomSQL,
	})
})
