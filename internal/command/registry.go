package command

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Factory builds a fresh command instance for one resolution.
type Factory func() (Command, error)

// Catalog is the lookup capability the Resolver consumes.
type Catalog interface {
	// Lookup builds the command registered under (group, name).
	// It returns ErrNotRegistered for unknown keys and a *ConstructionError
	// when the factory fails.
	Lookup(group, name string) (Command, Descriptor, error)

	// List returns the descriptors registered in a group, sorted by name.
	List(group string) []Descriptor
}

type registration struct {
	desc    Descriptor
	factory Factory
}

// Registry maps (group, name) keys to command factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]map[string]*registration // group -> name -> registration
	aliases map[string]map[string]string        // group -> alias -> name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]map[string]*registration),
		aliases: make(map[string]map[string]string),
	}
}

// Register adds a command. A command already registered under the same
// group and name is replaced.
func (r *Registry) Register(desc Descriptor, factory Factory) error {
	if desc.Group == "" {
		return &ArgumentError{Arg: "group", Message: "cannot be empty"}
	}
	if desc.Name == "" {
		return &ArgumentError{Arg: "name", Message: "cannot be empty"}
	}
	if factory == nil {
		return &ArgumentError{Arg: "factory", Message: "cannot be nil"}
	}

	params := make([]Parameter, len(desc.Params))
	optionalSeen := false
	for i, p := range desc.Params {
		if p.Name == "" {
			return fmt.Errorf("%s.%s: parameter %d has no name", desc.Group, desc.Name, i)
		}
		if p.Convert == nil || p.Set == nil {
			return fmt.Errorf("%s.%s: parameter %q needs a converter and a setter", desc.Group, desc.Name, p.Name)
		}
		if p.Required && optionalSeen {
			return fmt.Errorf("%s.%s: required parameter %q follows an optional one", desc.Group, desc.Name, p.Name)
		}
		optionalSeen = optionalSeen || !p.Required
		p.Index = i
		params[i] = p
	}
	desc.Params = params

	r.mu.Lock()
	defer r.mu.Unlock()

	group := r.entries[desc.Group]
	if group == nil {
		group = make(map[string]*registration)
		r.entries[desc.Group] = group
	}
	if old, ok := group[desc.Name]; ok {
		r.dropAliasesLocked(old.desc)
	}
	group[desc.Name] = &registration{desc: desc, factory: factory}

	if len(desc.Aliases) > 0 {
		aliases := r.aliases[desc.Group]
		if aliases == nil {
			aliases = make(map[string]string)
			r.aliases[desc.Group] = aliases
		}
		for _, alias := range desc.Aliases {
			aliases[alias] = desc.Name
		}
	}
	return nil
}

// MustRegister is like Register but panics on error.
// Intended for static registration tables.
func (r *Registry) MustRegister(desc Descriptor, factory Factory) {
	if err := r.Register(desc, factory); err != nil {
		panic(err)
	}
}

// Lookup implements Catalog.
func (r *Registry) Lookup(group, name string) (Command, Descriptor, error) {
	reg := r.get(group, name)
	if reg == nil {
		return nil, Descriptor{}, fmt.Errorf("%s.%s: %w", group, name, ErrNotRegistered)
	}

	cmd, err := reg.factory()
	if err != nil {
		return nil, reg.desc, &ConstructionError{Group: group, Name: reg.desc.Name, Err: err}
	}
	if cmd == nil {
		return nil, reg.desc, &ConstructionError{Group: group, Name: reg.desc.Name, Err: errors.New("factory returned nil")}
	}
	return cmd, reg.desc, nil
}

// Descriptor returns the descriptor registered under (group, name or alias).
func (r *Registry) Descriptor(group, name string) (Descriptor, bool) {
	reg := r.get(group, name)
	if reg == nil {
		return Descriptor{}, false
	}
	return reg.desc, true
}

func (r *Registry) get(group, name string) *registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.entries[group]
	if entries == nil {
		return nil
	}
	if reg, ok := entries[name]; ok {
		return reg
	}
	if target, ok := r.aliases[group][name]; ok {
		return entries[target]
	}
	return nil
}

// List implements Catalog.
func (r *Registry) List(group string) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.entries[group]
	result := make([]Descriptor, 0, len(entries))
	for _, reg := range entries {
		result = append(result, reg.desc)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Has returns true if (group, name) resolves to a registration.
func (r *Registry) Has(group, name string) bool {
	return r.get(group, name) != nil
}

// Groups returns all group names, sorted.
func (r *Registry) Groups() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make([]string, 0, len(r.entries))
	for g, entries := range r.entries {
		if len(entries) > 0 {
			groups = append(groups, g)
		}
	}
	sort.Strings(groups)
	return groups
}

// Unregister removes a command. It reports whether anything was removed.
func (r *Registry) Unregister(group, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.entries[group][name]
	if !ok {
		return false
	}
	r.dropAliasesLocked(reg.desc)
	delete(r.entries[group], name)
	return true
}

// UnregisterBySource removes every command registered by source and
// returns how many were removed.
func (r *Registry) UnregisterBySource(source string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, entries := range r.entries {
		for name, reg := range entries {
			if reg.desc.Source == source {
				r.dropAliasesLocked(reg.desc)
				delete(entries, name)
				count++
			}
		}
	}
	return count
}

// Count returns the number of registered commands across all groups.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, entries := range r.entries {
		n += len(entries)
	}
	return n
}

func (r *Registry) dropAliasesLocked(desc Descriptor) {
	aliases := r.aliases[desc.Group]
	for _, alias := range desc.Aliases {
		if aliases[alias] == desc.Name {
			delete(aliases, alias)
		}
	}
}
