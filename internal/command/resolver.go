package command

import (
	"errors"
	"fmt"
	"sort"
)

// Resolver turns parsed command lines into bound command instances.
type Resolver struct {
	catalog Catalog
}

// NewResolver creates a resolver over catalog.
func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve looks up p.Name in group and binds p.Args onto the new instance.
func (r *Resolver) Resolve(group string, p Parsed) (Command, error) {
	if group == "" {
		return nil, &ArgumentError{Arg: "group", Message: "cannot be empty"}
	}

	cmd, desc, err := r.catalog.Lookup(group, p.Name)
	if err != nil {
		var cerr *ConstructionError
		if errors.As(err, &cerr) {
			return nil, &ResolveError{
				Group:  group,
				Name:   p.Name,
				Args:   p.Args,
				Reason: "construction failed",
				Err:    cerr.Err,
			}
		}
		if errors.Is(err, ErrNotRegistered) {
			return nil, &NotFoundError{Group: group, Name: p.Name, Args: p.Args}
		}
		return nil, &ResolveError{Group: group, Name: p.Name, Args: p.Args, Reason: "lookup failed", Err: err}
	}

	if err := bind(cmd, desc, p.Args); err != nil {
		err.Group = group
		err.Name = p.Name
		err.Args = p.Args
		return nil, err
	}
	return cmd, nil
}

// Known reports whether name is registered in group.
func (r *Resolver) Known(group, name string) bool {
	if reg, ok := r.catalog.(interface{ Has(string, string) bool }); ok {
		return reg.Has(group, name)
	}
	_, ok := r.Descriptor(group, name)
	return ok
}

// Descriptor returns the descriptor registered under (group, name or
// alias).
func (r *Resolver) Descriptor(group, name string) (Descriptor, bool) {
	if reg, ok := r.catalog.(interface {
		Descriptor(string, string) (Descriptor, bool)
	}); ok {
		return reg.Descriptor(group, name)
	}
	for _, d := range r.catalog.List(group) {
		if d.Name == name {
			return d, true
		}
		for _, alias := range d.Aliases {
			if alias == name {
				return d, true
			}
		}
	}
	return Descriptor{}, false
}

// Names returns the command names registered in group.
func (r *Resolver) Names(group string) []string {
	descs := r.catalog.List(group)
	names := make([]string, 0, len(descs))
	for _, d := range descs {
		names = append(names, d.Name)
	}
	return names
}

// bind assigns args onto cmd following desc's parameters in index order.
func bind(cmd Command, desc Descriptor, args []string) *ResolveError {
	params := make([]Parameter, len(desc.Params))
	copy(params, desc.Params)
	sort.SliceStable(params, func(i, j int) bool {
		return params[i].Index < params[j].Index
	})

	if len(args) > len(params) {
		return &ResolveError{
			Reason: fmt.Sprintf("too many arguments: got %d, want at most %d", len(args), len(params)),
		}
	}

	for i, p := range params {
		var value any
		switch {
		case i < len(args):
			v, err := p.Convert(args[i])
			if err != nil {
				return &ResolveError{Reason: fmt.Sprintf("invalid value for %s", p.Name), Err: err}
			}
			value = v
		case p.Required:
			return &ResolveError{Reason: fmt.Sprintf("missing required argument %s", p.Name)}
		default:
			if p.Default == nil {
				continue
			}
			value = p.Default
		}

		if err := p.Set(cmd, value); err != nil {
			return &ResolveError{Reason: fmt.Sprintf("cannot assign %s", p.Name), Err: err}
		}
	}
	return nil
}
