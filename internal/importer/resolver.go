package importer

import "planpro/internal/domain"

// Resolver looks identifiers up in the topology under construction. Every
// dangling-reference check goes through it.
type Resolver struct {
	topology *domain.Topology
}

func NewResolver(t *domain.Topology) Resolver {
	return Resolver{topology: t}
}

// Resolve returns the entity of the given kind or a *ReferenceError.
func (r Resolver) Resolve(kind domain.EntityKind, id string) (domain.Entity, error) {
	var (
		entity domain.Entity
		ok     bool
	)
	switch kind {
	case domain.KindNode:
		entity, ok = lookup(r.topology.Node, id)
	case domain.KindEdge:
		entity, ok = lookup(r.topology.Edge, id)
	case domain.KindSignal:
		entity, ok = lookup(r.topology.Signal, id)
	case domain.KindRoute:
		entity, ok = lookup(r.topology.Route, id)
	}
	if !ok {
		return nil, &ReferenceError{Kind: kind, ID: id}
	}
	return entity, nil
}

func (r Resolver) Node(id string) (*domain.Node, error) {
	e, err := r.Resolve(domain.KindNode, id)
	if err != nil {
		return nil, err
	}
	return e.(*domain.Node), nil
}

func (r Resolver) Edge(id string) (*domain.Edge, error) {
	e, err := r.Resolve(domain.KindEdge, id)
	if err != nil {
		return nil, err
	}
	return e.(*domain.Edge), nil
}

func (r Resolver) Signal(id string) (*domain.Signal, error) {
	e, err := r.Resolve(domain.KindSignal, id)
	if err != nil {
		return nil, err
	}
	return e.(*domain.Signal), nil
}

// lookup converts a typed getter into an Entity without storing a typed nil
// in the interface.
func lookup[T domain.Entity](get func(string) (T, bool), id string) (domain.Entity, bool) {
	v, ok := get(id)
	if !ok {
		return nil, false
	}
	return v, true
}
