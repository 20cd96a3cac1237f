// Package ref provides explicit tagged references to heterogeneous entities.
//
// A ledger entry may point at the business document that originated it
// (an invoice, a stocktake, a return). Rather than dynamic type dispatch,
// the reference is an explicit (kind, id) pair, resolved through a registry
// of per-kind resolvers.
package ref

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
)

// Kind identifies the entity type a Ref points to.
type Kind string

const (
	KindProduct   Kind = "product"
	KindWarehouse Kind = "warehouse"
	KindSupplier  Kind = "supplier"
	KindDocument  Kind = "document"
)

// Valid reports whether the kind is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindProduct, KindWarehouse, KindSupplier, KindDocument:
		return true
	}
	return false
}

// Ref is a tagged reference: entity kind plus entity id.
type Ref struct {
	Kind Kind  `json:"kind"`
	ID   id.ID `json:"id"`
}

// New creates a Ref.
func New(kind Kind, entityID id.ID) Ref {
	return Ref{Kind: kind, ID: entityID}
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool {
	return r.Kind == "" && id.IsNil(r.ID)
}

// String encodes the reference as "kind:id".
func (r Ref) String() string {
	return string(r.Kind) + ":" + r.ID.String()
}

// Parse decodes a "kind:id" string.
func Parse(s string) (Ref, error) {
	kind, rawID, ok := strings.Cut(s, ":")
	if !ok {
		return Ref{}, fmt.Errorf("malformed reference %q", s)
	}
	k := Kind(kind)
	if !k.Valid() {
		return Ref{}, fmt.Errorf("unknown reference kind %q", kind)
	}
	entityID, err := id.Parse(rawID)
	if err != nil {
		return Ref{}, fmt.Errorf("malformed reference id %q: %w", rawID, err)
	}
	return Ref{Kind: k, ID: entityID}, nil
}

// Value implements driver.Valuer so a Ref persists as its string form.
func (r Ref) Value() (driver.Value, error) {
	if r.IsZero() {
		return nil, nil
	}
	return r.String(), nil
}

// Scan implements sql.Scanner.
func (r *Ref) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = Ref{}
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*r = parsed
		return nil
	case []byte:
		return r.Scan(string(v))
	}
	return fmt.Errorf("cannot scan %T into ref.Ref", src)
}

// Resolver checks existence of an entity of one kind.
type Resolver interface {
	Exists(ctx context.Context, entityID id.ID) (bool, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, entityID id.ID) (bool, error)

func (f ResolverFunc) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return f(ctx, entityID)
}

// Registry maps reference kinds to resolvers.
type Registry struct {
	resolvers map[Kind]Resolver
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[Kind]Resolver)}
}

// Register binds a resolver to a kind. Last registration wins.
func (g *Registry) Register(kind Kind, r Resolver) {
	g.resolvers[kind] = r
}

// Resolve verifies that the referenced entity exists.
// An unregistered kind is a programming error surfaced as an internal error.
func (g *Registry) Resolve(ctx context.Context, r Ref) error {
	resolver, ok := g.resolvers[r.Kind]
	if !ok {
		return apperror.NewInternal(fmt.Errorf("no resolver registered for kind %q", r.Kind))
	}
	exists, err := resolver.Exists(ctx, r.ID)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NewNotFound(string(r.Kind), r.ID.String())
	}
	return nil
}
