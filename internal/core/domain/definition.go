package domain

import (
	"cmp"
	"slices"

	"go.trai.ch/zerr"
)

// NoneKey is the sentinel key meaning "no resource applied".
const NoneKey = "none"

// NoneDisplayName is the display name used for the sentinel key when the
// configuration does not provide one.
const NoneDisplayName = "None"

// FaceCount is the fixed number of locations of a cubemap definition.
const FaceCount = 6

// Face identifies one side of a cubemap. The order matches the order of
// ResourceDefinition.Locations.
type Face int

// Cubemap faces in location order.
const (
	FacePosX Face = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

var faceNames = [FaceCount]string{"+x", "-x", "+y", "-y", "+z", "-z"}

func (f Face) String() string {
	if f < 0 || int(f) >= FaceCount {
		return "invalid"
	}
	return faceNames[f]
}

// ResourceDefinition describes how to fetch one composite resource.
type ResourceDefinition struct {
	Key         string
	DisplayName string
	// Locations lists the face locations in +X -X +Y -Y +Z -Z order.
	// It is empty only for the NoneKey definition.
	Locations []string
	// Priority orders prefetching; lower values are warmed first.
	Priority int
}

// IsNone reports whether the definition is the "no resource" sentinel.
func (d ResourceDefinition) IsNone() bool {
	return d.Key == NoneKey
}

func (d ResourceDefinition) validate() error {
	if d.Key == "" {
		return zerr.Wrap(ErrInvalidDefinition, "resource key must not be empty")
	}

	if d.IsNone() {
		if len(d.Locations) != 0 {
			return zerr.With(zerr.Wrap(ErrInvalidDefinition, "the none resource cannot have locations"), "key", d.Key)
		}
		return nil
	}

	if len(d.Locations) != FaceCount {
		err := zerr.With(zerr.Wrap(ErrInvalidDefinition, "cubemap requires exactly six faces"), "key", d.Key)
		return zerr.With(err, "faces", len(d.Locations))
	}

	for i, loc := range d.Locations {
		if loc == "" {
			err := zerr.With(zerr.Wrap(ErrInvalidDefinition, "face location must not be empty"), "key", d.Key)
			return zerr.With(err, "face", Face(i).String())
		}
	}

	return nil
}

// Option is a (display name, key) pair presented to users for selection.
type Option struct {
	DisplayName string
	Key         string
}

// DefinitionTable is an immutable registry of resource definitions.
// The zero value is not usable; construct one with NewDefinitionTable.
type DefinitionTable struct {
	order []string
	defs  map[string]ResourceDefinition
}

// NewDefinitionTable validates the definitions and builds a table preserving
// their declaration order. The NoneKey definition is added first if absent.
func NewDefinitionTable(defs ...ResourceDefinition) (*DefinitionTable, error) {
	t := &DefinitionTable{
		order: make([]string, 0, len(defs)+1),
		defs:  make(map[string]ResourceDefinition, len(defs)+1),
	}

	hasNone := slices.ContainsFunc(defs, ResourceDefinition.IsNone)
	if !hasNone {
		t.order = append(t.order, NoneKey)
		t.defs[NoneKey] = ResourceDefinition{Key: NoneKey, DisplayName: NoneDisplayName}
	}

	for _, def := range defs {
		if err := def.validate(); err != nil {
			return nil, err
		}
		if _, exists := t.defs[def.Key]; exists {
			return nil, zerr.With(zerr.Wrap(ErrDuplicateDefinition, "resource key declared twice"), "key", def.Key)
		}

		def.Locations = slices.Clone(def.Locations)
		if def.DisplayName == "" {
			def.DisplayName = def.Key
			if def.IsNone() {
				def.DisplayName = NoneDisplayName
			}
		}

		t.defs[def.Key] = def
		if def.IsNone() {
			t.order = slices.Insert(t.order, 0, def.Key)
			continue
		}
		t.order = append(t.order, def.Key)
	}

	return t, nil
}

// Lookup returns the definition for key.
func (t *DefinitionTable) Lookup(key string) (ResourceDefinition, bool) {
	def, ok := t.defs[key]
	if !ok {
		return ResourceDefinition{}, false
	}
	def.Locations = slices.Clone(def.Locations)
	return def, true
}

// Len returns the number of definitions including the none sentinel.
func (t *DefinitionTable) Len() int {
	return len(t.order)
}

// Keys returns every key in declaration order, none first.
func (t *DefinitionTable) Keys() []string {
	return slices.Clone(t.order)
}

// Options returns the selectable (display name, key) pairs in declaration order.
func (t *DefinitionTable) Options() []Option {
	opts := make([]Option, 0, len(t.order))
	for _, key := range t.order {
		opts = append(opts, Option{DisplayName: t.defs[key].DisplayName, Key: key})
	}
	return opts
}

// ByPriority returns the loadable definitions (none excluded) sorted by
// priority ascending. Equal priorities keep declaration order.
func (t *DefinitionTable) ByPriority() []ResourceDefinition {
	out := make([]ResourceDefinition, 0, len(t.order))
	for _, key := range t.order {
		if key == NoneKey {
			continue
		}
		out = append(out, t.defs[key])
	}
	slices.SortStableFunc(out, func(a, b ResourceDefinition) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
	return out
}
