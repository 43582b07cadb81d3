// Package transform implements the Transformer capability: a pure,
// per-role function from a Record to a sink-specific Payload.
package transform

import (
	"github.com/lgreene/fanout-dispatcher/internal/model"
)

// Transformer is referentially transparent per input: the same Record
// always yields the same Payload for a given role.
type Transformer interface {
	Transform(r model.Record) (model.Payload, error)
}

// Registry maps a SinkRole to its Transformer. A role with no registered
// Transformer passes the record through unchanged (spec §4.7).
type Registry struct {
	byRole map[model.SinkRole]Transformer
}

// NewRegistry builds a Registry from role->Transformer pairs.
func NewRegistry(transformers map[model.SinkRole]Transformer) *Registry {
	return &Registry{byRole: transformers}
}

// For returns the Transformer registered for role, or a passthrough
// Transformer if none is registered.
func (reg *Registry) For(role model.SinkRole) Transformer {
	if t, ok := reg.byRole[role]; ok {
		return t
	}
	return PassthroughTransformer{}
}

// PassthroughTransformer returns the record's bytes unchanged.
type PassthroughTransformer struct{}

func (PassthroughTransformer) Transform(r model.Record) (model.Payload, error) {
	return model.Payload(r), nil
}
