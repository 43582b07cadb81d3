package transform

import "github.com/lgreene/fanout-dispatcher/internal/model"

// JSONTransformer is the REST role's transformer: JSON passthrough, with
// a well-formed empty object for an empty record.
type JSONTransformer struct{}

func (JSONTransformer) Transform(r model.Record) (model.Payload, error) {
	if len(r) == 0 {
		return model.Payload("{}"), nil
	}
	return model.Payload(r), nil
}
