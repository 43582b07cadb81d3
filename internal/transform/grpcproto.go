package transform

import (
	"encoding/json"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lgreene/fanout-dispatcher/internal/model"
)

// ProtoStructTransformer is the GRPC role's transformer: wraps the
// record in a structpb.Struct and returns its protobuf wire bytes,
// avoiding the need for generated .proto code while still giving the
// GRPC sink a self-describing, schema-free payload to forward.
//
// The record is expected to be a JSON object; non-object records are
// wrapped under a single "value" field so they still produce a
// well-formed Struct. An empty record yields an empty Struct.
type ProtoStructTransformer struct{}

func (ProtoStructTransformer) Transform(r model.Record) (model.Payload, error) {
	fields := map[string]any{}
	if len(r) > 0 {
		var asMap map[string]any
		if err := json.Unmarshal([]byte(r), &asMap); err == nil {
			fields = asMap
		} else {
			var asAny any
			if err := json.Unmarshal([]byte(r), &asAny); err == nil {
				fields = map[string]any{"value": asAny}
			} else {
				fields = map[string]any{"value": string(r)}
			}
		}
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	wire, err := proto.Marshal(s)
	if err != nil {
		return nil, err
	}
	return model.Payload(wire), nil
}
