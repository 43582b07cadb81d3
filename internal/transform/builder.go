package transform

import "github.com/lgreene/fanout-dispatcher/internal/model"

// DefaultRegistry wires the standard role->transformer mapping: REST
// gets JSON passthrough, GRPC a protobuf Struct encoding, MQ an XML
// wrapping, DB a length-prefixed binary header.
func DefaultRegistry() *Registry {
	return NewRegistry(map[model.SinkRole]Transformer{
		model.RoleREST: JSONTransformer{},
		model.RoleGRPC: ProtoStructTransformer{},
		model.RoleMQ:   XMLTransformer{},
		model.RoleDB:   BinaryTransformer{},
	})
}
