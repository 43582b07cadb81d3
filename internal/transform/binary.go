package transform

import (
	"encoding/binary"

	"github.com/lgreene/fanout-dispatcher/internal/model"
)

// BinaryTransformer is the DB role's transformer: an 8-byte big-endian
// length header followed by the raw record bytes. An empty record
// yields just the zero header, no body.
type BinaryTransformer struct{}

func (BinaryTransformer) Transform(r model.Record) (model.Payload, error) {
	header := make([]byte, 8)
	binary.BigEndian.PutUint64(header, uint64(len(r)))
	if len(r) == 0 {
		return model.Payload(header), nil
	}
	return append(header, []byte(r)...), nil
}
