// Package model holds the data types shared across the dispatcher:
// records, payloads, sink roles, and dead-letter failure records.
package model

import (
	"encoding/json"
	"time"
)

// Record is an opaque text payload read from input. The core never
// parses it; transformers and sinks decide what it means.
type Record string

// Payload is the sink-specific encoding of a Record, produced by a
// Transformer at dispatch time.
type Payload []byte

// SinkRole names one configured downstream sink.
type SinkRole string

const (
	RoleREST SinkRole = "REST"
	RoleGRPC SinkRole = "GRPC"
	RoleMQ   SinkRole = "MQ"
	RoleDB   SinkRole = "DB"
)

// FailureRecord durably describes a terminal per-(record, sink) failure.
type FailureRecord struct {
	Record    Record    `json:"record"`
	Sink      SinkRole  `json:"sink"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalJSON splices Record in as-is when it is itself a well-formed
// JSON value, rather than re-quoting it as a string. Malformed records
// (not valid JSON) fall back to a quoted string, so every DLQ line is
// valid JSON; for those records the "record" field reads back as a
// string rather than as a JSON object.
func (f FailureRecord) MarshalJSON() ([]byte, error) {
	recordBytes := []byte(f.Record)
	var rawRecord json.RawMessage
	if json.Valid(recordBytes) {
		rawRecord = recordBytes
	} else {
		quoted, err := json.Marshal(string(f.Record))
		if err != nil {
			return nil, err
		}
		rawRecord = quoted
	}

	type alias struct {
		Record    json.RawMessage `json:"record"`
		Sink      SinkRole        `json:"sink"`
		Attempts  int             `json:"attempts"`
		Error     string          `json:"error"`
		Timestamp time.Time       `json:"timestamp"`
	}
	return json.Marshal(alias{
		Record:    rawRecord,
		Sink:      f.Sink,
		Attempts:  f.Attempts,
		Error:     f.Error,
		Timestamp: f.Timestamp,
	})
}
