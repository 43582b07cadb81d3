package transform

import (
	"encoding/xml"

	"github.com/lgreene/fanout-dispatcher/internal/model"
)

// message is the one-element wrapping used for the MQ role's XML
// encoding: the raw record is embedded as character data.
type message struct {
	XMLName xml.Name `xml:"message"`
	Body    string   `xml:",chardata"`
}

// XMLTransformer is the MQ role's transformer: wraps the record in a
// single <message> element.
type XMLTransformer struct{}

func (XMLTransformer) Transform(r model.Record) (model.Payload, error) {
	out, err := xml.Marshal(message{Body: string(r)})
	if err != nil {
		return nil, err
	}
	return model.Payload(out), nil
}
