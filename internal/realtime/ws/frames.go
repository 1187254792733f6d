package ws

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ClientFrame is one learner message.
type ClientFrame struct {
	Payload      string `json:"payload"`
	Personalized bool   `json:"personalized_response"`
	Grade        string `json:"grade"`
	Board        string `json:"board"`
}

const clientFrameSchemaURL = "schema://tutor/client-frame.json"

const clientFrameSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "payload": {"type": "string", "minLength": 1, "maxLength": 8000},
    "personalized_response": {"type": "boolean"},
    "grade": {"type": ["string", "null"], "maxLength": 32},
    "board": {"type": ["string", "null"], "maxLength": 64}
  },
  "required": ["payload"]
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func clientSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(clientFrameSchema))
		if err != nil {
			schemaErr = fmt.Errorf("parse client frame schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(clientFrameSchemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add client frame schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(clientFrameSchemaURL)
	})
	return schema, schemaErr
}

// ParseClientFrame validates raw against the client frame schema and
// decodes it. A payload that is only whitespace is rejected.
func ParseClientFrame(raw []byte) (*ClientFrame, error) {
	sch, err := clientSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	var f ClientFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	f.Payload = strings.TrimSpace(f.Payload)
	if f.Payload == "" {
		return nil, fmt.Errorf("invalid message: payload is empty")
	}
	f.Grade = strings.TrimSpace(f.Grade)
	f.Board = strings.TrimSpace(f.Board)
	return &f, nil
}
