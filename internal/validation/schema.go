package validation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed intake_submit.schema.json
var intakeSubmitSchema []byte

const intakeSubmitSchemaURL = "schema://intake-submit.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func payloadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(intakeSubmitSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(intakeSubmitSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(intakeSubmitSchemaURL)
	})
	return compiledSchema, compileErr
}

// ValidatePayloadJSON checks a raw POST /api/intake-submit body against the
// payload schema. Required fields are not enforced here; the handler reports
// them with its own message.
func ValidatePayloadJSON(raw []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return ValidationError{Field: "body", Message: "invalid JSON"}
	}

	sch, err := payloadSchema()
	if err != nil {
		return fmt.Errorf("compile intake payload schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return ValidationError{Field: "body", Message: schemaMessage(err)}
	}
	return nil
}

// schemaMessage reduces a validation failure to its first leaf error
func schemaMessage(err error) string {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	out := verr.DetailedOutput()
	for len(out.Errors) > 0 {
		out = &out.Errors[0]
	}

	var leaf struct {
		InstanceLocation string `json:"instanceLocation"`
		Error            string `json:"error"`
	}
	b, _ := json.Marshal(out)
	if json.Unmarshal(b, &leaf) != nil || leaf.Error == "" {
		return "invalid payload"
	}
	if leaf.InstanceLocation != "" {
		return fmt.Sprintf("%s: %s", leaf.InstanceLocation, leaf.Error)
	}
	return leaf.Error
}
