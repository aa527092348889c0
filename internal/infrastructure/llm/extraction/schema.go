package extraction

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// envelopeSchema only pins container types. Field values are coerced later,
// so strings, numbers and nulls are all accepted where the model varies.
const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["extractedFields"],
  "properties": {
    "extractedFields": {
      "type": "object",
      "properties": {
        "policyNumber":        {"type": ["string", "number", "null"]},
        "policyholderName":    {"type": ["string", "null"]},
        "effectiveDates":      {"type": ["object", "string", "null"]},
        "incidentDate":        {"type": ["string", "null"]},
        "incidentTime":        {"type": ["string", "null"]},
        "incidentLocation":    {"type": ["object", "string", "null"]},
        "incidentDescription": {"type": ["string", "null"]},
        "claimant":            {"type": ["object", "string", "null"]},
        "thirdParties":        {"type": ["array", "null"]},
        "assetType":           {"type": ["string", "null"]},
        "assetId":             {"type": ["string", "number", "null"]},
        "estimatedDamage":     {"type": ["number", "string", "null"]},
        "claimType":           {"type": ["string", "null"]}
      }
    },
    "missingFields":      {"type": ["array", "null"]},
    "inconsistentFields": {"type": ["array", "null"]},
    "routingDecision":    {"type": ["object", "null"]}
  }
}`

const envelopeSchemaURL = "fnol-extraction-envelope.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func envelope() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(envelopeSchemaURL, strings.NewReader(envelopeSchema)); err != nil {
			schemaErr = fmt.Errorf("add envelope schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(envelopeSchemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile envelope schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

func validateEnvelope(doc map[string]any) error {
	schema, err := envelope()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("response does not match extraction envelope: %w", err)
	}
	return nil
}
