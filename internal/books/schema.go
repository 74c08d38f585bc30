package books

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Only the structure the mapper relies on is checked. Every volumeInfo field
// stays optional and unknown keys are allowed.
const volumeItemSchema = `{
	"type": "object",
	"required": ["id"],
	"properties": {
		"id": {"type": "string"},
		"volumeInfo": {
			"type": ["object", "null"],
			"properties": {
				"title": {"type": ["string", "null"]},
				"description": {"type": ["string", "null"]},
				"authors": {"type": ["array", "null"], "items": {"type": "string"}},
				"imageLinks": {
					"type": ["object", "null"],
					"properties": {"thumbnail": {"type": ["string", "null"]}}
				},
				"averageRating": {"type": ["number", "null"]},
				"ratingsCount": {"type": ["integer", "null"]},
				"publishedDate": {"type": ["string", "null"]},
				"pageCount": {"type": ["integer", "null"]},
				"categories": {"type": ["array", "null"], "items": {"type": "string"}}
			}
		}
	}
}`

var (
	searchSchema = mustSchema(`{
	"type": "object",
	"properties": {
		"items": {"type": ["array", "null"], "items": ` + volumeItemSchema + `}
	}
}`)
	volumeSchema = mustSchema(volumeItemSchema)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile response schema: %v", err))
	}
	return schema
}

func validateSearchBody(body []byte) error {
	return validateBody(searchSchema, body)
}

func validateVolumeBody(body []byte) error {
	return validateBody(volumeSchema, body)
}

func validateBody(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("unexpected response shape: %s", strings.Join(problems, "; "))
}
