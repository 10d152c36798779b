package transport

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/b00lduck/elementary/internal/transport/schema"
)

var directiveSchemaLoader = mustLoadDirectiveSchema()

func mustLoadDirectiveSchema() gojsonschema.JSONLoader {
	raw, err := schema.DirectiveSchemaFS.ReadFile("directive-schema.json")
	if err != nil {
		panic("transport: embedded directive schema missing: " + err.Error())
	}

	return gojsonschema.NewBytesLoader(raw)
}

// ValidateDirectiveDocument checks raw JSON against the same embedded
// directive schema the WebSocket endpoint enforces. Exported for the
// render-graph CLI command, which accepts the identical directive shape
// from a file instead of a connection.
func ValidateDirectiveDocument(raw []byte) error {
	return validateDirective(raw)
}

// validateDirective checks raw JSON against the embedded directive schema
// and returns a descriptive error naming every violation when invalid.
func validateDirective(raw []byte) error {
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(directiveSchemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("transport: schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	err = fmt.Errorf("%w", errInvalidDirective)

	for _, verr := range result.Errors() {
		err = fmt.Errorf("%w; %s: %s", err, verr.Field(), verr.Description())
	}

	return err
}
