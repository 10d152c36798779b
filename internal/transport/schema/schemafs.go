// Package schema provides the embedded JSON Schema for inbound directive
// envelopes.
package schema

import "embed"

// DirectiveSchemaFS contains the embedded directive envelope JSON schema.
//
//go:embed directive-schema.json
var DirectiveSchemaFS embed.FS
