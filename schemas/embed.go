// Package schemas embeds the JSON Schema documents for records the client
// persists locally or receives from the backend.
package schemas

import _ "embed"

// AuthRecord describes the persisted session record stored under the "auth" key.
//
//go:embed auth_record.schema.json
var AuthRecord string

// BatchAnalysis describes the response of the bulk resume analysis endpoint.
//
//go:embed batch_analysis.schema.json
var BatchAnalysis string

// All maps schema file names to their contents.
var All = map[string]string{
	"auth_record.schema.json":    AuthRecord,
	"batch_analysis.schema.json": BatchAnalysis,
}
