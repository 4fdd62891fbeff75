package output

import (
	"github.com/invopop/jsonschema"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

// GenerateSchema reflects the JSON Schema of T with every definition
// inlined and no additional properties allowed.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// ResultSchema is the schema of the documents written by ResultToJSON.
func ResultSchema() *jsonschema.Schema {
	return GenerateSchema[models.Result]()
}

// SchemaJSON renders ResultSchema.
func SchemaJSON(pretty bool) ([]byte, error) {
	return ToJSON(ResultSchema(), pretty)
}
