package config

import (
	"github.com/invopop/jsonschema"
)

// JSONSchema describes the environment variables the service accepts.
func JSONSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&Env{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "Scaffold Environment"
	schema.Description = "Environment variables read by the scaffold service"
	return schema
}
