// Package validation turns untyped input into typed values and reports every
// constraint violation as a structured Issue.
//
// Schemas are a capability (Schema) rather than a concrete engine. Struct
// builds one from a Go type using go-playground/validator tags; any other
// engine can be bridged through SchemaFunc.
package validation
