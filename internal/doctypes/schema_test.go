package doctypes

import (
	"strings"
	"testing"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/fieldval"
)

func TestJSONSchema(t *testing.T) {
	r := NewRegistry(nil)

	t.Run("all fields required", func(t *testing.T) {
		s := r.Schema(SchemaAvisImposition)
		js := s.JSONSchema()
		required, ok := js["required"].([]string)
		if !ok {
			t.Fatalf("required is %T", js["required"])
		}
		if len(required) != len(s.Fields) {
			t.Errorf("required has %d entries, want %d", len(required), len(s.Fields))
		}
	})

	t.Run("string leaves mention the sentinel", func(t *testing.T) {
		js := r.Schema(SchemaBilan).JSONSchema()
		props := js["properties"].(map[string]any)
		ca := props["chiffre_affaires"].(map[string]any)
		desc, _ := ca["description"].(string)
		if !strings.Contains(desc, fieldval.NotSpecified) {
			t.Errorf("description %q does not mention the sentinel", desc)
		}
	})

	t.Run("nested objects and lists", func(t *testing.T) {
		js := r.Schema(SchemaStatuts).JSONSchema()
		props := js["properties"].(map[string]any)
		siege := props["siege_social"].(map[string]any)
		if siege["type"] != "object" {
			t.Errorf("siege_social type = %v", siege["type"])
		}
		dirigeants := props["dirigeants"].(map[string]any)
		if dirigeants["type"] != "array" {
			t.Errorf("dirigeants type = %v", dirigeants["type"])
		}
	})

	t.Run("field order preserved", func(t *testing.T) {
		names := r.Schema(SchemaGeneric).FieldNames()
		if names[0] != "type" || names[len(names)-1] != "summary" {
			t.Errorf("unexpected field order: %v", names)
		}
	})
}
