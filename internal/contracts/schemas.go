package contracts

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/form-draft.v1.json
var formDraftSchemaV1 []byte

const formDraftSchemaURL = "contracts://form-draft/v1.json"

var draftSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	if err := compiler.AddResource(formDraftSchemaURL, bytes.NewReader(formDraftSchemaV1)); err != nil {
		log.Fatalf("failed to register schema %s: %v", formDraftSchemaURL, err)
	}
	schema, err := compiler.Compile(formDraftSchemaURL)
	if err != nil {
		log.Fatalf("failed to compile schema %s: %v", formDraftSchemaURL, err)
	}

	draftSchema = schema
}

// ValidateDraft проверяет снятый с диска черновик формы по схеме.
// Битый или чужой по форме файл валидацию не проходит.
func ValidateDraft(body []byte) error {
	// распарсить JSON в универсальный тип interface{}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		// Если это невалидный JSON, валидация по схеме невозможна
		return fmt.Errorf("draft body is not a valid JSON: %w", err)
	}

	if err := draftSchema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}

	return nil
}
