// Package extract pulls schema-shaped structured fields out of a classified
// document text. Unlike classification there is no fallback path: inventing
// financial figures is worse than reporting a failure.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/doctypes"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/fieldval"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/providers"
)

// maxExtractChars bounds the text sent to the inference engine. Extraction
// needs more context than classification, amounts and parties show up deep
// in the document.
const maxExtractChars = 24000

// successConfidence is the fixed score for a satisfied extraction contract.
// Extraction is binary, either the contract held or the call failed.
const successConfidence = 0.9

// truncateRunes cuts text at max bytes without splitting a multi-byte rune.
func truncateRunes(text string, max int) string {
	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max]
}

// Result is the outcome of extracting one document.
type Result struct {
	DocumentType string         `json:"type_document"`
	SchemaID     string         `json:"schema"`
	Fields       map[string]any `json:"donnees"`
	Confidence   float64        `json:"confiance"`
	Succeeded    bool           `json:"reussi"`
	ErrorDetail  string         `json:"erreur,omitempty"`
}

// Extractor maps (text, document type) to a schema-shaped field map.
type Extractor struct {
	registry *doctypes.Registry
	llm      providers.LLMClient
	model    string
	timeout  time.Duration
	logger   *slog.Logger
}

// Config configures an Extractor.
type Config struct {
	Model   string
	Timeout time.Duration
}

// New creates an Extractor.
func New(registry *doctypes.Registry, llm providers.LLMClient, cfg Config, logger *slog.Logger) *Extractor {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		registry: registry,
		llm:      llm,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
}

// Extract pulls the fields of documentType's schema out of text. The error
// return is nil even on failure, the failure lives in the Result so batch
// callers persist it alongside the document.
func (e *Extractor) Extract(ctx context.Context, text, documentType string) Result {
	schema := e.registry.SchemaFor(documentType)

	if e.llm == nil {
		return failed(documentType, schema.ID, "no inference client configured")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	truncated := truncateRunes(text, maxExtractChars)

	jsonSchema, err := json.Marshal(schema.JSONSchema())
	if err != nil {
		return failed(documentType, schema.ID, fmt.Sprintf("marshal schema: %v", err))
	}

	prompt := buildPrompt(truncated, documentType, schema)

	chatRes, err := e.llm.Chat(ctx, &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "user", Content: prompt},
		},
		Model:       e.model,
		Temperature: 0.1,
		ResponseFormat: &providers.ResponseFormat{
			Name:       "extraction_document",
			JSONSchema: jsonSchema,
		},
	})
	if err != nil {
		e.logger.Warn("extract.failed", "type", documentType, "error", err)
		return failed(documentType, schema.ID, err.Error())
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(chatRes.Content), &fields); err != nil {
		e.logger.Warn("extract.parse_failed", "type", documentType, "error", err)
		return failed(documentType, schema.ID, fmt.Sprintf("parse inference output: %v", err))
	}

	// Every schema field must be present so the aggregator can tell
	// "explicitly unknown" from "absent".
	for _, name := range schema.FieldNames() {
		if _, ok := fields[name]; !ok {
			fields[name] = fieldval.NotSpecified
		}
	}

	e.logger.Info("extract.done",
		"type", documentType,
		"schema", schema.ID,
		"fields", len(fields))

	return Result{
		DocumentType: documentType,
		SchemaID:     schema.ID,
		Fields:       fields,
		Confidence:   successConfidence,
		Succeeded:    true,
	}
}

func failed(documentType, schemaID, detail string) Result {
	return Result{
		DocumentType: documentType,
		SchemaID:     schemaID,
		Succeeded:    false,
		ErrorDetail:  detail,
	}
}

func buildPrompt(text, documentType string, schema doctypes.SchemaDef) string {
	var fieldList strings.Builder
	for _, f := range schema.Fields {
		fmt.Fprintf(&fieldList, "- %s", f.Name)
		if f.Description != "" {
			fmt.Fprintf(&fieldList, " : %s", f.Description)
		}
		fieldList.WriteString("\n")
	}

	return fmt.Sprintf(`Tu es un expert en extraction de données de documents administratifs et financiers français.
Le document ci-dessous est de type "%s". Extrais les champs suivants :

%s
Règles :
- Recopie les valeurs exactement comme elles apparaissent dans le document.
- Si une information est absente du document, renseigne le champ avec la valeur exacte "%s". Ne supprime jamais un champ.
- Ne déduis aucune valeur qui n'est pas écrite dans le document.

Document :
---
%s
---`, documentType, fieldList.String(), fieldval.NotSpecified, text)
}
