package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// structuredRepairAttempts bounds the self-repair loop when a model returns
// output that fails local schema validation. The first attempt is the normal
// call, the second carries a stricter repair prompt.
const structuredRepairAttempts = 2

// StructuredClient wraps an LLMClient and guarantees that Chat responses are
// valid JSON conforming to the request's response format schema. Validation
// happens locally so the guarantee holds even when the backing provider
// ignores or loosely honors response_format.
type StructuredClient struct {
	inner  LLMClient
	logger *slog.Logger
}

// NewStructuredClient wraps client with local schema validation and repair.
func NewStructuredClient(client LLMClient, logger *slog.Logger) *StructuredClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &StructuredClient{inner: client, logger: logger}
}

// Name returns the wrapped client's identifier.
func (s *StructuredClient) Name() string { return s.inner.Name() }

// Chat sends the request and validates the response against the request
// schema. On validation failure it retries once with a repair prompt that
// quotes the schema, the bad output, and the validation error.
func (s *StructuredClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if req.ResponseFormat == nil || len(req.ResponseFormat.JSONSchema) == 0 {
		return s.inner.Chat(ctx, req)
	}

	messages := req.Messages
	var result *ChatResult

	err := retry.Do(
		func() error {
			attempt := *req
			attempt.Messages = messages

			res, err := s.inner.Chat(ctx, &attempt)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			parsed, err := parseStructuredJSON(res.Content)
			if err == nil {
				err = validateStructuredJSON(req.ResponseFormat.JSONSchema, parsed)
			}
			if err != nil {
				s.logger.Warn("providers.structured.repair",
					"provider", s.inner.Name(),
					"request_id", res.RequestID,
					"error", err)
				messages = append(req.Messages, Message{
					Role:    "user",
					Content: repairPrompt(req.ResponseFormat.JSONSchema, res.Content, err),
				})
				return err
			}

			res.Content = string(parsed)
			result = res
			return nil
		},
		retry.Attempts(structuredRepairAttempts),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("structured output failed after %d attempts: %w", structuredRepairAttempts, err)
	}
	return result, nil
}

// parseStructuredJSON parses JSON from model output, recovering from markdown
// code fences and surrounding commentary.
func parseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty structured output")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			normalized, mErr := json.Marshal(parsed)
			if mErr != nil {
				return nil, fmt.Errorf("normalize structured output: %w", mErr)
			}
			return normalized, nil
		}
	}

	return nil, fmt.Errorf("failed to parse structured JSON")
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractJSONCandidate pulls the outermost JSON object or array out of text
// that surrounds it with prose.
func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	objectStart := strings.Index(trimmed, "{")
	arrayStart := strings.Index(trimmed, "[")

	start := -1
	closeChar := ""
	switch {
	case objectStart >= 0 && (arrayStart < 0 || objectStart < arrayStart):
		start = objectStart
		closeChar = "}"
	case arrayStart >= 0:
		start = arrayStart
		closeChar = "]"
	default:
		return ""
	}

	end := strings.LastIndex(trimmed, closeChar)
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}

// validateStructuredJSON validates parsed JSON against the schema document.
func validateStructuredJSON(schemaRaw, parsed json.RawMessage) error {
	if len(schemaRaw) == 0 || len(parsed) == 0 {
		return nil
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaRaw)); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(parsed, &doc); err != nil {
		return fmt.Errorf("decode JSON for validation: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("output does not match schema: %w", err)
	}
	return nil
}

func repairPrompt(schemaRaw json.RawMessage, lastOutput string, issue error) string {
	lastOutput = strings.TrimSpace(lastOutput)
	if len(lastOutput) > 8000 {
		lastOutput = lastOutput[:8000] + "\n...[tronqué]"
	}

	return fmt.Sprintf(`Return ONLY valid JSON (no markdown, no commentary) that strictly conforms to this schema.

Schema:
%s

Your previous output:
%s

Validation issue:
%v`, string(schemaRaw), lastOutput, issue)
}
