// Package classify assigns each document text one type from the closed
// catalog. Inference does the heavy lifting; a keyword fallback guarantees
// that classification always produces a catalog member.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/doctypes"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/providers"
)

// maxClassifyChars bounds the text sent to the inference engine. Document
// type is almost always decidable from the first pages.
const maxClassifyChars = 8000

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

// Method records which path produced a classification.
const (
	MethodLLM      = "llm"
	MethodKeywords = "keywords"
)

// Result is the outcome of classifying one document text.
type Result struct {
	DocumentType string             `json:"type_document"`
	Category     doctypes.Category  `json:"categorie"`
	Confidence   float64            `json:"confiance"`
	Reasoning    string             `json:"justification,omitempty"`
	Method       string             `json:"methode"`
	Succeeded    bool               `json:"reussi"`
	ErrorDetail  string             `json:"erreur,omitempty"`
}

// Classifier maps raw text to a catalog document type.
type Classifier struct {
	registry *doctypes.Registry
	llm      providers.LLMClient
	model    string
	timeout  time.Duration
	logger   *slog.Logger
}

// Config configures a Classifier.
type Config struct {
	Model   string
	Timeout time.Duration
}

// New creates a Classifier. llm may be nil, in which case every call takes
// the keyword path.
func New(registry *doctypes.Registry, llm providers.LLMClient, cfg Config, logger *slog.Logger) *Classifier {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		registry: registry,
		llm:      llm,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
}

// llmAnswer is the constrained output contract for the inference call.
type llmAnswer struct {
	TypeDetecte   string  `json:"type_detecte"`
	Confiance     float64 `json:"confiance"`
	Justification string  `json:"justification"`
}

// Classify determines the document type of text. It never returns an error:
// when inference is unavailable or returns garbage, the keyword fallback
// produces a lower-confidence result with the cause recorded.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	truncated := truncateRunes(text, maxClassifyChars)

	if c.llm == nil {
		return c.keywordFallback(text, fmt.Errorf("no inference client configured"))
	}

	res, err := c.classifyLLM(ctx, truncated)
	if err != nil {
		c.logger.Warn("classify.llm_failed", "error", err)
		return c.keywordFallback(text, err)
	}
	return res
}

func (c *Classifier) classifyLLM(ctx context.Context, text string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	defs := c.registry.All()
	names := make([]string, 0, len(defs))
	var hints strings.Builder
	for _, def := range defs {
		names = append(names, def.Name)
		fmt.Fprintf(&hints, "- %s : %s\n", def.Name, def.Hint)
	}

	schema, err := answerSchema(names)
	if err != nil {
		return Result{}, err
	}

	prompt := fmt.Sprintf(`Tu es un expert en analyse de documents administratifs et financiers français.
Identifie le type du document ci-dessous. Réponds uniquement avec un des types suivants, exactement comme écrit :

%s
Document :
---
%s
---`, hints.String(), text)

	chatRes, err := c.llm.Chat(ctx, &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "user", Content: prompt},
		},
		Model:       c.model,
		Temperature: 0.1,
		ResponseFormat: &providers.ResponseFormat{
			Name:       "classification_document",
			JSONSchema: schema,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("inference: %w", err)
	}

	var answer llmAnswer
	if err := json.Unmarshal([]byte(chatRes.Content), &answer); err != nil {
		return Result{}, fmt.Errorf("parse inference output: %w", err)
	}

	def, repaired := c.resolveType(answer.TypeDetecte)
	confidence := answer.Confiance
	if confidence < 0 || confidence > 1 {
		confidence = 0.5
	}
	if repaired {
		c.logger.Debug("classify.type_repaired",
			"returned", answer.TypeDetecte, "resolved", def.Name)
	}

	c.logger.Info("classify.done",
		"type", def.Name,
		"category", def.Category,
		"confidence", confidence,
		"method", MethodLLM)

	return Result{
		DocumentType: def.Name,
		// Category comes from the catalog, never from the model.
		Category:   def.Category,
		Confidence: confidence,
		Reasoning:  answer.Justification,
		Method:     MethodLLM,
		Succeeded:  true,
	}, nil
}

// answerSchema builds the output contract with the catalog names as an enum.
func answerSchema(names []string) (json.RawMessage, error) {
	return json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type_detecte": map[string]any{
				"type": "string",
				"enum": names,
			},
			"confiance": map[string]any{
				"type":        "number",
				"description": "Niveau de confiance entre 0 et 1",
			},
			"justification": map[string]any{
				"type": "string",
			},
		},
		"required":             []string{"type_detecte", "confiance", "justification"},
		"additionalProperties": false,
	})
}

// resolveType maps a returned name onto the catalog. Exact match first, then
// case-insensitive substring containment in either direction, then the
// catalog's fallback entry. The second return reports whether repair ran.
func (c *Classifier) resolveType(name string) (doctypes.Def, bool) {
	if def, ok := c.registry.Resolve(name); ok {
		return def, false
	}

	lowered := strings.ToLower(strings.TrimSpace(name))
	if lowered != "" {
		for _, def := range c.registry.All() {
			defLower := strings.ToLower(def.Name)
			if strings.Contains(defLower, lowered) || strings.Contains(lowered, defLower) {
				return def, true
			}
		}
	}

	return c.registry.OtherEntry(), true
}

// keywordFallback scores each catalog entry by how many of its name's words
// longer than 3 characters appear in the text. Always returns a valid result.
func (c *Classifier) keywordFallback(text string, cause error) Result {
	lowered := strings.ToLower(text)

	var best doctypes.Def
	bestScore := 0
	for _, def := range c.registry.All() {
		score := 0
		for _, word := range strings.Fields(strings.ToLower(def.Name)) {
			if len(word) > 3 && strings.Contains(lowered, word) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = def
		}
	}

	var res Result
	if bestScore > 0 {
		res = Result{
			DocumentType: best.Name,
			Category:     best.Category,
			Confidence:   min(float64(bestScore)/5.0, 0.8),
			Reasoning:    fmt.Sprintf("Mots-clés du type détectés dans le texte (score %d)", bestScore),
		}
	} else {
		other := c.registry.OtherEntry()
		res = Result{
			DocumentType: other.Name,
			Category:     other.Category,
			Confidence:   0.1,
			Reasoning:    "Aucun mot-clé reconnu",
		}
	}

	res.Method = MethodKeywords
	res.Succeeded = false
	if cause != nil {
		res.ErrorDetail = cause.Error()
	}

	c.logger.Info("classify.fallback",
		"type", res.DocumentType,
		"confidence", res.Confidence,
		"cause", res.ErrorDetail)
	return res
}
