// Package batch runs the recognize, classify, extract pipeline over many
// uploaded documents under bounded concurrency. One document's failure never
// aborts its siblings.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/classify"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/extract"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/recognize"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/store"
)

// DefaultMaxConcurrency bounds parallel pipeline units. The recognition and
// inference backends are rate- and cost-constrained, unbounded fan-out just
// trades correctness for throttling.
const DefaultMaxConcurrency = 5

// DefaultMaxFileSizeMB is the upload size ceiling.
const DefaultMaxFileSizeMB = 50

// SupportedExtensions is the upload whitelist, checked before any network
// call is made.
var SupportedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tiff": true,
	".bmp":  true,
}

// Error kinds reported in per-document outcomes.
const (
	KindValidation  = "validation"
	KindRecognition = "recognition"
	KindStorage     = "storage"
	KindInternal    = "internal"
)

// TextRecognizer turns document bytes into text.
type TextRecognizer interface {
	ExtractText(ctx context.Context, filename string, data []byte) (*recognize.Result, error)
}

// DocumentClassifier assigns a catalog type to text.
type DocumentClassifier interface {
	Classify(ctx context.Context, text string) classify.Result
}

// FieldExtractor pulls schema fields out of classified text.
type FieldExtractor interface {
	Extract(ctx context.Context, text, documentType string) extract.Result
}

// DocumentStore persists processed documents.
type DocumentStore interface {
	PutDocument(ctx context.Context, doc *store.Document) error
}

// File is one batch input. Data takes precedence; when nil the bytes are
// read from Path. Path also names the staged copy removed when the delete
// policy is on.
type File struct {
	Filename string
	Path     string
	Data     []byte
}

// Outcome is the per-document result. Succeeded means a DocumentRecord was
// stored; an extraction failure still counts as success with the cause in
// ExtractionError, the record simply carries a null extraction.
type Outcome struct {
	Filename        string  `json:"filename"`
	DocumentID      string  `json:"document_id,omitempty"`
	Succeeded       bool    `json:"reussi"`
	DocumentType    string  `json:"type_document,omitempty"`
	Category        string  `json:"categorie,omitempty"`
	Confidence      float64 `json:"confiance,omitempty"`
	ErrorKind       string  `json:"type_erreur,omitempty"`
	Error           string  `json:"erreur,omitempty"`
	ExtractionError string  `json:"erreur_extraction,omitempty"`
}

// Result summarizes a batch run. Outcomes preserve input order.
type Result struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"reussis"`
	Failed    int           `json:"echoues"`
	Outcomes  []Outcome     `json:"documents"`
	Elapsed   time.Duration `json:"-"`
}

// Config configures a Coordinator.
type Config struct {
	MaxConcurrency int
	MaxFileSizeMB  int
	// DeleteAfter removes the staged file copy once its document finished,
	// success or failure. Removal errors are logged, never propagated.
	DeleteAfter bool
	// DocumentTimeout bounds one document's whole pipeline run.
	DocumentTimeout time.Duration
}

// Coordinator fans a batch of files through the pipeline.
type Coordinator struct {
	recognizer TextRecognizer
	classifier DocumentClassifier
	extractor  FieldExtractor
	documents  DocumentStore
	cfg        Config
	logger     *slog.Logger
}

// New creates a Coordinator.
func New(recognizer TextRecognizer, classifier DocumentClassifier, extractor FieldExtractor, documents DocumentStore, cfg Config, logger *slog.Logger) *Coordinator {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.MaxFileSizeMB <= 0 {
		cfg.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
	if cfg.DocumentTimeout == 0 {
		cfg.DocumentTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		recognizer: recognizer,
		classifier: classifier,
		extractor:  extractor,
		documents:  documents,
		cfg:        cfg,
		logger:     logger,
	}
}

// ProcessBatch runs the pipeline over files. It never returns an error:
// every per-document problem becomes that document's failure outcome.
func (c *Coordinator) ProcessBatch(ctx context.Context, files []File) *Result {
	start := time.Now()
	outcomes := make([]Outcome, len(files))

	sem := make(chan struct{}, c.cfg.MaxConcurrency)
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, file File) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = c.processOne(ctx, file)
		}(i, file)
	}
	wg.Wait()

	res := &Result{
		Total:    len(files),
		Outcomes: outcomes,
		Elapsed:  time.Since(start),
	}
	for _, o := range outcomes {
		if o.Succeeded {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}

	c.logger.Info("batch.done",
		"total", res.Total,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
		"elapsed", res.Elapsed)
	return res
}

// processOne runs one document through the pipeline. Panics are converted
// to failure outcomes so a bug in one stage cannot take the batch down.
func (c *Coordinator) processOne(ctx context.Context, file File) (out Outcome) {
	out = Outcome{Filename: file.Filename}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("batch.panic", "filename", file.Filename, "panic", r)
			out.Succeeded = false
			out.ErrorKind = KindInternal
			out.Error = fmt.Sprintf("internal error: %v", r)
		}
		c.cleanup(file)
	}()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.DocumentTimeout)
	defer cancel()

	data, err := c.validate(file)
	if err != nil {
		out.ErrorKind = KindValidation
		out.Error = err.Error()
		return out
	}

	rec, err := c.recognizer.ExtractText(ctx, file.Filename, data)
	if err != nil {
		out.ErrorKind = KindRecognition
		out.Error = err.Error()
		return out
	}

	classification := c.classifier.Classify(ctx, rec.Text)
	extraction := c.extractor.Extract(ctx, rec.Text, classification.DocumentType)

	doc := &store.Document{
		ID:             uuid.New().String(),
		Filename:       file.Filename,
		RawText:        rec.Text,
		Classification: classification,
		CreatedAt:      time.Now().UTC(),
	}
	if extraction.Succeeded {
		doc.Extraction = &extraction
	} else {
		out.ExtractionError = extraction.ErrorDetail
	}

	if err := c.documents.PutDocument(ctx, doc); err != nil {
		out.ErrorKind = KindStorage
		out.Error = err.Error()
		return out
	}

	out.DocumentID = doc.ID
	out.Succeeded = true
	out.DocumentType = classification.DocumentType
	out.Category = string(classification.Category)
	out.Confidence = classification.Confidence
	return out
}

// validate enforces the extension whitelist and size ceiling before any
// recognition work, and loads the bytes if the input came as a path.
func (c *Coordinator) validate(file File) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !SupportedExtensions[ext] {
		return nil, fmt.Errorf("unsupported extension %q", ext)
	}

	data := file.Data
	if data == nil {
		if file.Path == "" {
			return nil, fmt.Errorf("no content for %s", file.Filename)
		}
		var err error
		data, err = os.ReadFile(file.Path)
		if err != nil {
			return nil, fmt.Errorf("read staged file: %w", err)
		}
	}

	maxBytes := c.cfg.MaxFileSizeMB * 1024 * 1024
	if len(data) > maxBytes {
		return nil, fmt.Errorf("file exceeds %d MB limit", c.cfg.MaxFileSizeMB)
	}
	return data, nil
}

func (c *Coordinator) cleanup(file File) {
	if !c.cfg.DeleteAfter || file.Path == "" {
		return
	}
	if err := os.Remove(file.Path); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("batch.cleanup_failed", "path", file.Path, "error", err)
	}
}
