// Package recognize turns uploaded document bytes into plain text. Native
// PDF text layers are read directly; scanned PDFs and images go through the
// configured OCR provider.
package recognize

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/providers"
)

// minNativeTextLen is the threshold below which a PDF text layer is treated
// as absent. Scanner output often carries a few stray characters.
const minNativeTextLen = 50

// Result is the outcome of text recognition for one document.
type Result struct {
	Text     string
	Pages    int
	Method   string // "pdf-text" or the OCR provider name
	Duration time.Duration
}

// Error marks a recognition failure. The batch layer treats it as a per
// document failure rather than a pipeline fault.
type Error struct {
	Filename string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("recognition failed for %s: %v", e.Filename, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Recognizer extracts text from PDFs and images.
type Recognizer struct {
	ocr    providers.OCRProvider
	logger *slog.Logger
}

// New creates a Recognizer backed by the given OCR provider. The provider
// may be nil, in which case only PDFs with a native text layer succeed.
func New(ocr providers.OCRProvider, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{ocr: ocr, logger: logger}
}

var imageMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
}

// ExtractText recognizes the text of one document. The format is inferred
// from the filename extension.
func (r *Recognizer) ExtractText(ctx context.Context, filename string, data []byte) (*Result, error) {
	start := time.Now()
	ext := strings.ToLower(filepath.Ext(filename))

	var res *Result
	var err error
	switch {
	case ext == ".pdf":
		res, err = r.extractPDF(ctx, filename, data)
	case imageMIMETypes[ext] != "":
		res, err = r.extractImage(ctx, filename, data, imageMIMETypes[ext])
	default:
		err = &Error{Filename: filename, Err: fmt.Errorf("unsupported format %q", ext)}
	}
	if err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	r.logger.Info("recognize.done",
		"filename", filename,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"duration", res.Duration)
	return res, nil
}

// extractPDF tries the native text layer first and falls back to OCR when
// the document looks scanned.
func (r *Recognizer) extractPDF(ctx context.Context, filename string, data []byte) (*Result, error) {
	pageCount, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, &Error{Filename: filename, Err: fmt.Errorf("invalid PDF: %w", err)}
	}

	if text, ok := nativePDFText(data); ok {
		return &Result{Text: text, Pages: pageCount, Method: "pdf-text"}, nil
	}

	if r.ocr == nil {
		return nil, &Error{Filename: filename, Err: fmt.Errorf("no text layer and no OCR provider configured")}
	}

	r.logger.Debug("recognize.ocr_fallback", "filename", filename, "pages", pageCount)
	ocrRes, err := r.ocr.ProcessDocument(ctx, data, "application/pdf")
	if err != nil {
		return nil, &Error{Filename: filename, Err: fmt.Errorf("ocr: %w", err)}
	}
	return &Result{Text: ocrRes.Text, Pages: pageCount, Method: r.ocr.Name()}, nil
}

func (r *Recognizer) extractImage(ctx context.Context, filename string, data []byte, mimeType string) (*Result, error) {
	if r.ocr == nil {
		return nil, &Error{Filename: filename, Err: fmt.Errorf("no OCR provider configured for images")}
	}
	ocrRes, err := r.ocr.ProcessImage(ctx, data, mimeType)
	if err != nil {
		return nil, &Error{Filename: filename, Err: fmt.Errorf("ocr: %w", err)}
	}
	return &Result{Text: ocrRes.Text, Pages: 1, Method: r.ocr.Name()}, nil
}

// nativePDFText reads the embedded text layer. Returns false when the layer
// is missing or too thin to be the real content.
func nativePDFText(data []byte) (string, bool) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", false
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", false
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", false
	}

	text := strings.TrimSpace(buf.String())
	if len(text) < minNativeTextLen {
		return "", false
	}
	return text, true
}
