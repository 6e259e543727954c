package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/classify"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/extract"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/recognize"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRecognizer struct {
	failFor  map[string]error
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeRecognizer) ExtractText(ctx context.Context, filename string, data []byte) (*recognize.Result, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if cur <= seen || f.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err, ok := f.failFor[filename]; ok {
		return nil, err
	}
	return &recognize.Result{Text: "texte reconnu de " + filename, Pages: 1, Method: "fake"}, nil
}

type fakeClassifier struct {
	panicFor string
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) classify.Result {
	if f.panicFor != "" && len(text) > 0 && text == f.panicFor {
		panic("classifier bug")
	}
	return classify.Result{
		DocumentType: "Offre de prêt",
		Category:     "Financement",
		Confidence:   0.9,
		Method:       classify.MethodLLM,
		Succeeded:    true,
	}
}

type fakeExtractor struct {
	fail bool
}

func (f *fakeExtractor) Extract(ctx context.Context, text, documentType string) extract.Result {
	if f.fail {
		return extract.Result{DocumentType: documentType, Succeeded: false, ErrorDetail: "inference down"}
	}
	return extract.Result{
		DocumentType: documentType,
		SchemaID:     "offre_pret",
		Fields:       map[string]any{"montant_pret": "250 000 €"},
		Confidence:   0.9,
		Succeeded:    true,
	}
}

type memStore struct {
	mu   sync.Mutex
	docs []*store.Document
	err  error
}

func (m *memStore) PutDocument(ctx context.Context, doc *store.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.docs = append(m.docs, doc)
	return nil
}

func TestBatchIsolation(t *testing.T) {
	rec := &fakeRecognizer{failFor: map[string]error{
		"doc7.pdf": errors.New("recognizer exploded"),
	}}
	st := &memStore{}
	c := New(rec, &fakeClassifier{}, &fakeExtractor{}, st, Config{}, testLogger())

	files := make([]File, 10)
	for i := range files {
		files[i] = File{Filename: fmt.Sprintf("doc%d.pdf", i+1), Data: []byte("x")}
	}
	files[3].Filename = "doc4.docx" // unsupported extension

	res := c.ProcessBatch(context.Background(), files)

	if res.Total != 10 || len(res.Outcomes) != 10 {
		t.Fatalf("Total = %d, outcomes = %d", res.Total, len(res.Outcomes))
	}
	if res.Failed != 2 || res.Succeeded != 8 {
		t.Fatalf("Succeeded = %d, Failed = %d, want 8/2", res.Succeeded, res.Failed)
	}

	// Outcomes preserve input order.
	for i, o := range res.Outcomes {
		want := files[i].Filename
		if o.Filename != want {
			t.Errorf("outcome %d filename = %q, want %q", i, o.Filename, want)
		}
	}

	if res.Outcomes[3].Succeeded || res.Outcomes[3].ErrorKind != KindValidation {
		t.Errorf("outcome 4 = %+v, want validation failure", res.Outcomes[3])
	}
	if res.Outcomes[6].Succeeded || res.Outcomes[6].ErrorKind != KindRecognition {
		t.Errorf("outcome 7 = %+v, want recognition failure", res.Outcomes[6])
	}
	if len(st.docs) != 8 {
		t.Errorf("stored documents = %d, want 8", len(st.docs))
	}
}

func TestBatchConcurrencyBound(t *testing.T) {
	rec := &fakeRecognizer{delay: 5 * time.Millisecond}
	c := New(rec, &fakeClassifier{}, &fakeExtractor{}, &memStore{}, Config{MaxConcurrency: 5}, testLogger())

	files := make([]File, 50)
	for i := range files {
		files[i] = File{Filename: fmt.Sprintf("doc%d.pdf", i), Data: []byte("x")}
	}

	res := c.ProcessBatch(context.Background(), files)
	if res.Succeeded != 50 {
		t.Fatalf("Succeeded = %d", res.Succeeded)
	}
	if max := rec.maxSeen.Load(); max > 5 {
		t.Errorf("observed %d concurrent recognitions, bound is 5", max)
	}
}

func TestBatchExtractionFailureStillStoresDocument(t *testing.T) {
	st := &memStore{}
	c := New(&fakeRecognizer{}, &fakeClassifier{}, &fakeExtractor{fail: true}, st, Config{}, testLogger())

	res := c.ProcessBatch(context.Background(), []File{{Filename: "doc.pdf", Data: []byte("x")}})

	o := res.Outcomes[0]
	if !o.Succeeded {
		t.Fatalf("outcome = %+v, extraction failure must not fail the document", o)
	}
	if o.ExtractionError == "" {
		t.Error("ExtractionError should carry the cause")
	}
	if len(st.docs) != 1 {
		t.Fatalf("stored = %d", len(st.docs))
	}
	if st.docs[0].Extraction != nil {
		t.Error("stored extraction should be nil after failure")
	}
	if st.docs[0].Classification.DocumentType == "" {
		t.Error("classification must still be persisted")
	}
}

func TestBatchStorageFailure(t *testing.T) {
	st := &memStore{err: errors.New("disk full")}
	c := New(&fakeRecognizer{}, &fakeClassifier{}, &fakeExtractor{}, st, Config{}, testLogger())

	res := c.ProcessBatch(context.Background(), []File{{Filename: "doc.pdf", Data: []byte("x")}})
	o := res.Outcomes[0]
	if o.Succeeded || o.ErrorKind != KindStorage {
		t.Errorf("outcome = %+v, want storage failure", o)
	}
}

func TestBatchPanicBecomesFailureOutcome(t *testing.T) {
	rec := &fakeRecognizer{}
	cls := &fakeClassifier{panicFor: "texte reconnu de boom.pdf"}
	c := New(rec, cls, &fakeExtractor{}, &memStore{}, Config{}, testLogger())

	res := c.ProcessBatch(context.Background(), []File{
		{Filename: "ok.pdf", Data: []byte("x")},
		{Filename: "boom.pdf", Data: []byte("x")},
	})

	if res.Succeeded != 1 || res.Failed != 1 {
		t.Fatalf("Succeeded = %d, Failed = %d", res.Succeeded, res.Failed)
	}
	if res.Outcomes[1].ErrorKind != KindInternal {
		t.Errorf("outcome = %+v, want internal failure", res.Outcomes[1])
	}
}

func TestBatchDeleteAfterRemovesStagedFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.pdf")
	bad := filepath.Join(dir, "bad.docx")
	for _, p := range []string{good, bad} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	c := New(&fakeRecognizer{}, &fakeClassifier{}, &fakeExtractor{}, &memStore{},
		Config{DeleteAfter: true}, testLogger())

	c.ProcessBatch(context.Background(), []File{
		{Filename: "good.pdf", Path: good},
		{Filename: "bad.docx", Path: bad},
	})

	// Staged copies go away whether the document succeeded or not.
	for _, p := range []string{good, bad} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists", p)
		}
	}
}

func TestBatchSizeLimit(t *testing.T) {
	c := New(&fakeRecognizer{}, &fakeClassifier{}, &fakeExtractor{}, &memStore{},
		Config{MaxFileSizeMB: 1}, testLogger())

	big := make([]byte, 2*1024*1024)
	res := c.ProcessBatch(context.Background(), []File{{Filename: "big.pdf", Data: big}})
	o := res.Outcomes[0]
	if o.Succeeded || o.ErrorKind != KindValidation {
		t.Errorf("outcome = %+v, want validation failure for oversized file", o)
	}
}
