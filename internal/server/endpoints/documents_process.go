package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/api"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/batch"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/svcctx"
)

// ProcessDocumentsEndpoint handles POST /api/documents with multipart uploads.
// Every file runs the recognize, classify, extract, store pipeline. One
// outcome comes back per file, in upload order.
type ProcessDocumentsEndpoint struct{}

var _ api.Endpoint = (*ProcessDocumentsEndpoint)(nil)

func (e *ProcessDocumentsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents", e.handler
}

func (e *ProcessDocumentsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Process financing documents
//	@Description	Upload one or more documents and run the full analysis pipeline
//	@Tags			documents
//	@Accept			mpfd
//	@Produce		json
//	@Param			files	formData	file	true	"Documents to process (PDF or image)"
//	@Success		200		{object}	batch.Result
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/documents [post]
func (e *ProcessDocumentsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 100 << 20 // 100MB
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	uploads := r.MultipartForm.File["files"]
	if len(uploads) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	coordinator := svcctx.BatchFrom(r.Context())
	if coordinator == nil {
		writeError(w, http.StatusServiceUnavailable, "batch coordinator not initialized")
		return
	}
	homeDir := svcctx.HomeFrom(r.Context())

	files := make([]batch.File, 0, len(uploads))
	for _, fh := range uploads {
		src, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to open %s: %v", fh.Filename, err))
			return
		}

		// Stage to the uploads directory when a home is configured so
		// delete_after_processing can clean up. Otherwise keep in memory.
		if homeDir != nil {
			dest := homeDir.UploadPath(fh.Filename)
			dst, err := os.Create(dest)
			if err != nil {
				src.Close()
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to stage %s: %v", fh.Filename, err))
				return
			}
			_, err = io.Copy(dst, src)
			src.Close()
			dst.Close()
			if err != nil {
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to stage %s: %v", fh.Filename, err))
				return
			}
			files = append(files, batch.File{Filename: fh.Filename, Path: dest})
			continue
		}

		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read %s: %v", fh.Filename, err))
			return
		}
		files = append(files, batch.File{Filename: fh.Filename, Data: data})
	}

	result := coordinator.ProcessBatch(r.Context(), files)
	writeJSON(w, http.StatusOK, result)
}

func (e *ProcessDocumentsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "process <file> [file...]",
		Short: "Upload and process financing documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var result batch.Result
			if err := client.PostFiles(cmd.Context(), "/api/documents", args, &result); err != nil {
				return err
			}
			return api.Output(result)
		},
	}
}
