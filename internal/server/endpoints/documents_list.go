package endpoints

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/api"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/svcctx"
)

// DocumentSummary is the list view of a processed document.
type DocumentSummary struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	DocumentType string    `json:"type_document"`
	Category     string    `json:"categorie"`
	Confidence   float64   `json:"confiance"`
	Extracted    bool      `json:"extraction"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListDocumentsResponse wraps the document list.
type ListDocumentsResponse struct {
	Documents []DocumentSummary `json:"documents"`
	Total     int               `json:"total"`
}

// ListDocumentsEndpoint handles GET /api/documents.
type ListDocumentsEndpoint struct{}

func (e *ListDocumentsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents", e.handler
}

func (e *ListDocumentsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List processed documents
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	ListDocumentsResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/documents [get]
func (e *ListDocumentsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}

	docs, err := st.ListDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := ListDocumentsResponse{Documents: make([]DocumentSummary, 0, len(docs))}
	for _, d := range docs {
		resp.Documents = append(resp.Documents, DocumentSummary{
			ID:           d.ID,
			Filename:     d.Filename,
			DocumentType: d.Classification.DocumentType,
			Category:     string(d.Classification.Category),
			Confidence:   d.Classification.Confidence,
			Extracted:    d.Extraction != nil,
			CreatedAt:    d.CreatedAt,
		})
	}
	resp.Total = len(resp.Documents)

	writeJSON(w, http.StatusOK, resp)
}

func (e *ListDocumentsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List processed documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListDocumentsResponse
			if err := client.Get(cmd.Context(), "/api/documents", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
