package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/api"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/store"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/svcctx"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/synthesis"
)

// CreateSynthesisRequest selects the documents to aggregate. An empty list
// means every stored document with an extraction.
type CreateSynthesisRequest struct {
	DocumentIDs []string `json:"document_ids"`
}

// CreateSynthesisEndpoint handles POST /api/syntheses.
type CreateSynthesisEndpoint struct{}

var _ api.Endpoint = (*CreateSynthesisEndpoint)(nil)

func (e *CreateSynthesisEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/syntheses", e.handler
}

func (e *CreateSynthesisEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Build a financing profile
//	@Description	Aggregate extracted documents into a financing profile
//	@Tags			syntheses
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateSynthesisRequest	true	"Document selection"
//	@Success		200		{object}	synthesis.Profile
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/syntheses [post]
func (e *CreateSynthesisEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	aggregator := svcctx.AggregatorFrom(r.Context())
	if st == nil || aggregator == nil {
		writeError(w, http.StatusServiceUnavailable, "synthesis services not initialized")
		return
	}

	var req CreateSynthesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	var docs []*store.Document
	var err error
	if len(req.DocumentIDs) > 0 {
		docs, err = st.GetDocumentsWithExtractions(r.Context(), req.DocumentIDs)
	} else {
		docs, err = st.ListDocuments(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	profile, err := aggregator.Aggregate(r.Context(), docs)
	if err != nil {
		if errors.Is(err, synthesis.ErrNoUsableInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (e *CreateSynthesisEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "create [document-id...]",
		Short: "Build a financing profile from processed documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var profile synthesis.Profile
			req := CreateSynthesisRequest{DocumentIDs: args}
			if err := client.Post(cmd.Context(), "/api/syntheses", req, &profile); err != nil {
				return err
			}
			return api.Output(profile)
		},
	}
}

// SynthesisSummary is the list view of a persisted synthesis.
type SynthesisSummary struct {
	DossierID  string  `json:"dossier_id"`
	Confidence float64 `json:"confidence"`
	CreatedAt  string  `json:"created_at"`
}

// ListSynthesesResponse wraps the synthesis list.
type ListSynthesesResponse struct {
	Syntheses []SynthesisSummary `json:"syntheses"`
	Total     int                `json:"total"`
}

// ListSynthesesEndpoint handles GET /api/syntheses.
type ListSynthesesEndpoint struct{}

func (e *ListSynthesesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/syntheses", e.handler
}

func (e *ListSynthesesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List financing syntheses
//	@Tags			syntheses
//	@Produce		json
//	@Success		200	{object}	ListSynthesesResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/syntheses [get]
func (e *ListSynthesesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}

	syns, err := st.ListSyntheses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := ListSynthesesResponse{Syntheses: make([]SynthesisSummary, 0, len(syns))}
	for _, s := range syns {
		resp.Syntheses = append(resp.Syntheses, SynthesisSummary{
			DossierID:  s.DossierID,
			Confidence: s.Confidence,
			CreatedAt:  s.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	resp.Total = len(resp.Syntheses)

	writeJSON(w, http.StatusOK, resp)
}

func (e *ListSynthesesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List financing syntheses",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListSynthesesResponse
			if err := client.Get(cmd.Context(), "/api/syntheses", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetSynthesisEndpoint handles GET /api/syntheses/{id}.
type GetSynthesisEndpoint struct{}

func (e *GetSynthesisEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/syntheses/{id}", e.handler
}

func (e *GetSynthesisEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a synthesis by dossier ID
//	@Tags			syntheses
//	@Produce		json
//	@Param			id	path		string	true	"Dossier ID"
//	@Success		200	{object}	store.Synthesis
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/syntheses/{id} [get]
func (e *GetSynthesisEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "dossier id is required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}

	syn, err := st.GetSynthesis(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "synthesis not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, syn)
}

func (e *GetSynthesisEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <dossier-id>",
		Short: "Get a synthesis by dossier ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var syn store.Synthesis
			if err := client.Get(cmd.Context(), "/api/syntheses/"+args[0], &syn); err != nil {
				return err
			}
			return api.Output(syn)
		},
	}
}

// SynthesisReportEndpoint handles GET /api/syntheses/{id}/report. It renders
// the persisted profile as a Markdown financing report.
type SynthesisReportEndpoint struct{}

func (e *SynthesisReportEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/syntheses/{id}/report", e.handler
}

func (e *SynthesisReportEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Render a financing report
//	@Description	Render the persisted profile as a Markdown carte de financement
//	@Tags			syntheses
//	@Produce		plain
//	@Param			id	path		string	true	"Dossier ID"
//	@Success		200	{string}	string
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/syntheses/{id}/report [get]
func (e *SynthesisReportEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "dossier id is required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	renderer := svcctx.RendererFrom(r.Context())
	if st == nil || renderer == nil {
		writeError(w, http.StatusServiceUnavailable, "report services not initialized")
		return
	}

	syn, err := st.GetSynthesis(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "synthesis not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var profile synthesis.Profile
	if err := json.Unmarshal(syn.Profile, &profile); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("stored profile is unreadable: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, renderer.Render(&profile))
}

func (e *SynthesisReportEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "report <dossier-id>",
		Short: "Render the Markdown report for a synthesis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			text, err := client.GetText(cmd.Context(), "/api/syntheses/"+args[0]+"/report")
			if err != nil {
				return err
			}
			if outputFile != "" {
				return writeFile(outputFile, text)
			}
			fmt.Print(text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the report to a file")
	return cmd
}
