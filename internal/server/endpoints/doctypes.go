package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/api"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/doctypes"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/svcctx"
)

// ListDocumentTypesResponse wraps the type catalog.
type ListDocumentTypesResponse struct {
	Types []doctypes.Def `json:"types"`
	Total int            `json:"total"`
}

// ListDocumentTypesEndpoint handles GET /api/document-types.
type ListDocumentTypesEndpoint struct{}

func (e *ListDocumentTypesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/document-types", e.handler
}

func (e *ListDocumentTypesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List the document type catalog
//	@Tags			document-types
//	@Produce		json
//	@Success		200	{object}	ListDocumentTypesResponse
//	@Router			/api/document-types [get]
func (e *ListDocumentTypesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	types := svcctx.DocTypesFrom(r.Context())
	if types == nil {
		writeError(w, http.StatusServiceUnavailable, "type registry not initialized")
		return
	}

	defs := types.All()
	writeJSON(w, http.StatusOK, ListDocumentTypesResponse{Types: defs, Total: len(defs)})
}

func (e *ListDocumentTypesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the document type catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListDocumentTypesResponse
			if err := client.Get(cmd.Context(), "/api/document-types", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ReloadDocumentTypesRequest is the body for a catalog reload.
type ReloadDocumentTypesRequest struct {
	Types []doctypes.Def `json:"types"`
}

// ReloadDocumentTypesResponse reports the catalog size after reload.
type ReloadDocumentTypesResponse struct {
	Total int `json:"total"`
}

// ReloadDocumentTypesEndpoint handles POST /api/document-types/reload.
// The new catalog replaces the old one atomically. A rejected catalog
// leaves the current one untouched.
type ReloadDocumentTypesEndpoint struct{}

func (e *ReloadDocumentTypesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/document-types/reload", e.handler
}

func (e *ReloadDocumentTypesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Replace the document type catalog
//	@Tags			document-types
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ReloadDocumentTypesRequest	true	"New catalog"
//	@Success		200		{object}	ReloadDocumentTypesResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/document-types/reload [post]
func (e *ReloadDocumentTypesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	types := svcctx.DocTypesFrom(r.Context())
	if types == nil {
		writeError(w, http.StatusServiceUnavailable, "type registry not initialized")
		return
	}

	var req ReloadDocumentTypesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if err := types.Reload(req.Types); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ReloadDocumentTypesResponse{Total: types.Len()})
}

func (e *ReloadDocumentTypesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "reload <catalog.yaml>",
		Short: "Replace the document type catalog from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var defs []doctypes.Def
			if err := yaml.Unmarshal(data, &defs); err != nil {
				return fmt.Errorf("failed to parse catalog: %w", err)
			}

			client := api.NewClient(getServerURL())
			var resp ReloadDocumentTypesResponse
			if err := client.Post(cmd.Context(), "/api/document-types/reload", ReloadDocumentTypesRequest{Types: defs}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
