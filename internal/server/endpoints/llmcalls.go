package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/api"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/llmcall"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/svcctx"
)

// ListLLMCallsResponse wraps the recent LLM call history.
type ListLLMCallsResponse struct {
	Calls []llmcall.Call `json:"calls"`
	Total int            `json:"total"`
}

// ListLLMCallsEndpoint handles GET /api/llm-calls.
type ListLLMCallsEndpoint struct{}

func (e *ListLLMCallsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/llm-calls", e.handler
}

func (e *ListLLMCallsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List recent LLM calls
//	@Description	Recent LLM call records, newest first
//	@Tags			llm-calls
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum number of calls"
//	@Success		200		{object}	ListLLMCallsResponse
//	@Router			/api/llm-calls [get]
func (e *ListLLMCallsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	history := svcctx.LLMCallsFrom(r.Context())
	if history == nil {
		writeError(w, http.StatusServiceUnavailable, "call history not initialized")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	calls := history.List(limit)
	writeJSON(w, http.StatusOK, ListLLMCallsResponse{Calls: calls, Total: len(calls)})
}

func (e *ListLLMCallsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent LLM calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/llm-calls"
			if limit > 0 {
				path += "?limit=" + strconv.Itoa(limit)
			}
			var resp ListLLMCallsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of calls")
	return cmd
}

// LLMCallStatsEndpoint handles GET /api/llm-calls/stats.
type LLMCallStatsEndpoint struct{}

func (e *LLMCallStatsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/llm-calls/stats", e.handler
}

func (e *LLMCallStatsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		LLM call statistics
//	@Tags			llm-calls
//	@Produce		json
//	@Success		200	{object}	llmcall.Stats
//	@Router			/api/llm-calls/stats [get]
func (e *LLMCallStatsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	history := svcctx.LLMCallsFrom(r.Context())
	if history == nil {
		writeError(w, http.StatusServiceUnavailable, "call history not initialized")
		return
	}

	writeJSON(w, http.StatusOK, history.Summarize())
}

func (e *LLMCallStatsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show LLM call statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var stats llmcall.Stats
			if err := client.Get(cmd.Context(), "/api/llm-calls/stats", &stats); err != nil {
				return err
			}
			return api.Output(stats)
		},
	}
}
