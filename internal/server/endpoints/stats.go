package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/api"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/store"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/svcctx"
)

// StatsEndpoint handles GET /api/stats.
type StatsEndpoint struct{}

func (e *StatsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/stats", e.handler
}

func (e *StatsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Processing statistics
//	@Description	Document and synthesis counts with a per-type breakdown
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	store.Stats
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/stats [get]
func (e *StatsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}

	stats, err := st.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (e *StatsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show processing statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var stats store.Stats
			if err := client.Get(cmd.Context(), "/api/stats", &stats); err != nil {
				return err
			}
			return api.Output(stats)
		},
	}
}
