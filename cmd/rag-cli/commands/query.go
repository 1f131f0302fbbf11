package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/recyclens/rag-service/cmd/rag-cli/ui"
	"github.com/recyclens/rag-service/internal/bootstrap"
	"github.com/recyclens/rag-service/internal/retrieval"
	"github.com/recyclens/rag-service/pkg/client"
)

var (
	queryMaterial  string
	queryLocation  string
	queryCondition string
	queryContext   string
	queryJSON      bool
	queryRemote    bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Look up recycling regulations for a material",
	Long: `Look up recycling regulations for a material at a location.

By default the lookup runs in-process against the configured index. With
--remote it calls the regulations service at RAG_SERVICE_URL instead.`,
	Example: `  rag-cli query --material "Battery" --location "Albany, NY"
  rag-cli query -m "Tupperware" -l "Ithaca, NY" --condition clean --json`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryMaterial, "material", "m", "", "material to look up (required)")
	queryCmd.Flags().StringVarP(&queryLocation, "location", "l", "", "where the item is being disposed of (required)")
	queryCmd.Flags().StringVar(&queryCondition, "condition", "", "item condition, e.g. clean or broken")
	queryCmd.Flags().StringVar(&queryContext, "context", "", "free-text context passed along with the lookup")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the result as JSON")
	queryCmd.Flags().BoolVar(&queryRemote, "remote", false, "query the running service instead of the local index")
	_ = queryCmd.MarkFlagRequired("material")
	_ = queryCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(queryCmd)
}

type queryResult struct {
	Regulations  string   `json:"regulations"`
	Sources      []string `json:"sources"`
	Jurisdiction string   `json:"jurisdiction,omitempty"`
	Terms        []string `json:"terms,omitempty"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	var spin *ui.Spinner
	if !queryJSON {
		spin = ui.NewSpinner("Searching regulations...")
		spin.Start()
	}

	result, attempts, err := lookup(ctx)

	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	if queryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(result, attempts)
	return nil
}

// lookup runs the query remotely or in-process. Attempts are only available
// in-process.
func lookup(ctx context.Context) (*queryResult, []retrieval.Attempt, error) {
	if queryRemote {
		c := client.New(client.Config{BaseURL: cfg.Client.BaseURL, Timeout: cfg.Client.Timeout, Logger: cliLogger()})
		if !c.Configured() {
			return nil, nil, fmt.Errorf("no service URL configured; set RAG_SERVICE_URL")
		}
		resp := c.Query(ctx, client.Request{
			Material:  queryMaterial,
			Location:  queryLocation,
			Condition: queryCondition,
			Context:   queryContext,
		})
		if resp == nil {
			return &queryResult{Sources: []string{}}, nil, nil
		}
		return &queryResult{Regulations: resp.Regulations, Sources: resp.Sources}, nil, nil
	}

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: cliLogger()})
	if err != nil {
		return nil, nil, err
	}
	defer app.Close()

	out, err := app.Service.Lookup(ctx, retrieval.Request{
		Material:  queryMaterial,
		Location:  queryLocation,
		Condition: queryCondition,
		Context:   queryContext,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("lookup failed: %w", err)
	}

	return &queryResult{
		Regulations:  out.Regulations,
		Sources:      out.Sources,
		Jurisdiction: out.Jurisdiction,
		Terms:        out.Terms,
	}, out.Attempts, nil
}

func printResult(r *queryResult, attempts []retrieval.Attempt) {
	ui.Section("Recycling Regulations")
	ui.KeyValue("Material", queryMaterial)
	ui.KeyValue("Location", queryLocation)
	if r.Jurisdiction != "" {
		ui.KeyValue("Jurisdiction", r.Jurisdiction)
	}
	if len(r.Terms) > 0 {
		ui.KeyValue("Terms", strings.Join(r.Terms, ", "))
	}
	ui.Newline()

	if ui.Verbose() && len(attempts) > 0 {
		rows := make([][]string, 0, len(attempts))
		for _, a := range attempts {
			status := fmt.Sprintf("%d nodes", a.Nodes)
			if a.Err != nil {
				status = "error: " + a.Err.Error()
			}
			rows = append(rows, []string{
				a.Term,
				status,
				fmt.Sprintf("%d", a.TextLen),
				fmt.Sprintf("%d", a.SourceCount),
				fmt.Sprintf("%t", a.Replaced),
			})
		}
		ui.Table([]string{"Term", "Result", "Text", "Sources", "Best"}, rows)
		ui.Newline()
	}

	if r.Regulations == "" {
		ui.Warning("No regulations found for %q in %q.", queryMaterial, queryLocation)
		return
	}

	ui.Box("Regulations", r.Regulations, 80)
	ui.Newline()

	if len(r.Sources) > 0 {
		ui.Info("Sources:")
		ui.List(r.Sources)
	}
}
