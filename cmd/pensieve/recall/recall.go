// Package recallcmder provides the recall command for querying memories via
// the pensieve API.
package recallcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/api"
	"github.com/pensieveco/pensieve/pkg/cliui"
	"github.com/pensieveco/pensieve/pkg/config"
	"github.com/pensieveco/pensieve/pkg/recall"
	"github.com/pensieveco/pensieve/pkg/utils"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	frameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	chunkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	gistStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Italic(true)
)

type recallCommander struct {
	query   string
	topK    int
	frames  []string
	hybrid  bool
	quiet   bool
	context bool

	apiTarget string
}

const recallLongDesc string = `Recall memories relevant to a query.

Queries a running pensieve API server and prints the most relevant memories
ranked by semantic similarity. Each accepted result reinforces the memory it
surfaced, so recalled memories become easier to recall again.

Use --hybrid to merge markdown corpus chunks into the result list, --frames
to bias perspective selection toward the active conversation frames, and
--context to print a rendered markdown block ready for prompt injection.

Use --quiet to output only memory IDs, one per line.

Example:
  pensieve recall "what restaurants does the user like"
  pensieve recall "deployment checklist" --hybrid --top 5
  pensieve recall "dinner plans" --frames food,planning --context`

const recallShortDesc string = "Recall memories relevant to a query"

func NewRecallCmd() *cobra.Command {
	cmder := &recallCommander{}

	cmd := &cobra.Command{
		Use:   "recall <query>",
		Short: recallShortDesc,
		Long:  recallLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", int(defaults.Recall.MaxResults), "Number of results to return")
	cmd.Flags().StringSliceVar(&cmder.frames, "frames", nil, "Context frames for perspective selection")
	cmd.Flags().BoolVar(&cmder.hybrid, "hybrid", false, "Merge markdown corpus chunks into the results")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only memory IDs, one per line (for piping)")
	cmd.Flags().BoolVar(&cmder.context, "context", false, "Print a rendered markdown context block")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Pensieve API server URL")

	return cmd
}

func (c *recallCommander) run() error {
	output, err := RecallAPI(c.apiTarget, c.query, c.topK, c.frames, c.hybrid)
	if err != nil {
		return err
	}

	if output.Count == 0 {
		if !c.quiet {
			fmt.Println("No relevant memories found.")
		}
		return nil
	}

	if c.quiet {
		for _, result := range output.Results {
			fmt.Println(result.ID)
		}
		return nil
	}

	if c.context {
		rendered, err := cliui.RenderMarkdown(recall.FormatForContext(output.Results, true))
		if err != nil {
			fmt.Println(recall.FormatForContext(output.Results, true))
			return nil
		}
		fmt.Print(rendered)
		return nil
	}

	fmt.Printf("\n%s %s\n\n",
		cliui.HeaderStyle.Render("Recalled memories for:"),
		idStyle.Render(fmt.Sprintf("%q", output.Query)),
	)

	for i, result := range output.Results {
		c.printResult(i+1, result)
	}

	return nil
}

func (c *recallCommander) printResult(rank int, result recall.Result) {
	header := idStyle.Render(result.ID)
	if result.Type == recall.ResultTypeMarkdownChunk {
		header = chunkStyle.Render(result.ID)
	}

	fmt.Printf("  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("similarity: %.3f  salience: %.2f", result.Similarity, result.Salience)),
		header,
	)

	summary := utils.Truncate(strings.ReplaceAll(result.Summary, "\n", " "), 97)
	if summary != "" {
		fmt.Printf("  %s\n", summaryStyle.Render(summary))
	}

	if result.Perspective != nil && result.Perspective.Gist != "" {
		fmt.Printf("  %s %s\n",
			frameStyle.Render("["+result.Perspective.Frame+"]"),
			gistStyle.Render(result.Perspective.Gist),
		)
	}

	if len(result.Frames) > 0 {
		fmt.Printf("  %s\n", frameStyle.Render("frames: "+strings.Join(result.Frames, ", ")))
	}
	if result.Source != "" {
		fmt.Printf("  %s\n", frameStyle.Render("source: "+result.Source))
	}

	fmt.Println()
}

// RecallAPI calls the pensieve recall API and returns the parsed response.
// Exported so other commands can reuse it.
func RecallAPI(apiTarget, query string, topK int, frames []string, hybrid bool) (*api.RecallResponse, error) {
	recallURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	recallURL.Path = "/v1/recall"
	q := recallURL.Query()
	q.Set("query", query)
	q.Set("max_results", strconv.Itoa(topK))
	if len(frames) > 0 {
		q.Set("frames", strings.Join(frames, ","))
	}
	if hybrid {
		q.Set("hybrid", "true")
	}
	recallURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, recallURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating recall request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pensieve API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recall request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output api.RecallResponse
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse recall response: %w", err)
	}

	return &output, nil
}
