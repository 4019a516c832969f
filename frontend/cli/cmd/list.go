package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/furisto/debrief/backend/debrief"
	"github.com/furisto/debrief/backend/share"
	"github.com/furisto/debrief/frontend/cli/pkg/terminal"
)

type DebriefDisplay struct {
	ID          string `json:"id" yaml:"id" detail:"default"`
	Status      string `json:"status" yaml:"status" detail:"default"`
	Title       string `json:"title" yaml:"title" detail:"default"`
	Date        string `json:"date" yaml:"date" detail:"default"`
	Created     string `json:"created" yaml:"created" detail:"default"`
	Gaps        int    `json:"gaps" yaml:"gaps" detail:"default"`
	Conclusions int    `json:"conclusions" yaml:"conclusions"`
}

type listOptions struct {
	RenderOptions RenderOptions
	Drafts        bool
}

func NewListCmd() *cobra.Command {
	var options listOptions

	cmd := &cobra.Command{
		Use:     "list [flags]",
		Short:   "List archived debriefs",
		Aliases: []string{"ls"},
		Example: `  # List all debriefs, newest first
  debrief list

  # Only drafts, as JSON
  debrief list --drafts --output json`,
		Args:    cobra.NoArgs,
		GroupID: "resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := getClock(cmd.Context())()
			records := getArchive(cmd.Context()).Load()

			displays := make([]*DebriefDisplay, 0, len(records))
			for _, r := range records {
				if options.Drafts && r.Finished() {
					continue
				}
				displays = append(displays, &DebriefDisplay{
					ID:          shortID(r.ID),
					Status:      terminal.StatusGlyph(r),
					Title:       share.Title(r),
					Date:        r.CreatedAt().Format("2 Jan 2006"),
					Created:     humanize.RelTime(r.CreatedAt(), now, "ago", "from now"),
					Gaps:        len(debrief.CleanList(r.Gaps)),
					Conclusions: len(debrief.CleanList(r.Conclusions)),
				})
			}

			if len(displays) == 0 && (options.RenderOptions.Format == "" || options.RenderOptions.Format == OutputFormatTable) {
				fmt.Fprintln(cmd.OutOrStdout(), "No debriefs yet. Start one with 'debrief new'.")
				return nil
			}
			return getRenderer(cmd.Context()).Render(displays, &options.RenderOptions)
		},
	}

	cmd.Flags().BoolVar(&options.Drafts, "drafts", false, "only list debriefs without conclusions")
	addRenderOptions(cmd, &options.RenderOptions)
	return cmd
}

// shortID is the id prefix shown in listings. Commands accept it in place of
// the full id.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
