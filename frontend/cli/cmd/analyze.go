package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/furisto/debrief/backend/analytics"
	"github.com/furisto/debrief/backend/debrief"
	"github.com/furisto/debrief/backend/gateway"
	"github.com/furisto/debrief/backend/model"
	"github.com/furisto/debrief/frontend/cli/pkg/fail"
	"github.com/furisto/debrief/frontend/cli/pkg/terminal"
)

type analyzeOptions struct {
	Raw  bool
	JSON bool
}

func NewAnalyzeCmd() *cobra.Command {
	var options analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <id> [flags]",
		Short: "Run a deep analysis of a debrief",
		Long: `Run a deep analysis of a debrief with the slower analysis model.

The analysis covers root causes, a free text assessment and operative
recommendations. It is printed and not stored with the debrief.`,
		Example: `  # Analyze a debrief
  debrief analyze 3f2a

  # Machine readable output
  debrief analyze 3f2a --json`,
		Args:    cobra.ExactArgs(1),
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			record, err := findRecord(ctx, args[0])
			if err != nil {
				return err
			}
			if !record.Complete() {
				return fmt.Errorf("debrief %s is missing a title, plan or outcome; complete it with 'debrief edit %s' first", shortID(record.ID), shortID(record.ID))
			}

			credential, err := resolveCredential(ctx)
			if err != nil {
				return err
			}
			gw := newGateway(ctx, credential)

			analysis, err := terminal.SpinnerFunc(cmd.ErrOrStderr(), "Analyzing debrief...", func() (*gateway.DeepAnalysis, error) {
				return gw.AnalyzeDeep(ctx, record.WhatWasPlanned, record.WhatHappened, record.Gaps)
			})
			analytics.EmitDebriefAnalyzed(getAnalytics(ctx), deepModel(ctx), err == nil)
			if err != nil {
				return fail.EnhanceError(err, map[string]any{"id": record.ID})
			}

			if options.JSON {
				return getRenderer(ctx).Render(analysis, &RenderOptions{Format: OutputFormatJSON})
			}

			markdown := AnalysisMarkdown(record, analysis)
			if options.Raw {
				fmt.Fprint(cmd.OutOrStdout(), markdown)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), terminal.RenderMarkdown(markdown, 100))
			return nil
		},
	}

	cmd.Flags().BoolVar(&options.Raw, "raw", false, "print markdown without terminal styling")
	cmd.Flags().BoolVar(&options.JSON, "json", false, "print the analysis as JSON")
	cmd.MarkFlagsMutuallyExclusive("raw", "json")
	return cmd
}

func AnalysisMarkdown(record debrief.Record, analysis *gateway.DeepAnalysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Analysis: %s\n\n", strings.TrimSpace(record.Title))

	if text := strings.TrimSpace(analysis.Analysis); text != "" {
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	sections := []struct {
		heading string
		items   []string
	}{
		{"Root causes", analysis.RootCauses},
		{"Recommendations", analysis.Recommendations},
	}
	for _, section := range sections {
		if len(section.items) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n\n", section.heading)
		for _, item := range section.items {
			fmt.Fprintf(&sb, "- %s\n", item)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func deepModel(ctx context.Context) string {
	if name := getConfig(ctx).Models.Deep; name != "" {
		return name
	}
	return model.DeepModel
}

// isMissingCredential reports whether err asks for a stored API key.
func isMissingCredential(err error) bool {
	return errors.Is(err, gateway.ErrMissingCredential)
}
