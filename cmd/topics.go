package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mirrorlake/pinharvest/internal/catalog"
)

// newTopicsCmd creates and configures the 'topics' subcommand. It only reads
// the embedded catalog, so it skips service initialization entirely.
func newTopicsCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Lists the built-in category and topic catalog",
		Long: `Prints every category and its search topics in catalog order. This is
the full set a harvest with categories=ALL would walk; use --category to
inspect a single category.`,

		Annotations: map[string]string{noServicesAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTopicsCommand(cmd, category)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "limit the listing to one category name")
	return cmd
}

func runTopicsCommand(cmd *cobra.Command, category string) error {
	cats := catalog.Categories()
	if category != "" {
		name := catalog.NormalizeCategory(category)
		if catalog.TopicsFor(name) == nil {
			return fmt.Errorf("unknown category %q", name)
		}
		cats = []string{name}
	}

	out := cmd.OutOrStdout()
	total := 0
	for _, cat := range cats {
		topics := catalog.TopicsFor(cat)
		fmt.Fprintf(out, "%s (%d topics)\n", cat, len(topics))
		for _, q := range topics {
			fmt.Fprintf(out, "  %s\n", q)
		}
		total += len(topics)
	}
	fmt.Fprintf(out, "%d categories, %d topics\n", len(cats), total)
	return nil
}
