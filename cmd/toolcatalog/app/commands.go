package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/siteoptz/toolcatalog"
	"github.com/siteoptz/toolcatalog/internal/cmd/output"
	"github.com/siteoptz/toolcatalog/pkg/logging"
	"github.com/siteoptz/toolcatalog/pkg/normalize"
	"github.com/siteoptz/toolcatalog/pkg/reconciler"
	"github.com/siteoptz/toolcatalog/pkg/sources"
	"github.com/siteoptz/toolcatalog/pkg/store"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

// NewDedupeCommand creates the dedupe command.
func (a *App) NewDedupeCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:     "dedupe <file|dir>...",
		GroupID: "core",
		Short:   "Remove duplicates from scraped records",
		Long: `Dedupe normalizes and validates scraped records, collapses duplicates
within the batch and reports the groups that were merged. The stored
catalog is not touched; use --out to write the deduplicated catalog.`,
		Example: `  toolcatalog dedupe data/scraped/
  toolcatalog dedupe g2.json capterra.yaml --out data/tools.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			raws, err := loadArgs(cmd, args)
			if err != nil {
				return err
			}

			opts, err := a.ReconcilerOptions()
			if err != nil {
				return err
			}
			rec, err := reconciler.New(opts...)
			if err != nil {
				return err
			}
			res, err := rec.Ingest(ctx, raws, nil)
			if err != nil {
				return err
			}

			if out != "" {
				st, err := store.NewFile(out)
				if err != nil {
					return err
				}
				if err := st.Save(ctx, res.Catalog); err != nil {
					return err
				}
				logging.FromContext(ctx).Info().Str("path", out).Int("tools", len(res.Catalog.Tools)).Msg("Wrote catalog")
			}

			if !a.tableOutput() {
				return a.print(cmd, res)
			}
			return a.printSections(cmd,
				section{"Summary", output.IngestSummary(res)},
				section{"Duplicate Groups", output.Groups(res.Dedupe.Groups)},
				section{"Needs Review", output.Reviews(res.Dedupe.Review)},
				section{"Rejected", output.Rejections(res.Errors)},
			)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the deduplicated catalog to this file (.json or .yaml)")
	return cmd
}

// NewMergeCommand creates the merge command.
func (a *App) NewMergeCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:     "merge <file|dir>...",
		GroupID: "core",
		Short:   "Merge scraped records into the stored catalog",
		Long: `Merge runs the full pipeline on scraped records and folds the result
into the stored catalog. Existing entries are updated only when the new
record is meaningfully more complete; everything else is added or skipped.`,
		Example: `  toolcatalog merge data/scraped/
  toolcatalog merge --dry-run new.json -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, err := sources.Resolve(args)
			if err != nil {
				return err
			}

			var client toolcatalog.Client
			if dryRun {
				client, err = a.DryRunClient()
				if err == nil {
					defer client.Close()
				}
			} else {
				client, err = a.Client()
			}
			if err != nil {
				return err
			}

			res, err := client.IngestSources(cmd.Context(), srcs...)
			if err != nil {
				return err
			}

			if !a.tableOutput() {
				return a.print(cmd, res)
			}
			summary := output.IngestSummary(res)
			if dryRun {
				summary = append(summary, output.Field{Label: "dry run", Value: true})
			}
			return a.printSections(cmd,
				section{"Summary", summary},
				section{"Changes", output.Merge(*res.Merge)},
				section{"Needs Review", output.Reviews(res.Merge.Review)},
				section{"Rejected", output.Rejections(res.Errors)},
			)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report the merge without saving the catalog")
	return cmd
}

// NewCheckCommand creates the check command.
func (a *App) NewCheckCommand() *cobra.Command {
	var website string
	cmd := &cobra.Command{
		Use:     "check <name>",
		GroupID: "core",
		Short:   "Check whether a tool is already in the catalog",
		Example: `  toolcatalog check "Chat GPT" --website chat.openai.com`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.Client()
			if err != nil {
				return err
			}
			catalog, err := client.Load(cmd.Context())
			if err != nil {
				return err
			}

			name := strings.TrimSpace(args[0])
			candidate := tools.Tool{
				ID:      normalize.DeriveID(name),
				Slug:    normalize.DeriveID(name),
				Name:    name,
				Website: normalize.CanonicalURL(website),
			}
			res := client.Reconciler().FindDuplicates(candidate, catalog.Tools)

			if !a.tableOutput() {
				return a.print(cmd, res)
			}
			matches := make(output.Reviews, 0, len(res.Definite)+len(res.Possible))
			for _, m := range res.Definite {
				matches = append(matches, reconciler.Review{Candidate: name + " (definite)", Match: m})
			}
			for _, m := range res.Possible {
				matches = append(matches, reconciler.Review{Candidate: name + " (possible)", Match: m})
			}
			if len(matches) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No duplicates of %q in %d tools\n", name, len(catalog.Tools))
				return nil
			}
			return a.print(cmd, matches)
		},
	}
	cmd.Flags().StringVar(&website, "website", "", "website of the candidate tool")
	return cmd
}

// NewCategorizeCommand creates the categorize command.
func (a *App) NewCategorizeCommand() *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:     "categorize <label>...",
		GroupID: "catalog",
		Short:   "Map category labels onto the catalog taxonomy",
		Long: `Categorize maps scraper category labels onto canonical categories.
With --text each argument is treated as free text, such as a name and
description, and classified by keyword.`,
		Example: `  toolcatalog categorize seo "voice ai" video
  toolcatalog categorize --text "Turns blog posts into podcasts with AI voices"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.ReconcilerOptions()
			if err != nil {
				return err
			}
			rec, err := reconciler.New(opts...)
			if err != nil {
				return err
			}
			n := rec.Normalizer()

			out := make(categorizations, 0, len(args))
			for _, arg := range args {
				category := n.Category(arg)
				if text {
					category = n.Classify(arg)
				}
				out = append(out, categorization{Input: arg, Category: category})
			}
			return a.print(cmd, out)
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "classify free text by keyword instead of mapping a label")
	return cmd
}

// NewStatsCommand creates the stats command.
func (a *App) NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "stats",
		GroupID: "catalog",
		Short:   "Show tool counts per category",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.Client()
			if err != nil {
				return err
			}
			catalog, err := client.Load(cmd.Context())
			if err != nil {
				return err
			}
			meta := catalog.Metadata
			meta.Categories = tools.CountCategories(catalog.Tools)

			if !a.tableOutput() {
				return a.print(cmd, meta)
			}
			return a.printSections(cmd,
				section{"Catalog", output.Summary{
					{Label: "tools", Value: len(catalog.Tools)},
					{Label: "categories", Value: len(meta.Categories)},
					{Label: "store", Value: a.config.Store + ":" + a.config.Catalog},
				}},
				section{"Categories", output.Categories(meta)},
			)
		},
	}
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.tableOutput() {
				return a.print(cmd, map[string]string{
					"version": a.version,
					"commit":  a.commit,
					"date":    a.date,
					"builtBy": a.builtBy,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "toolcatalog %s (commit %s, built %s by %s)\n",
				a.version, a.commit, a.date, a.builtBy)
			return nil
		},
	}
}

// loadArgs resolves arguments to sources and loads every record.
func loadArgs(cmd *cobra.Command, args []string) ([]tools.Raw, error) {
	srcs, err := sources.Resolve(args)
	if err != nil {
		return nil, err
	}
	return sources.LoadAll(cmd.Context(), srcs)
}

type categorization struct {
	Input    string `json:"input" yaml:"input"`
	Category string `json:"category" yaml:"category"`
}

type categorizations []categorization

// Value implements output.Tabular.
func (c categorizations) Value() any { return []categorization(c) }

// Table implements output.Tabular.
func (c categorizations) Table() output.Data {
	data := output.Data{Headers: []string{"Input", "Category"}}
	for _, row := range c {
		data.Rows = append(data.Rows, []string{row.Input, row.Category})
	}
	return data
}

// section is one titled block of table output.
type section struct {
	title string
	data  output.Tabular
}

func (a *App) tableOutput() bool {
	return output.DetectFormat(a.config.Format) == output.FormatTable
}

// printSections prints non-empty sections with a heading each. Groups are
// truncated by the formatter.
func (a *App) printSections(cmd *cobra.Command, sections ...section) error {
	w := cmd.OutOrStdout()
	first := true
	for _, s := range sections {
		if len(s.data.Table().Rows) == 0 {
			continue
		}
		if !first {
			fmt.Fprintln(w)
		}
		first = false
		fmt.Fprintf(w, "%s:\n", s.title)
		if err := a.print(cmd, s.data); err != nil {
			return err
		}
	}
	return nil
}
