package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lookahead/internal/autocomplete"
	"lookahead/internal/domain"
	"lookahead/internal/lookup"
)

func newSearchCmd(opts *options) *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "search [prefix]",
		Short: "Print the records matching a prefix",
		Long: `Runs the search without the UI. Pages are requested one after another
until an empty page ends the results or --pages pages were loaded.
An empty prefix matches every record.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pages < 0 {
				return fmt.Errorf("--pages must not be negative")
			}
			prefix := ""
			if len(args) > 0 {
				prefix = args[0]
			}

			_, cfg, err := opts.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			source := newSource(cfg)

			log.WithFields(log.Fields{"prefix": prefix, "pages": pages}).Info("Executing search command")
			results, err := collect(cmd.Context(), source, prefix, pages)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			printResults(cmd.OutOrStdout(), results, source.Calls())
			return nil
		},
	}

	cmd.Flags().IntVarP(&pages, "pages", "p", 0, "maximum number of pages to load, 0 loads all")
	return cmd
}

// collect drives a pipeline without debounce, asking for the next page after
// every snapshot until the results are done or maxPages pages were loaded.
func collect(ctx context.Context, source lookup.Source, prefix string, maxPages int) (domain.Results, error) {
	p := autocomplete.New(source,
		autocomplete.WithDebounce(0),
		autocomplete.WithInitial(autocomplete.TextValue(prefix)),
	)
	p.Start(ctx)
	defer p.Close()

	var last domain.Results
	for {
		select {
		case r, ok := <-p.Results():
			if !ok {
				return last, ctx.Err()
			}
			last = r
			if r.Err != nil {
				return r, r.Err
			}
			if r.Done || (maxPages > 0 && r.Page >= maxPages) {
				return r, nil
			}
			p.NextPage()
		case <-ctx.Done():
			return last, ctx.Err()
		}
	}
}

func printResults(w io.Writer, r domain.Results, calls int) {
	if len(r.Lookups) == 0 {
		fmt.Fprintf(w, "No records match %q.\n", r.Term)
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, l := range r.Lookups {
		table.Append([]string{strconv.Itoa(l.ID), l.Name})
	}
	table.Render()

	status := color.GreenString("complete")
	if !r.Done {
		status = color.YellowString("more available")
	}
	noun := "records"
	if len(r.Lookups) == 1 {
		noun = "record"
	}
	fmt.Fprintf(w, "%d %s for %q from %d backend calls, %s\n", len(r.Lookups), noun, r.Term, calls, status)
}
