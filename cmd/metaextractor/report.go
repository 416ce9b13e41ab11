package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"metaextractor/internal/model"
)

// WriteReport prints one line per source with its status and counts, followed
// by the incomplete objects of partial sources
func WriteReport(w io.Writer, results []model.ExtractionResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tENGINE\tSTATUS\tSCHEMAS\tTABLES\tDETAIL")

	for _, r := range results {
		var schemas, tables int
		var detail string
		switch {
		case r.Failure != nil:
			detail = string(r.Failure.Kind) + ": " + r.Failure.Message
			if r.Failure.Timeout {
				detail += " (timeout)"
			}
		case r.Catalog != nil:
			schemas, tables = len(r.Catalog.Schemas), r.Catalog.TableCount()
			if incomplete := incompleteObjects(r.Catalog); len(incomplete) > 0 {
				detail = "incomplete: " + strings.Join(incomplete, ", ")
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", r.Source, r.Engine, r.Status(), schemas, tables, detail)
	}

	s := model.Summarize(results)
	fmt.Fprintf(tw, "\n%d succeeded, %d partial, %d failed\n", s.Success, s.Partial, s.Failed)
	return tw.Flush()
}

func incompleteObjects(c *model.Catalog) []string {
	var out []string
	for _, s := range c.Schemas {
		if s.Incomplete {
			out = append(out, s.Name)
		}
		for _, t := range s.Tables {
			if t.Incomplete {
				out = append(out, s.Name+"."+t.Name)
			}
		}
	}
	return out
}
