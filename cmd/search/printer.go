package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/matst80/slask-browse/pkg/types"
)

// printer renders the first result set as a table and then signals done.
type printer struct {
	out   io.Writer
	limit int
	done  chan error
}

func newPrinter(out io.Writer, limit int) *printer {
	return &printer{out: out, limit: limit, done: make(chan error, 1)}
}

func (p *printer) Render(items []types.ResultItem, activeFilters int) {
	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%d results, %d active filters\n", len(items), activeFilters)
	fmt.Fprintln(w, "ID\tTITLE\tCOURSE\tPRICE\tRATING")
	for i, item := range items {
		if p.limit > 0 && i >= p.limit {
			fmt.Fprintf(w, "... %d more\n", len(items)-p.limit)
			break
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.1f\n", item.Id, item.Title, item.CourseName, item.Price.Float(), item.Rating.Float())
	}
	w.Flush()
	p.signal(nil)
}

func (p *printer) ReportError(err error) {
	p.signal(err)
}

func (p *printer) signal(err error) {
	select {
	case p.done <- err:
	default:
	}
}
