package main

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/peterhaasme/time-portfolio/internal/app/presenter"
)

// TextRenderer prints views as aligned text blocks.
type TextRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTextRenderer creates a TextRenderer writing to out.
func NewTextRenderer(out io.Writer) *TextRenderer {
	return &TextRenderer{out: out}
}

func (r *TextRenderer) Render(view presenter.View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	address := view.Address
	if address == "" {
		address = "(none)"
	}
	status := view.State
	if view.Valid && !view.Complete {
		status += ", incomplete"
	}
	fmt.Fprintf(r.out, "Wallet %s [%s]", address, status)
	if !view.ComputedAt.IsZero() {
		fmt.Fprintf(r.out, " at %s", view.ComputedAt.Format(time.RFC3339))
	}
	fmt.Fprintln(r.out)

	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOKEN\tBALANCE\tPRICE\tVALUE")
	for _, row := range view.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Symbol, row.Balance, row.Price, row.Value)
	}
	_ = tw.Flush()
	fmt.Fprintf(r.out, "%s\n\n", view.Total)
}
