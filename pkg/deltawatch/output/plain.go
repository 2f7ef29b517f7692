package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jamesainslie/deltawatch/pkg/deltawatch/types"
)

// PlainFormatter formats output as aligned plain text columns.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	fmt.Fprintf(w, "Watching %s (%d events", r.Source, r.Stats.TotalEvents)
	if r.Stats.ExcludedEvents > 0 {
		fmt.Fprintf(w, ", %d excluded", r.Stats.ExcludedEvents)
	}
	fmt.Fprintf(w, ", %s runtime)\n\n", r.Stats.Runtime.Round(time.Second))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := tw.Write([]byte("DELTA\tSIZE\tEVENTS\tLAST\tDIRECTORY\n")); err != nil {
		return err
	}

	now := time.Now()
	for _, d := range r.Dirs {
		row := fmt.Sprintf("%s\t%s\t%d\t%s\t%s\n",
			d.DeltaHuman, d.SizeHuman, d.Events, types.FormatAgo(d.LastChange, now), d.Dir)
		if _, err := tw.Write([]byte(row)); err != nil {
			return err
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Events) > 0 {
		fmt.Fprintf(w, "\nRecent events:\n")
		for _, ev := range r.Events {
			fmt.Fprintf(w, "%s  %-9s %9s  %s\n",
				ev.Time.Format("15:04:05"), ev.Kind, ev.DeltaHuman, ev.Path)
		}
	}

	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
