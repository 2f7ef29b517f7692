package output

import (
	"bytes"
	"fmt"
	"time"
)

// TSVFormatter formats output as raw tab-separated values with no header
// alignment, suitable for scripting and piping.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	if _, err := w.WriteString("delta_bytes\tcurrent_bytes\tevents\tlast_change\tdirectory\n"); err != nil {
		return err
	}
	for _, d := range r.Dirs {
		_, err := fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n",
			d.SizeDelta, d.CurrentSize, d.Events, d.LastChange.Format(time.RFC3339), d.Dir)
		if err != nil {
			return err
		}
	}
	return nil
}

func init() {
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
}

// Ensure TSVFormatter implements Formatter.
var _ Formatter = (*TSVFormatter)(nil)
