package notification

import (
	"fmt"
	"io"
)

// TerminalChimer writes the terminal bell character as the audible cue
// for urgent alerts. Write errors are ignored; the cue is best-effort.
type TerminalChimer struct {
	W io.Writer
}

func (c *TerminalChimer) Chime() {
	if c.W == nil {
		return
	}
	fmt.Fprint(c.W, "\a") //nolint:errcheck // best-effort cue
}
