package output

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether stdout is attached to a terminal. Spinners and
// colorized diff tables are suppressed when it returns false so that piped
// output stays machine-readable.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
