package core

import (
	"fmt"
	"os"
)

// ShowErrorDialog reports an unrecoverable startup error to the user.
// It does not terminate the process; the bootstrap decides that, so the
// same sink can be used from tests.
func ShowErrorDialog(title, message string) {
	fmt.Fprintf(os.Stderr, "\n==== %s ====\n%s\n\n", title, message)
	LogError("%s: %s", title, message)
}
