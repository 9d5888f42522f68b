package input

import (
	"io"
	"os"
)

// Stdin is a reader used for input. If `nil`, os.Stdin is used.
var Stdin io.Reader

// Reader returns the current input reader.
func Reader() io.Reader {
	if Stdin != nil {
		return Stdin
	}
	return os.Stdin
}
