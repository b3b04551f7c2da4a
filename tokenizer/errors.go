package tokenizer

import "fmt"

// ContainerFormatError reports that a document container could not be read at
// all: the archive is not a zip, or the mandatory body part is missing.
// Structural problems inside a readable body are not container errors; those
// degrade per node instead.
type ContainerFormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ContainerFormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("container format: %s", e.Reason)
	}
	return fmt.Sprintf("container format: %s: %s", e.Path, e.Reason)
}

func (e *ContainerFormatError) Unwrap() error { return e.Err }
