package cmd

import "fmt"

// ExitError asks main to exit with Code without printing anything. Commands
// return it when a test verdict fails and its exit toggle is on.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
