package output

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// SetOutput appends a step output to the file named by GITHUB_OUTPUT.
// Outside of GitHub Actions it does nothing.
func SetOutput(name, value string) error {
	return setOutputFile(os.Getenv("GITHUB_OUTPUT"), name, value)
}

func setOutputFile(path, name, value string) error {
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o666)
	if err != nil {
		return err
	}
	defer f.Close()

	// The delimiter is unique per write so no line of value can end the block.
	delim := "ghadelimiter_" + uuid.NewString()
	if _, err := fmt.Fprintf(f, "%s<<%s\n%s\n%s\n", name, delim, value, delim); err != nil {
		return err
	}
	return nil
}
