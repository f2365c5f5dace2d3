package page

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Input describes where page HTML comes from.
type Input struct {
	// Path, if provided, is read from the local file system.
	Path string

	// Stdin is used when Path is empty. If nil, stdin reads as empty.
	Stdin io.Reader
}

// Load returns the HTML source named by in. Pages are only ever read locally.
func Load(in Input) (string, error) {
	if strings.TrimSpace(in.Path) != "" {
		b, err := os.ReadFile(in.Path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", in.Path, err)
		}
		return string(b), nil
	}

	if in.Stdin == nil {
		return "", nil
	}
	b, err := io.ReadAll(in.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}
