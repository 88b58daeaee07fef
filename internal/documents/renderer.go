// renderer.go turns rendered HTML into the delivered document bytes. PDF
// conversion is delegated to an external command (wkhtmltopdf, weasyprint, or
// any tool reading HTML on stdin and writing PDF to stdout); when no command is
// configured or the command fails, the plain-text fallback strips the markup
// and never fails.
package documents

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// Renderer converts HTML into document bytes.
type Renderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// CommandRenderer shells out to an external HTML-to-PDF converter.
type CommandRenderer struct {
	command string
	timeout time.Duration
}

// NewCommandRenderer creates a renderer around the given command line. The
// command receives HTML on stdin and must write the PDF to stdout.
func NewCommandRenderer(command string, timeout time.Duration) *CommandRenderer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CommandRenderer{command: command, timeout: timeout}
}

// Render runs the converter with a bounded timeout
func (r *CommandRenderer) Render(ctx context.Context, html string) ([]byte, error) {
	parts := strings.Fields(r.command)
	if len(parts) == 0 {
		return nil, fmt.Errorf("no renderer command configured")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Stdin = strings.NewReader(html)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("renderer command failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("renderer command produced no output")
	}

	return stdout.Bytes(), nil
}

var (
	lineBreakTags = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "<p>", "\n", "</p>", "\n")
	htmlTagRE     = regexp.MustCompile(`<[^<]+?>`)
)

// FallbackText strips markup from the HTML, preserving paragraph breaks, so a
// readable text document can always be delivered even without a PDF converter.
func FallbackText(html string) []byte {
	text := lineBreakTags.Replace(html)
	text = htmlTagRE.ReplaceAllString(text, "")
	return []byte(text)
}
