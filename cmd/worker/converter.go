package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// execConverter renders SVG to PDF by shelling out to an external
// rasterizer (rsvg-convert by default). The SVG is fed on stdin; the
// tool writes the PDF to the output path.
type execConverter struct {
	command string
}

func newExecConverter(command string) *execConverter {
	if command == "" {
		command = "rsvg-convert"
	}
	return &execConverter{command: command}
}

func (c *execConverter) Convert(ctx context.Context, svgContent, outputPath string) error {
	if strings.TrimSpace(svgContent) == "" {
		return fmt.Errorf("empty svg content")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.command, "--format", "pdf", "--output", outputPath)
	cmd.Stdin = strings.NewReader(svgContent)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", c.command, err, strings.TrimSpace(string(out)))
	}
	return nil
}
