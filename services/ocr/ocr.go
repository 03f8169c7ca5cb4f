package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// TextExtractor turns a rendered page image into text
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte, lang string) (string, error)
}

// PageRenderer renders the first page of a multi-page document to an image
type PageRenderer interface {
	FirstPage(ctx context.Context, document []byte) ([]byte, error)
}

// Tesseract implements TextExtractor by running the tesseract binary over
// stdin/stdout
type Tesseract struct {
	// Binary overrides the executable path; defaults to "tesseract"
	Binary string
}

// ExtractText runs OCR over an image
func (t *Tesseract) ExtractText(ctx context.Context, image []byte, lang string) (string, error) {
	binary := t.Binary
	if binary == "" {
		binary = "tesseract"
	}

	cmd := exec.CommandContext(ctx, binary, "stdin", "stdout", "-l", lang)
	cmd.Stdin = bytes.NewReader(image)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, stderr.String())
	}
	return out.String(), nil
}

// Pdftoppm implements PageRenderer by running the pdftoppm binary; only the
// first page is rendered
type Pdftoppm struct {
	// Binary overrides the executable path; defaults to "pdftoppm"
	Binary string
}

// FirstPage renders page one of a PDF document to a JPEG image
func (p *Pdftoppm) FirstPage(ctx context.Context, document []byte) ([]byte, error) {
	binary := p.Binary
	if binary == "" {
		binary = "pdftoppm"
	}

	// With no output root pdftoppm writes the rendered page to stdout
	cmd := exec.CommandContext(ctx, binary, "-jpeg", "-f", "1", "-l", "1", "-")
	cmd.Stdin = bytes.NewReader(document)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, stderr.String())
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("pdftoppm produced no output")
	}
	return out.Bytes(), nil
}
