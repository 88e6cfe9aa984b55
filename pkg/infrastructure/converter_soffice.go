package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"workbook-generator/internal/domain"

	"go.uber.org/zap"
)

// lookPath is the exec.LookPath implementation used to locate the office
// binary.
var lookPath = exec.LookPath

// SofficeConverter converts documents with a headless LibreOffice.
type SofficeConverter struct {
	binaries []string
	log      *zap.Logger
}

// NewSofficeConverter tries "soffice" first, then "libreoffice".
func NewSofficeConverter(log *zap.Logger) *SofficeConverter {
	if log == nil {
		log = zap.NewNop()
	}
	return &SofficeConverter{binaries: []string{"soffice", "libreoffice"}, log: log}
}

func (c *SofficeConverter) Name() string { return "soffice" }

// Binary returns the first office executable found on PATH.
func (c *SofficeConverter) Binary() (string, error) {
	for _, b := range c.binaries {
		if p, err := lookPath(b); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: none of %s on PATH", domain.ErrConverterUnavailable, strings.Join(c.binaries, ", "))
}

// Check verifies an office executable is installed.
func (c *SofficeConverter) Check(context.Context) error {
	_, err := c.Binary()
	return err
}

// ConvertToPDF runs the office binary on inputPath. The PDF lands in outDir
// under the input's base name.
func (c *SofficeConverter) ConvertToPDF(ctx context.Context, inputPath, outDir string) (string, error) {
	bin, err := c.Binary()
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, bin, "--headless", "--convert-to", "pdf", "--outdir", outDir, inputPath)
	out, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(bin), ctx.Err())
	}
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %v", domain.ErrConverterUnavailable, err)
		}
		return "", fmt.Errorf("%s failed: %w: %s", filepath.Base(bin), err, strings.TrimSpace(string(out)))
	}

	pdfPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("%s produced no PDF: %s", filepath.Base(bin), strings.TrimSpace(string(out)))
	}
	c.log.Debug("converted", zap.String("input", inputPath), zap.String("pdf", pdfPath))
	return pdfPath, nil
}
