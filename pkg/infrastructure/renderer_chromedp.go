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

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// chromeBinaries mirrors the names chromedp searches when no path is set.
var chromeBinaries = []string{
	"headless_shell", "headless-shell", "chromium", "chromium-browser",
	"google-chrome", "google-chrome-stable", "google-chrome-beta",
}

// ChromedpConverter prints HTML documents to PDF with headless Chrome.
type ChromedpConverter struct {
	execPath    string
	paperWidth  float64
	paperHeight float64
	log         *zap.Logger
}

// NewChromedpConverter uses execPath when set, otherwise Chrome from PATH.
// Paper size is in inches; templates may override it with CSS @page.
func NewChromedpConverter(execPath string, paperWidth, paperHeight float64, log *zap.Logger) *ChromedpConverter {
	if paperWidth <= 0 {
		paperWidth = 8.5
	}
	if paperHeight <= 0 {
		paperHeight = 11
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ChromedpConverter{execPath: execPath, paperWidth: paperWidth, paperHeight: paperHeight, log: log}
}

func (c *ChromedpConverter) Name() string { return "chromedp" }

// Check verifies a Chrome executable is available.
func (c *ChromedpConverter) Check(context.Context) error {
	if c.execPath != "" {
		if _, err := os.Stat(c.execPath); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrConverterUnavailable, err)
		}
		return nil
	}
	for _, b := range chromeBinaries {
		if _, err := lookPath(b); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: no Chrome executable on PATH", domain.ErrConverterUnavailable)
}

// ConvertToPDF loads inputPath in a fresh browser and prints it.
func (c *ChromedpConverter) ConvertToPDF(ctx context.Context, inputPath, outDir string) (string, error) {
	abs, err := filepath.Abs(inputPath)
	if err != nil {
		return "", err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	var pdfBuf []byte
	err = chromedp.Run(cctx,
		chromedp.Navigate("file://"+abs),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfBuf, _, err = page.PrintToPDF().WithPrintBackground(true).
				WithPaperWidth(c.paperWidth).
				WithPaperHeight(c.paperHeight).
				WithMarginTop(0).WithMarginBottom(0).
				WithMarginLeft(0).WithMarginRight(0).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %v", domain.ErrConverterUnavailable, err)
		}
		return "", fmt.Errorf("print %s: %w", filepath.Base(inputPath), err)
	}

	pdfPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))+".pdf")
	if err := os.WriteFile(pdfPath, pdfBuf, 0o644); err != nil {
		return "", err
	}
	c.log.Debug("converted", zap.String("input", inputPath), zap.String("pdf", pdfPath))
	return pdfPath, nil
}
