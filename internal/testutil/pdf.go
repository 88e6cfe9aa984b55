// Package testutil builds PDF fixtures for tests.
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Letter is the US Letter page size in points.
var Letter = gofpdf.SizeType{Wd: 612, Ht: 792}

// PDFBytes renders one Letter page per entry of pages; each page holds its
// lines of text top to bottom.
func PDFBytes(t testing.TB, pages [][]string) []byte {
	t.Helper()
	sizes := make([]gofpdf.SizeType, len(pages))
	for i := range sizes {
		sizes[i] = Letter
	}
	return SizedPDFBytes(t, sizes, pages)
}

// SizedPDFBytes is PDFBytes with an explicit size per page. Every page is
// rendered as its own document and the documents are merged, so each page
// keeps exactly the size given for it.
func SizedPDFBytes(t testing.TB, sizes []gofpdf.SizeType, pages [][]string) []byte {
	t.Helper()
	if len(sizes) != len(pages) {
		t.Fatalf("SizedPDFBytes: %d sizes for %d pages", len(sizes), len(pages))
	}
	if len(pages) == 0 {
		return render(t, Letter, nil)
	}

	uniform := true
	for _, s := range sizes {
		if s != sizes[0] {
			uniform = false
		}
	}
	if uniform {
		return render(t, sizes[0], pages)
	}

	parts := make([]io.ReadSeeker, len(pages))
	for i, lines := range pages {
		parts[i] = bytes.NewReader(render(t, sizes[i], [][]string{lines}))
	}
	var out bytes.Buffer
	if err := api.MergeRaw(parts, &out, false, pdfcpuConf()); err != nil {
		t.Fatalf("merge fixture pdf: %v", err)
	}
	return out.Bytes()
}

// render draws pages into one document whose default page size is size.
func render(t testing.TB, size gofpdf.SizeType, pages [][]string) []byte {
	t.Helper()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: size})
	pdf.SetFont("Helvetica", "", 12)
	for _, lines := range pages {
		pdf.AddPage()
		for j, line := range lines {
			pdf.Text(72, 72+float64(j)*18, line)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("render fixture pdf: %v", err)
	}
	return buf.Bytes()
}

var disableConfigDir sync.Once

func pdfcpuConf() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}

// WritePDF writes PDFBytes(pages) to path.
func WritePDF(t testing.TB, path string, pages [][]string) {
	t.Helper()
	if err := os.WriteFile(path, PDFBytes(t, pages), 0o600); err != nil {
		t.Fatalf("write fixture pdf: %v", err)
	}
}

// LabeledPages returns n single-line pages labeled "<prefix>-<index>".
func LabeledPages(prefix string, n int) [][]string {
	out := make([][]string, n)
	for i := range out {
		out[i] = []string{fmt.Sprintf("%s-%d", prefix, i)}
	}
	return out
}

// PageTexts returns the text of every page of data with runs of whitespace
// collapsed to a single space.
func PageTexts(t testing.TB, data []byte) []string {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open pdf: %v", err)
	}
	out := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		fonts := make(map[string]*pdf.Font)
		for _, name := range p.Fonts() {
			font := p.Font(name)
			fonts[name] = &font
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			t.Fatalf("read page %d: %v", i, err)
		}
		out = append(out, strings.Join(strings.Fields(text), " "))
	}
	return out
}

var showText = regexp.MustCompile(`\((.*?)\) Tj`)

// StampTexts returns, for every page of data, the text shown by the form
// XObjects its content stream draws, or "" when it draws none. Stamps and
// watermarks are such forms; page text proper is not included.
func StampTexts(t testing.TB, data []byte) []string {
	t.Helper()
	ctx, err := api.ReadAndValidate(bytes.NewReader(data), pdfcpuConf())
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}

	out := make([]string, ctx.PageCount)
	for i := 1; i <= ctx.PageCount; i++ {
		d, _, inh, err := ctx.PageDict(i, false)
		if err != nil {
			t.Fatalf("page %d: %v", i, err)
		}
		content, err := ctx.PageContent(d)
		if err != nil {
			t.Fatalf("page %d content: %v", i, err)
		}

		res := inh.Resources
		if o, ok := d.Find("Resources"); ok {
			if rd, err := ctx.DereferenceDict(o); err == nil && rd != nil {
				res = rd
			}
		}
		if res == nil {
			continue
		}
		forms, err := ctx.DereferenceDict(res["XObject"])
		if err != nil || forms == nil {
			continue
		}

		var texts []string
		for name, o := range forms {
			if !bytes.Contains(content, []byte("/"+name+" Do")) {
				continue
			}
			sd, _, err := ctx.DereferenceStreamDict(o)
			if err != nil || sd == nil {
				continue
			}
			if err := sd.Decode(); err != nil {
				t.Fatalf("page %d form %s: %v", i, name, err)
			}
			for _, m := range showText.FindAllSubmatch(sd.Content, -1) {
				texts = append(texts, string(m[1]))
			}
		}
		sort.Strings(texts)
		out[i-1] = strings.Join(texts, " ")
	}
	return out
}
