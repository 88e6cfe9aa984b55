package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"workbook-generator/internal/adapter/repository"
	"workbook-generator/internal/domain"
	"workbook-generator/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator records requests and checks the staged uploads exist
// while the workflow runs.
type fakeGenerator struct {
	single  *usecase.SingleRequest
	batch   *usecase.BatchRequest
	staged  []string
	err     error
	summary *usecase.BatchSummary
}

func (g *fakeGenerator) GenerateSingle(_ context.Context, req usecase.SingleRequest) (*usecase.SingleResult, error) {
	g.single = &req
	g.staged = stagedFiles(req.SurveyPath, req.RosterPath)
	if g.err != nil {
		return nil, g.err
	}
	return &usecase.SingleResult{RunID: "r1", Participant: req.ParticipantName, Workbook: "Jane_Doe_workbook.pdf"}, nil
}

func (g *fakeGenerator) GenerateBatch(_ context.Context, req usecase.BatchRequest) (*usecase.BatchSummary, error) {
	g.batch = &req
	g.staged = stagedFiles(append([]string{req.RosterPath}, req.SurveyPaths...)...)
	return g.summary, g.err
}

func stagedFiles(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, filepath.Base(p))
		}
	}
	return out
}

func newApp(t *testing.T, gen Generator) (*fiber.App, string) {
	t.Helper()
	out := t.TempDir()
	app := fiber.New()
	NewHandler(gen, repository.NewArtifactStore(out, nil), nil).Register(app)
	return app, out
}

type upload struct{ field, name, body string }

func multipartBody(t *testing.T, values map[string]string, files []upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func post(t *testing.T, app *fiber.App, values map[string]string, files []upload) (int, map[string]any) {
	t.Helper()
	body, ct := multipartBody(t, values, files)
	req := httptest.NewRequest("POST", "/generate", body)
	req.Header.Set("Content-Type", ct)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestGenerate_Individual(t *testing.T) {
	gen := &fakeGenerator{}
	app, out := newApp(t, gen)

	status, body := post(t, app, map[string]string{
		"mode": "individual", "template": "Open",
		"participantName": "Jane Doe", "date": "Spring", "cohort": "C7",
	}, []upload{
		{"viaFile", "Jane VIA.pdf", "%PDF-1.4"},
		{"conflictCSV", "answers.CSV", "First and Last Name\nJane Doe\n"},
	})

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Jane_Doe_workbook.pdf", body["workbook"])
	assert.Equal(t, "/download_file/Jane_Doe_workbook.pdf", body["download"])

	require.NotNil(t, gen.single)
	assert.Equal(t, "Jane Doe", gen.single.ParticipantName)
	assert.Equal(t, "Open", gen.single.Variant)
	assert.Equal(t, "Spring", gen.single.Date)
	assert.Equal(t, []string{"survey.pdf", "roster.csv"}, gen.staged)

	// staged uploads are removed after the run
	entries, _ := os.ReadDir(filepath.Join(out, "uploads"))
	assert.Empty(t, entries)
}

func TestGenerate_Batch(t *testing.T) {
	gen := &fakeGenerator{summary: &usecase.BatchSummary{RunID: "r2", Generated: []string{"Jane_Doe_workbook.pdf"}}}
	app, _ := newApp(t, gen)

	status, body := post(t, app, map[string]string{
		"mode": "batch", "template": "Tiny", "batchDate": "Fall", "batchCohort": "C1",
	}, []upload{
		{"viaFiles", "jane.pdf", "%PDF-1.4"},
		{"viaFiles", `C:\uploads\john.pdf`, "%PDF-1.4"},
		{"conflictCSVBatch", "roster.xlsx", "xx"},
	})

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "r2", body["run_id"])
	require.NotNil(t, gen.batch)
	assert.Equal(t, "Tiny", gen.batch.Variant)
	assert.Equal(t, "Fall", gen.batch.Date)
	assert.Equal(t, []string{"roster.xlsx", "jane.pdf", "john.pdf"}, gen.staged)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		files  []upload
		err    error
		want   int
	}{
		{"bad mode", map[string]string{"mode": "bulk"}, nil, nil, fiber.StatusBadRequest},
		{"missing survey", map[string]string{"mode": "individual"}, []upload{{"conflictCSV", "a.csv", "x"}}, nil, fiber.StatusBadRequest},
		{"batch without surveys", map[string]string{"mode": "batch"}, []upload{{"conflictCSVBatch", "a.csv", "x"}}, nil, fiber.StatusBadRequest},
		{"input error", map[string]string{"mode": "individual"}, []upload{{"viaFile", "a.pdf", "x"}, {"conflictCSV", "a.csv", "x"}},
			fmt.Errorf("%w: \"Zed\"", domain.ErrParticipantNotFound), fiber.StatusBadRequest},
		{"environment error", map[string]string{"mode": "individual"}, []upload{{"viaFile", "a.pdf", "x"}, {"conflictCSV", "a.csv", "x"}},
			fmt.Errorf("%w: soffice", domain.ErrConverterUnavailable), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newApp(t, &fakeGenerator{err: tt.err})
			status, body := post(t, app, tt.values, tt.files)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGenerate_BatchEnvironmentErrorKeepsSummary(t *testing.T) {
	gen := &fakeGenerator{
		summary: &usecase.BatchSummary{RunID: "r3"},
		err:     domain.ErrTemplateMissing,
	}
	app, _ := newApp(t, gen)

	status, body := post(t, app, map[string]string{"mode": "batch"}, []upload{
		{"viaFiles", "a.pdf", "x"}, {"conflictCSVBatch", "a.csv", "x"},
	})

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.NotNil(t, body["summary"])
}

func TestDownloadFile(t *testing.T) {
	app, out := newApp(t, &fakeGenerator{})
	require.NoError(t, os.WriteFile(filepath.Join(out, "Jane_Doe_workbook.pdf"), []byte("%PDF-x"), 0o600))

	resp, err := app.Test(httptest.NewRequest("GET", "/download_file/Jane_Doe_workbook.pdf", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "%PDF-x", string(b))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Jane_Doe_workbook.pdf")

	resp, err = app.Test(httptest.NewRequest("GET", "/download_file/nope.pdf", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/download_file/..", nil), -1)
	require.NoError(t, err)
	assert.NotEqual(t, fiber.StatusOK, resp.StatusCode)
}

func TestDownloadAll(t *testing.T) {
	app, out := newApp(t, &fakeGenerator{})
	require.NoError(t, os.WriteFile(filepath.Join(out, "a_workbook.pdf"), []byte("A"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(out, "b_workbook.pdf"), []byte("B"), 0o600))

	resp, err := app.Test(httptest.NewRequest("GET", "/download_all?files=a_workbook.pdf,missing.pdf&files=b_workbook.pdf", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "workbooks.zip")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"a_workbook.pdf", "b_workbook.pdf"}, names)

	resp, err = app.Test(httptest.NewRequest("GET", "/download_all", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/download_all?files=ghost.pdf", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	app, _ := newApp(t, &fakeGenerator{})

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
