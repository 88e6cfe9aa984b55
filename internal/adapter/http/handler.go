package http

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"workbook-generator/internal/adapter/repository"
	"workbook-generator/internal/domain"
	"workbook-generator/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Generator runs the workbook workflows.
type Generator interface {
	GenerateSingle(ctx context.Context, req usecase.SingleRequest) (*usecase.SingleResult, error)
	GenerateBatch(ctx context.Context, req usecase.BatchRequest) (*usecase.BatchSummary, error)
}

type Handler struct {
	gen   Generator
	store *repository.ArtifactStore
	log   *zap.Logger
	// one generation at a time; outputs are keyed by participant name
	mu sync.Mutex
}

func NewHandler(gen Generator, store *repository.ArtifactStore, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{gen: gen, store: store, log: log}
}

// Register mounts the routes on app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Post("/generate", h.Generate)
	app.Get("/download_file/:filename", h.DownloadFile)
	app.Get("/download_all", h.DownloadAll)
}

// Generate handles the upload form for both modes.
func (h *Handler) Generate(c *fiber.Ctx) error {
	mode, err := usecase.ParseMode(c.FormValue("mode"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, errors.New("expected multipart form"))
	}

	stageID := uuid.New().String()
	dir, err := h.store.StagingDir(stageID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	defer h.store.RemoveStaging(stageID)

	h.mu.Lock()
	defer h.mu.Unlock()

	if mode == usecase.ModeIndividual {
		return h.generateSingle(c, form, dir)
	}
	return h.generateBatch(c, form, dir)
}

func (h *Handler) generateSingle(c *fiber.Ctx, form *multipart.Form, dir string) error {
	survey, err := saveOne(c, form, "viaFile", dir, "survey")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	roster, err := saveOne(c, form, "conflictCSV", dir, "roster")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}

	res, err := h.gen.GenerateSingle(c.UserContext(), usecase.SingleRequest{
		ParticipantName: c.FormValue("participantName"),
		Date:            c.FormValue("date"),
		Cohort:          c.FormValue("cohort"),
		Variant:         c.FormValue("template"),
		SurveyPath:      survey,
		RosterPath:      roster,
	})
	if err != nil {
		h.log.Error("single generation failed", zap.Error(err))
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(fiber.Map{
		"run_id":      res.RunID,
		"participant": res.Participant,
		"workbook":    res.Workbook,
		"download":    "/download_file/" + res.Workbook,
	})
}

func (h *Handler) generateBatch(c *fiber.Ctx, form *multipart.Form, dir string) error {
	files := form.File["viaFiles"]
	if len(files) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, errors.New("viaFiles: no survey documents uploaded"))
	}
	roster, err := saveOne(c, form, "conflictCSVBatch", dir, "roster")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}

	surveys := make([]string, 0, len(files))
	for _, fh := range files {
		name := uploadName(fh.Filename)
		if name == "" {
			continue
		}
		path := filepath.Join(dir, name)
		if err := c.SaveFile(fh, path); err != nil {
			return errorJSON(c, fiber.StatusInternalServerError, err)
		}
		surveys = append(surveys, path)
	}

	sum, err := h.gen.GenerateBatch(c.UserContext(), usecase.BatchRequest{
		Date:        c.FormValue("batchDate"),
		Cohort:      c.FormValue("batchCohort"),
		Variant:     c.FormValue("template"),
		SurveyPaths: surveys,
		RosterPath:  roster,
	})
	if err != nil {
		h.log.Error("batch generation failed", zap.Error(err))
		if sum == nil {
			return errorJSON(c, statusFor(err), err)
		}
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error(), "summary": sum})
	}
	return c.JSON(sum)
}

// DownloadFile serves one generated workbook by bare file name.
func (h *Handler) DownloadFile(c *fiber.Ctx) error {
	path, err := h.store.Path(c.Params("filename"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	if _, err := os.Stat(path); err != nil {
		return errorJSON(c, fiber.StatusNotFound, errors.New("file not found"))
	}
	return c.Download(path, filepath.Base(path))
}

// DownloadAll zips the requested workbooks in memory. files is a comma
// separated list and may be repeated; unknown names are skipped.
func (h *Handler) DownloadAll(c *fiber.Ctx) error {
	var names []string
	for _, v := range c.Context().QueryArgs().PeekMulti("files") {
		names = append(names, strings.Split(string(v), ",")...)
	}
	if len(names) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, errors.New("files: nothing requested"))
	}

	var buf bytes.Buffer
	added, err := h.store.WriteZip(&buf, names)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	if len(added) == 0 {
		return errorJSON(c, fiber.StatusNotFound, errors.New("none of the requested files exist"))
	}
	c.Attachment("workbooks.zip")
	return c.Send(buf.Bytes())
}

// saveOne stores the single upload in field as dir/<base><ext>.
func saveOne(c *fiber.Ctx, form *multipart.Form, field, dir, base string) (string, error) {
	files := form.File[field]
	if len(files) == 0 {
		return "", errors.New(field + ": file is required")
	}
	fh := files[0]
	path := filepath.Join(dir, base+strings.ToLower(filepath.Ext(uploadName(fh.Filename))))
	if err := c.SaveFile(fh, path); err != nil {
		return "", err
	}
	return path, nil
}

// uploadName strips any client supplied directories.
func uploadName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

func statusFor(err error) int {
	switch {
	case domain.IsEnvironment(err):
		return fiber.StatusInternalServerError
	case domain.IsInput(err):
		return fiber.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func errorJSON(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
