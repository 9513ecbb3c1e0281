package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/insightdelivered/due-invoice-extractor/internal/extractor"
	"github.com/insightdelivered/due-invoice-extractor/internal/models"
	"github.com/insightdelivered/due-invoice-extractor/internal/reader"
	"github.com/insightdelivered/due-invoice-extractor/internal/storage"
	"github.com/insightdelivered/due-invoice-extractor/internal/writer"
)

const version = "1.0.0"

// ProcessResponse is the JSON response from the process-file endpoint.
type ProcessResponse struct {
	Status      string             `json:"status"`
	FileStored  bool               `json:"file_stored"`
	StoragePath string             `json:"storage_path"`
	DueRecords  []models.DueRecord `json:"due_records"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// acceptedTypes are the media types an upload may declare. Files with other
// types are still accepted when the name has a known extension.
var acceptedTypes = map[string]bool{
	"text/csv":                 true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

var acceptedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Extractor *extractor.Extractor
	Files     storage.Files
	Uploads   storage.UploadLog
	Now       func() time.Time
}

// AppConfig tunes the fiber application.
type AppConfig struct {
	BodyLimit int       // bytes; fiber's default when zero
	AccessLog io.Writer // request log destination; stderr when nil
}

// NewApp builds the fiber application with middleware and routes.
func NewApp(h *Handler, cfg AppConfig) *fiber.App {
	accessLog := cfg.AccessLog
	if accessLog == nil {
		accessLog = os.Stderr
	}

	app := fiber.New(fiber.Config{
		AppName:               "due-invoice-extractor",
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		AllowHeaders: "Content-Type, Authorization, X-Client-Info, Apikey",
	}))
	app.Use(logger.New(logger.Config{
		Format:     "time=${time} level=INFO msg=request method=${method} path=${path} status=${status} duration=${latency}\n",
		TimeFormat: time.RFC3339,
		Output:     accessLog,
	}))
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Get("/api/health", h.HandleHealth)
	r.Get("/api/uploads", h.HandleUploads)
	r.Post("/api/process-file", h.HandleProcessFile)
	// Path used by existing upload clients.
	r.Post("/functions/v1/process-file", h.HandleProcessFile)
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": version,
		"engine":  "fiber",
	})
}

func (h *Handler) HandleUploads(c *fiber.Ctx) error {
	uploads, err := h.Uploads.List(c.UserContext())
	if err != nil {
		slog.Error("Failed to list uploads", "error", err)
		return writeError(c, fiber.StatusInternalServerError, "Failed to list uploads")
	}
	return c.JSON(uploads)
}

func (h *Handler) HandleProcessFile(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No file provided in request")
	}

	mediaType := header.Header.Get("Content-Type")
	if !acceptedUpload(header.Filename, mediaType) {
		return writeError(c, fiber.StatusBadRequest, "Invalid file type. Only CSV and Excel files are allowed")
	}

	file, err := header.Open()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Failed to read uploaded file: %v", err))
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Failed to read uploaded file: %v", err))
	}

	now := h.now()
	storagePath, err := h.Files.Save(header.Filename, data, now)
	if err != nil {
		slog.Error("Failed to store upload", "file", header.Filename, "error", err)
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("Failed to upload file to storage: %v", err))
	}

	upload := &models.Upload{
		FileName:    header.Filename,
		FilePath:    storagePath,
		FileSize:    header.Size,
		MimeType:    mediaType,
		ProcessedAt: now.UTC(),
	}

	result, err := h.Extractor.Process(data, mediaType)
	if err != nil {
		upload.Status = models.UploadFailed
		upload.Error = err.Error()
		h.record(c.UserContext(), upload)

		var perr *reader.ParseError
		switch {
		case errors.As(err, &perr):
			return writeError(c, fiber.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, extractor.ErrEmptyInput):
			return writeError(c, fiber.StatusBadRequest, err.Error())
		default:
			return writeError(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	upload.Status = models.UploadCompleted
	upload.DueRecordsCount = len(result.DueRecords)
	h.record(c.UserContext(), upload)

	if strings.EqualFold(c.Query("format"), "csv") {
		var buf bytes.Buffer
		w := &writer.CSVWriter{IncludeHeader: c.Query("header") != "false"}
		if err := w.Write(&buf, result.DueRecords); err != nil {
			return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
		}
		c.Set("X-Storage-Path", storagePath)
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return c.Send(buf.Bytes())
	}

	return c.JSON(ProcessResponse{
		Status:      result.Status,
		FileStored:  true,
		StoragePath: storagePath,
		DueRecords:  result.DueRecords,
	})
}

// record writes the upload log entry. A failed write is logged but does not
// fail the request; the file is already stored.
func (h *Handler) record(ctx context.Context, u *models.Upload) {
	if err := h.Uploads.Record(ctx, u); err != nil {
		slog.Error("Failed to record upload", "file", u.FileName, "error", err)
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func acceptedUpload(filename, mediaType string) bool {
	mt := strings.ToLower(strings.TrimSpace(strings.Split(mediaType, ";")[0]))
	if acceptedTypes[mt] {
		return true
	}
	return acceptedExtensions[strings.ToLower(filepath.Ext(filename))]
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{
		Status:  "error",
		Message: msg,
	})
}
