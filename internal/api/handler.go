// Package api exposes the notification parser over HTTP.
package api

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"bulbank-notification-parser/internal/models"
	"bulbank-notification-parser/internal/processor"
	"bulbank-notification-parser/internal/store"
	"bulbank-notification-parser/pkg/errors"
	"bulbank-notification-parser/pkg/logger"
)

// MaxDocumentSize bounds a single uploaded notification
const MaxDocumentSize = 4 << 20

// ParseResponse is the JSON response from the /api/parse endpoint
type ParseResponse struct {
	Success        bool                      `json:"success"`
	Error          string                    `json:"error,omitempty"`
	ErrorCode      errors.ErrorCode          `json:"errorCode,omitempty"`
	DocumentID     string                    `json:"documentId,omitempty"`
	Status         processor.Status          `json:"status,omitempty"`
	Record         *models.TransactionRecord `json:"record,omitempty"`
	DetailsFamily  models.Family             `json:"detailsFamily,omitempty"`
	PaymentDetails models.PaymentDetails     `json:"paymentDetails,omitempty"`
	DetailsError   string                    `json:"detailsError,omitempty"`
}

// HealthResponse is the JSON response from the /api/health endpoint
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Schema     string `json:"schema"`
	Vocabulary string `json:"vocabulary"`
	Store      bool   `json:"store"`
}

// Server holds the HTTP handlers. The store is optional; without it parse
// results are not persisted and lookups are not routed.
type Server struct {
	processor *processor.Processor
	store     *store.Store
	version   string
	logger    logger.Logger
	app       *fiber.App
}

// NewServer creates the fiber app and registers the routes
func NewServer(proc *processor.Processor, st *store.Store, version string) *Server {
	s := &Server{
		processor: proc,
		store:     st,
		version:   version,
		logger:    logger.GetGlobalLogger().WithComponent("api"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "bankmail " + version,
		BodyLimit:             MaxDocumentSize,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.RegisterRoutes(s.app)
	return s
}

// RegisterRoutes sets up the HTTP routes
func (s *Server) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", s.HandleHealth)
	app.Post("/api/parse", s.HandleParse)
	if s.store != nil {
		app.Get("/api/notifications/:id", s.HandleGetNotification)
	}
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until ctx is cancelled
func (s *Server) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		return s.app.Shutdown()
	}
}

// HandleHealth reports liveness and the active schema and vocabulary
func (s *Server) HandleHealth(c *fiber.Ctx) error {
	parser := s.processor.Parser()
	return c.JSON(HealthResponse{
		Status:     "ok",
		Version:    s.version,
		Schema:     parser.SchemaVersion(),
		Vocabulary: parser.Vocabulary().Version(),
		Store:      s.store != nil,
	})
}

// HandleParse parses one notification sent either as the raw request body or
// as the multipart form field "file". The optional "id" query parameter names
// the document; a random id is assigned otherwise.
func (s *Server) HandleParse(c *fiber.Ctx) error {
	raw, name, err := readDocument(c)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "", err.Error())
	}
	if len(raw) == 0 {
		return writeError(c, fiber.StatusBadRequest, "", "empty document")
	}

	id := c.Query("id", name)
	if id == "" {
		id = uuid.NewString()
	}

	result := s.processor.ProcessDocument(id, raw)
	log := s.logger.WithFields(logger.Fields{"document_id": id, "status": result.Status})

	if s.store != nil && result.Status != processor.StatusFailed {
		if err := s.store.Save(c.UserContext(), "api", result); err != nil {
			log.WithError(err).Error("Failed to persist parse result")
			return writeError(c, fiber.StatusInternalServerError, errors.CodeStorageFailed, err.Error())
		}
	}

	if result.Error != nil {
		log.WithError(result.Error).Info("Rejected document")
		return writeError(c, statusFor(result.Error.AppError), result.Error.Code, result.Error.Error())
	}

	resp := ParseResponse{
		Success:    true,
		DocumentID: id,
		Status:     result.Status,
		Record:     result.Record,
	}
	if result.Details != nil {
		resp.DetailsFamily = result.Details.Family()
		resp.PaymentDetails = result.Details
	}
	if result.DetailsError != nil {
		resp.DetailsError = result.DetailsError.Error()
	}

	log.Debug("Parsed document")
	return c.JSON(resp)
}

// HandleGetNotification returns a stored parse result
func (s *Server) HandleGetNotification(c *fiber.Ctx) error {
	n, err := s.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		appErr, _ := errors.AsAppError(err)
		if appErr != nil {
			return writeError(c, statusFor(appErr), appErr.Code, appErr.Error())
		}
		return err
	}

	resp := ParseResponse{
		Success:    n.Error == "" || n.Status == processor.StatusPartial,
		DocumentID: n.DocumentID,
		Status:     n.Status,
		Record:     n.Record,
	}
	if n.Details != nil {
		resp.DetailsFamily = n.Details.Family()
		resp.PaymentDetails = n.Details
	}
	if n.Status == processor.StatusPartial {
		resp.DetailsError = n.Error
	} else {
		resp.Error = n.Error
	}
	return c.JSON(resp)
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.WithError(err).WithField("path", c.Path()).Error("Request failed")
	}
	return writeError(c, code, "", err.Error())
}

func readDocument(c *fiber.Ctx) ([]byte, string, error) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return append([]byte(nil), c.Body()...), "", nil
	}

	header, err := c.FormFile("file")
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "no file uploaded, use form field 'file'")
	}
	file, err := header.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, MaxDocumentSize))
	if err != nil {
		return nil, "", err
	}
	return raw, header.Filename, nil
}

func statusFor(err *errors.AppError) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	switch err.Category {
	case errors.CategoryDocument, errors.CategoryFormat, errors.CategoryClassification:
		return http.StatusUnprocessableEntity
	case errors.CategorySource:
		if err.Code == errors.CodeDocumentNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.CategoryConfiguration:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, status int, code errors.ErrorCode, msg string) error {
	return c.Status(status).JSON(ParseResponse{
		Success:   false,
		Error:     msg,
		ErrorCode: code,
	})
}
