package handlers

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"classroll/catalog"
	"classroll/models"
	"classroll/roster"
	"classroll/session"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const maxImportSize = 8 << 20

// APIHandler holds the dependencies for API handlers, like the session
type APIHandler struct {
	Session *session.Session
	logger  zerolog.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(sess *session.Session, logger zerolog.Logger) *APIHandler {
	return &APIHandler{
		Session: sess,
		logger:  logger,
	}
}

// RegisterRoutes sets up API routes on router
func (h *APIHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")
	{
		// Class routes
		api.GET("/classes", h.GetAllClasses)
		api.POST("/classes", h.AddClass)
		api.POST("/classes/:name/load", h.LoadClass)
		api.DELETE("/classes/current", h.DeleteCurrentClass)

		// Import route
		api.POST("/import", h.ImportClass)

		// Roster routes on the active class
		api.GET("/roster", h.GetRoster)
		api.GET("/roster/export", h.ExportRoster)
		api.POST("/roster/students", h.AddStudent)
		api.DELETE("/roster/students/:number", h.RemoveStudent)
		api.PUT("/roster/students/:number/presence", h.SetPresence)
		api.POST("/roster/pick", h.PickStudent)
		api.POST("/roster/lucky-number", h.DrawLuckyNumber)

		api.GET("/ping", PingHandler)
	}
}

// statusFor maps core errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNoActiveClass), errors.Is(err, models.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrEmptyName), errors.Is(err, models.ErrInvalidName),
		errors.Is(err, models.ErrInvalidClassName), errors.Is(err, models.ErrNoStudents):
		return http.StatusBadRequest
	case models.IsParse(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *APIHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	c.JSON(status, gin.H{"error": session.Message(err)})
}

// --- Class Handlers ---

// GetAllClasses handles GET /api/classes
func (h *APIHandler) GetAllClasses(c *gin.Context) {
	names, err := h.Session.ListClasses(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	snap := h.Session.Snapshot()
	classes := make([]models.Clazz, 0, len(names))
	for _, n := range names {
		clazz := models.Clazz{Name: n}
		if snap.Loaded && snap.ClassName == n {
			clazz.StudentCount = len(snap.Students)
		}
		classes = append(classes, clazz)
	}
	c.JSON(http.StatusOK, classes)
}

type classRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddClass handles POST /api/classes, creating the class and making it active
func (h *APIHandler) AddClass(c *gin.Context) {
	var req classRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if err := h.Session.CreateClass(c.Request.Context(), req.Name); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.Session.Snapshot())
}

// LoadClass handles POST /api/classes/:name/load
func (h *APIHandler) LoadClass(c *gin.Context) {
	if err := h.Session.LoadClass(c.Request.Context(), c.Param("name")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Session.Snapshot())
}

// DeleteCurrentClass handles DELETE /api/classes/current
func (h *APIHandler) DeleteCurrentClass(c *gin.Context) {
	name, err := h.Session.DeleteClass(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Class deleted", "className": name})
}

// --- Import Handler ---

// ImportClass handles POST /api/import. The class is named after the
// uploaded file unless a className form field is given.
func (h *APIHandler) ImportClass(c *gin.Context) {
	file, header, err := c.Request.FormFile("file") // "file" is the name attribute in the form
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading uploaded file: " + err.Error()})
		return
	}
	if len(data) > maxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Uploaded file is too large"})
		return
	}

	ext := filepath.Ext(header.Filename)
	fileName := header.Filename
	if name := strings.TrimSpace(c.PostForm("className")); name != "" {
		fileName = name + ext
	}

	h.logger.Info().Str("file", header.Filename).Str("class", catalog.ClassNameFromFile(fileName)).Msg("Received roster upload")

	var report roster.ImportReport
	if strings.EqualFold(ext, ".xlsx") {
		report, err = h.Session.ImportExcel(c.Request.Context(), fileName, bytes.NewReader(data))
	} else {
		report, err = h.Session.ImportClass(c.Request.Context(), fileName, string(data))
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": report.Accepted,
		"skippedCount":  report.Skipped,
		"roster":        h.Session.Snapshot(),
	})
}

// --- Roster Handlers ---

type rosterResponse struct {
	roster.Snapshot
	LuckyNumber *int `json:"luckyNumber,omitempty"`
}

// GetRoster handles GET /api/roster
func (h *APIHandler) GetRoster(c *gin.Context) {
	resp := rosterResponse{Snapshot: h.Session.Snapshot()}
	if n, ok := h.Session.LuckyNumber(); ok {
		resp.LuckyNumber = &n
	}
	c.JSON(http.StatusOK, resp)
}

// ExportRoster handles GET /api/roster/export as an xlsx download
func (h *APIHandler) ExportRoster(c *gin.Context) {
	snap := h.Session.Snapshot()
	if !snap.Loaded {
		h.fail(c, models.ErrNoActiveClass)
		return
	}

	var buf bytes.Buffer
	if err := catalog.ExportExcel(snap, &buf); err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+snap.ClassName+`.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

type studentRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddStudent handles POST /api/roster/students
func (h *APIHandler) AddStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	st, err := h.Session.AddStudent(c.Request.Context(), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func studentNumber(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Student number must be an integer"})
		return 0, false
	}
	return n, true
}

// RemoveStudent handles DELETE /api/roster/students/:number
func (h *APIHandler) RemoveStudent(c *gin.Context) {
	n, ok := studentNumber(c)
	if !ok {
		return
	}
	if _, err := h.Session.RemoveStudent(c.Request.Context(), n); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Session.Snapshot())
}

type presenceRequest struct {
	Present *bool `json:"present" binding:"required"`
}

// SetPresence handles PUT /api/roster/students/:number/presence
func (h *APIHandler) SetPresence(c *gin.Context) {
	n, ok := studentNumber(c)
	if !ok {
		return
	}
	var req presenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	st, err := h.Session.SetPresence(c.Request.Context(), n, *req.Present)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// PickStudent handles POST /api/roster/pick
func (h *APIHandler) PickStudent(c *gin.Context) {
	res, err := h.Session.Pick(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if !res.Picked {
		c.JSON(http.StatusOK, gin.H{"picked": false, "message": "No eligible students"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// DrawLuckyNumber handles POST /api/roster/lucky-number
func (h *APIHandler) DrawLuckyNumber(c *gin.Context) {
	n, err := h.Session.DrawLuckyNumber(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"luckyNumber": n})
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}

// RequestLogger logs every request through zerolog
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("query", c.Request.URL.RawQuery).
			Str("ip", c.ClientIP()).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}
