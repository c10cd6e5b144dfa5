package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/service"
	appwf "github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/workflow"
	domainwf "github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	requestService  service.RequestService
	templateService service.TemplateService
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	requestService service.RequestService,
	templateService service.TemplateService,
	logger Logger,
) *Handlers {
	return &Handlers{
		requestService:  requestService,
		templateService: templateService,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ActorRequest carries the acting user for state-changing calls
type ActorRequest struct {
	ActorID int64 `json:"actor_id" binding:"required"`
}

// DecisionRequest carries an approve/reject verdict for the current step
type DecisionRequest struct {
	ActorID  int64  `json:"actor_id" binding:"required"`
	Decision string `json:"decision" binding:"required"`
	Comments string `json:"comments"`
}

// ListQuery represents common pagination query parameters
type ListQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

func (q *ListQuery) normalize() {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// statusForError maps the workflow error taxonomy onto HTTP status codes.
// Precondition conflicts are 409 so clients can distinguish a lost race from
// a bad request; a missing catalog entry is 422 because the payload was fine
// but the system cannot route it.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domainwf.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainwf.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, domainwf.ErrRequestNotPending),
		errors.Is(err, domainwf.ErrAlreadyDecided),
		errors.Is(err, domainwf.ErrInvalidState),
		errors.Is(err, domainwf.ErrInvalidTransition),
		errors.Is(err, domainwf.ErrAmbiguousConfiguration):
		return http.StatusConflict
	case errors.Is(err, domainwf.ErrNoWorkflowConfigured),
		errors.Is(err, domainwf.ErrMalformedWorkflow),
		errors.Is(err, domainwf.ErrApproverUnavailable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, Response{
		Success: false,
		Error:   err.Error(),
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid id",
		})
		return 0, false
	}
	return id, true
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var input service.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	req, err := h.requestService.CreateDraft(c.Request.Context(), input)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// ListRequests handles GET /api/requests?requester_id=
func (h *Handlers) ListRequests(c *gin.Context) {
	requesterID, err := strconv.ParseInt(c.Query("requester_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "requester_id is required"})
		return
	}

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	q.normalize()

	requests, err := h.requestService.ListByRequester(c.Request.Context(), requesterID, q.Limit, q.Offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.requestService.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// SubmitRequest handles POST /api/requests/:id/submit
func (h *Handlers) SubmitRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body ActorRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "actor_id is required"})
		return
	}

	req, err := h.requestService.Submit(c.Request.Context(), id, body.ActorID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// DecideRequest handles POST /api/requests/:id/decision
func (h *Handlers) DecideRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body DecisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "actor_id and decision are required"})
		return
	}

	decision := appwf.Decision(body.Decision)
	if decision != appwf.DecisionApprove && decision != appwf.DecisionReject {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "decision must be APPROVE or REJECT"})
		return
	}

	req, err := h.requestService.Decide(c.Request.Context(), id, body.ActorID, decision, body.Comments)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// CancelRequest handles POST /api/requests/:id/cancel
func (h *Handlers) CancelRequest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body ActorRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "actor_id is required"})
		return
	}

	req, err := h.requestService.Cancel(c.Request.Context(), id, body.ActorID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// AttachDocument handles POST /api/requests/:id/document (multipart form)
func (h *Handlers) AttachDocument(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	actorID, err := strconv.ParseInt(c.PostForm("actor_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "actor_id is required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(c, err)
		return
	}

	req, err := h.requestService.AttachDocument(c.Request.Context(), id, actorID, fileHeader.Filename, data)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// ListPendingApprovals handles GET /api/approvals/pending?approver_id=
func (h *Handlers) ListPendingApprovals(c *gin.Context) {
	approverID, err := strconv.ParseInt(c.Query("approver_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "approver_id is required"})
		return
	}

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	q.normalize()

	pending, err := h.requestService.ListPendingForApprover(c.Request.Context(), approverID, q.Limit, q.Offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: pending})
}

// CreateTemplate handles POST /api/templates
func (h *Handlers) CreateTemplate(c *gin.Context) {
	var input service.CreateTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	tpl, err := h.templateService.Create(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, domainwf.ErrMalformedWorkflow) {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: tpl})
}

// ListTemplates handles GET /api/templates
func (h *Handlers) ListTemplates(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	q.normalize()

	templates, err := h.templateService.List(c.Request.Context(), q.Limit, q.Offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: templates})
}

// GetTemplate handles GET /api/templates/:id
func (h *Handlers) GetTemplate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	tpl, err := h.templateService.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if tpl == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "template not found"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: tpl})
}

// DeactivateTemplate handles DELETE /api/templates/:id
func (h *Handlers) DeactivateTemplate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.templateService.Deactivate(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}
