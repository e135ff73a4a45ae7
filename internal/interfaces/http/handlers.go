package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sbkim/settlement-flow/internal/application/port"
	"github.com/sbkim/settlement-flow/internal/application/service"
	"github.com/sbkim/settlement-flow/internal/domain/apperr"
	"github.com/sbkim/settlement-flow/internal/domain/entity"
	"github.com/sbkim/settlement-flow/internal/domain/lifecycle"
)

// Uploader accepts attachment uploads on behalf of the attachment store.
type Uploader = port.AttachmentStore

// Handlers contains all HTTP request handlers
type Handlers struct {
	settlements service.SettlementService
	notifier    service.NotificationService
	directory   service.DirectoryService
	uploader    Uploader
	logger      Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	settlements service.SettlementService,
	notifier service.NotificationService,
	directory service.DirectoryService,
	uploader Uploader,
	logger Logger,
) *Handlers {
	return &Handlers{
		settlements: settlements,
		notifier:    notifier,
		directory:   directory,
		uploader:    uploader,
		logger:      logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

func newPagination(total int, page port.Page) Pagination {
	totalPages := 0
	if page.Limit > 0 {
		totalPages = (total + page.Limit - 1) / page.Limit
	}
	return Pagination{
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: totalPages,
	}
}

// respondError maps the domain error taxonomy to HTTP statuses. Storage
// failures stay opaque; everything recoverable reaches the client verbatim.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, apperr.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrInvalidStateTransition):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrAlreadyProcessed), errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		message = "internal server error"
	}
	c.JSON(status, Response{Success: false, Error: message})
}

func pageFromQuery(c *gin.Context, defaultLimit int) port.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return port.Page{Page: page, Limit: limit}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// Me handles GET /api/auth/me
func (h *Handlers) Me(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: currentUser(c)})
}

type createItemRequest struct {
	Description   string `json:"description"`
	Amount        int64  `json:"amount"`
	Remarks       string `json:"remarks"`
	AttachmentURL string `json:"attachment_url"`
}

type createSettlementRequest struct {
	Title string              `json:"title"`
	Items []createItemRequest `json:"items"`
	Notes string              `json:"notes"`
}

// CreateSettlement handles POST /api/settlements
func (h *Handlers) CreateSettlement(c *gin.Context) {
	var req createSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Validationf("invalid request body"))
		return
	}

	in := service.CreateSettlementInput{Title: req.Title, Notes: req.Notes}
	for _, item := range req.Items {
		in.Items = append(in.Items, service.CreateItemInput{
			Description:   item.Description,
			Amount:        item.Amount,
			Remarks:       item.Remarks,
			AttachmentURL: item.AttachmentURL,
		})
	}

	settlement, err := h.settlements.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    settlement,
		Message: "settlement request submitted",
	})
}

// ListSettlements handles GET /api/settlements
func (h *Handlers) ListSettlements(c *gin.Context) {
	page := pageFromQuery(c, 10)
	status := lifecycle.Status(c.Query("status"))

	settlements, total, err := h.settlements.List(c.Request.Context(), currentUser(c), status, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"settlements": settlements,
			"pagination":  newPagination(total, page),
		},
	})
}

// GetSettlement handles GET /api/settlements/:id
func (h *Handlers) GetSettlement(c *gin.Context) {
	settlement, err := h.settlements.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: settlement})
}

type decideRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

// DecideSettlement handles POST /api/settlements/:id/decision
func (h *Handlers) DecideSettlement(c *gin.Context) {
	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Validationf("invalid request body"))
		return
	}

	settlement, err := h.settlements.Decide(c.Request.Context(), currentUser(c), service.DecideInput{
		RequestID: c.Param("id"),
		Decision:  req.Decision,
		Comment:   req.Comment,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: settlement})
}

type payRequest struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	PaymentDate   string `json:"payment_date"`
	Note          string `json:"note"`
}

// PaySettlement handles POST /api/settlements/:id/payment
func (h *Handlers) PaySettlement(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Validationf("invalid request body"))
		return
	}

	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		h.respondError(c, apperr.Validationf("invalid payment_date %q", req.PaymentDate))
		return
	}

	settlement, err := h.settlements.Pay(c.Request.Context(), currentUser(c), service.PayInput{
		RequestID:     c.Param("id"),
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		PaymentDate:   paymentDate,
		Note:          req.Note,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    settlement,
		Message: "payment completed",
	})
}

// ListPaymentQueue handles GET /api/payments
func (h *Handlers) ListPaymentQueue(c *gin.Context) {
	page := pageFromQuery(c, 10)

	settlements, total, err := h.settlements.PaymentQueue(c.Request.Context(), currentUser(c), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"settlements": settlements,
			"pagination":  newPagination(total, page),
		},
	})
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	page := pageFromQuery(c, 20)

	notifications, total, err := h.notifier.ListForUser(c.Request.Context(), currentUser(c).ID, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"notifications": notifications,
			"pagination":    newPagination(total, page),
		},
	})
}

// MarkNotificationRead handles PATCH /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	n, err := h.notifier.MarkRead(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: n})
}

// UploadAttachment handles POST /api/uploads
func (h *Handlers) UploadAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.respondError(c, apperr.Validationf("file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.respondError(c, apperr.Validationf("file could not be read"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.respondError(c, apperr.Validationf("file could not be read"))
		return
	}

	stored, err := h.uploader.Store(
		c.Request.Context(),
		currentUser(c).ID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		content,
	)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"url":       stored.URL,
			"file_name": stored.FileName,
		},
	})
}

// ListUsers handles GET /api/users
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.directory.ListUsers(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"users": users}})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateUserRole handles PATCH /api/users/:id/role
func (h *Handlers) UpdateUserRole(c *gin.Context) {
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Validationf("invalid request body"))
		return
	}

	user, err := h.directory.UpdateRole(c.Request.Context(), currentUser(c), c.Param("id"), entity.Role(req.Role))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: user, Message: "role updated"})
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
