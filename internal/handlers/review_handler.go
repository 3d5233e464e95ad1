package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	service "subprocess-review-backend/internal/services/review"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	service *service.Service
}

func NewReviewHandler(s *service.Service) *ReviewHandler {
	return &ReviewHandler{service: s}
}

// actingUser reads the identity the frontend attaches to mutating calls.
func actingUser(c *gin.Context) string {
	return c.GetHeader("X-User")
}

func (h *ReviewHandler) Login(c *gin.Context) {
	var payload struct {
		Usuario string `json:"usuario"`
		Senha   string `json:"senha"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	user, err := h.service.Login(payload.Usuario, payload.Senha)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
	case errors.Is(err, service.ErrWrongPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong password"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"usuario": user.Username, "role": user.Role})
	}
}

// Import receives a CSV or XLSX upload. Admin only.
func (h *ReviewHandler) Import(c *gin.Context) {
	user := actingUser(c)
	if user == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	if err := h.service.RequireAdmin(user); err != nil {
		if errors.Is(err, service.ErrAdminRequired) {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	log.Println("Received file:", header.Filename, "size:", header.Size)

	result, err := h.service.Import(file, header.Filename)
	if errors.Is(err, service.ErrUnreadableUpload) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"file": header.Filename, "result": result})
}

func (h *ReviewHandler) GetPage(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}

	view, err := h.service.Page(page, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ReviewHandler) GetBatchStatus(c *gin.Context) {
	batchID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch id"})
		return
	}

	status, err := h.service.Status(batchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *ReviewHandler) StartBatch(c *gin.Context) {
	h.transition(c, h.service.Start, "batch started")
}

func (h *ReviewHandler) ReleaseBatch(c *gin.Context) {
	h.transition(c, h.service.Release, "batch released")
}

func (h *ReviewHandler) FinishBatch(c *gin.Context) {
	h.transition(c, h.service.Finish, "batch finished")
}

func (h *ReviewHandler) transition(c *gin.Context, op func(int, string) error, message string) {
	batchID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch id"})
		return
	}

	user := actingUser(c)
	if user == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}

	switch err := op(batchID, user); {
	case errors.Is(err, service.ErrUnknownBatch):
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "batch already started or done"})
	case errors.Is(err, service.ErrNotHolder):
		c.JSON(http.StatusForbidden, gin.H{"error": "batch held by another user"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		status, err := h.service.Status(batchID)
		if err != nil {
			log.Printf("batch %d: cannot read status after transition: %v", batchID, err)
			c.JSON(http.StatusOK, gin.H{"message": message})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": message, "status": status})
	}
}

func (h *ReviewHandler) GetHistory(c *gin.Context) {
	entries, err := h.service.History()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": entries})
}
