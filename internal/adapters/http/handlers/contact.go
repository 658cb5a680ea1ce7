package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brianfending/contact-service/internal/adapters/http/dto"
	"github.com/brianfending/contact-service/internal/app"
)

// ContactSubmitter runs the submission pipeline. *app.ContactService satisfies it.
type ContactSubmitter interface {
	Submit(ctx context.Context, input app.SubmitInput) error
}

// ContactHandler handles the public contact form endpoint.
type ContactHandler struct {
	service ContactSubmitter
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(service ContactSubmitter) *ContactHandler {
	if service == nil {
		panic("handlers: ContactSubmitter is required")
	}

	return &ContactHandler{service: service}
}

// Submit handles POST /api/contact.
//
// Every response carries a {"message": ...} body:
//   - 200 when the inquiry was recorded
//   - 400 for missing fields, a bad address or failed verification
//   - 413 when the body exceeds the server limit
//   - 500 when no sink accepted the inquiry
func (h *ContactHandler) Submit(c *gin.Context) {
	var req dto.ContactRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	err := h.service.Submit(c.Request.Context(), app.SubmitInput{
		Name:              req.Name,
		Email:             req.Email,
		Subject:           req.Subject,
		Message:           req.Message,
		VerificationToken: req.RecaptchaToken,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMessageResponse(dto.MessageSent))
}

// RegisterRoutes registers the contact routes on rg.
func (h *ContactHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/contact", h.Submit)
}
