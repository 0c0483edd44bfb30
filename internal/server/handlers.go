package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaki95/studio-eighty7/internal/domain"
	"github.com/jaki95/studio-eighty7/internal/sanitize"
)

// generate handles creative text generation for a topic
// @Summary Generate a creative line
// @Description Sanitizes the topic and asks the generation provider for a short song concept, title or hook.
// @Tags Generation
// @Accept json
// @Produce json
// @Param request body GenerateRequest true "Topic to riff on"
// @Success 200 {object} GenerateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/generate [post]
func (s *Server) generate(c *gin.Context) {
	var req GenerateRequest
	if status, body := bindJSON(c, &req); body != nil {
		c.JSON(status, body)
		return
	}

	ctx := c.Request.Context()
	result, err := s.generator.Generate(ctx, req.Topic)
	if err != nil {
		status, body := generationFailure(err)
		if !errors.Is(err, sanitize.ErrValidation) {
			s.logger.ErrorContext(ctx, "Generation failed",
				"route", c.FullPath(),
				"requestId", c.GetString(requestIDKey),
				"status", status,
				"error", err,
			)
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{Success: true, Data: result.Text})
}

// submitContact handles contact form submissions
// @Summary Submit a contact message
// @Description Validates and sanitizes name, email and message, then hands the message on for delivery.
// @Tags Contact
// @Accept json
// @Produce json
// @Param request body ContactRequest true "Contact form fields"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/contact [post]
func (s *Server) submitContact(c *gin.Context) {
	var req ContactRequest
	if status, body := bindJSON(c, &req); body != nil {
		c.JSON(status, body)
		return
	}

	ctx := c.Request.Context()
	result, err := s.contact.Submit(ctx, req.Name, req.Email, req.Message)
	if err != nil {
		status, body := contactFailure(err)
		if status >= http.StatusInternalServerError {
			s.logger.ErrorContext(ctx, "Contact submission failed",
				"route", c.FullPath(),
				"requestId", c.GetString(requestIDKey),
				"error", err,
			)
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: result.Message})
}

// getContent serves site content, live or from the bundled fallback
// @Summary Get site content
// @Description Returns tracks, albums, services or the about page. Source is "live" or "fallback".
// @Tags Content
// @Produce json
// @Param type path string true "tracks, albums, services or about"
// @Success 200 {object} ContentResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/content/{type} [get]
func (s *Server) getContent(c *gin.Context) {
	resource, ok := domain.ParseResource(c.Param("type"))
	if !ok {
		c.JSON(http.StatusNotFound, notFoundBody)
		return
	}

	data, origin, err := s.content.Fetch(c.Request.Context(), resource)
	if err != nil {
		s.logger.WarnContext(c.Request.Context(), "Content fetch failed",
			"resource", resource,
			"requestId", c.GetString(requestIDKey),
			"error", err,
		)
		c.JSON(http.StatusNotFound, notFoundBody)
		return
	}

	c.JSON(http.StatusOK, ContentResponse{Data: data, Source: origin})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, notFoundBody)
}
