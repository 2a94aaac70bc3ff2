package server

import (
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AddComment handles POST /:username/:postID/comment/. The comment is tied
// to the acting user and the addressed post; nothing is written when
// validation fails.
func (s *Server) AddComment(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	postID, err := parsePostID(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}
	post, err := s.postRepo.GetByAuthorAndID(ctx, c.Params("username"), postID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	var form validation.CommentForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if res := form.Validate(); !res.OK() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"post":   post,
			"form":   form,
			"errors": res.Errors,
		})
	}

	comment := &models.Comment{
		Text:     form.Text,
		AuthorID: userID,
		PostID:   post.ID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	observability.CommentsCreated.Inc()

	return c.Redirect(postURL(post.Author.Username, post.ID), fiber.StatusFound)
}
