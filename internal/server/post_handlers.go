package server

import (
	"fmt"

	"quill/internal/authz"
	"quill/internal/cache"
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/validation"

	"github.com/gofiber/fiber/v2"
)

func postURL(username string, postID uint) string {
	return fmt.Sprintf("/%s/%d/", username, postID)
}

func profileURL(username string) string {
	return fmt.Sprintf("/%s/", username)
}

// parsePostID reads the :postID path parameter. A non-numeric id means the
// path addresses nothing, so it is a not-found, not a validation error.
func parsePostID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("postID")
	if err != nil || id <= 0 {
		return 0, models.NewNotFoundError("Post", c.Params("postID"))
	}
	return uint(id), nil
}

// resolveGroup maps the form's group slug to a group id. An empty slug
// means the post is not tagged.
func (s *Server) resolveGroup(c *fiber.Ctx, form validation.PostForm) (*uint, *models.AppError) {
	if form.GroupSlug == "" {
		return nil, nil
	}
	group, err := s.groupRepo.GetBySlug(c.Context(), form.GroupSlug)
	if err != nil {
		return nil, models.NewValidationError("Unknown group")
	}
	return &group.ID, nil
}

// NewPostForm handles GET /new/. It returns a blank post form.
func (s *Server) NewPostForm(c *fiber.Ctx) error {
	groups, err := s.groupRepo.List(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{
		"form":   validation.PostForm{},
		"groups": groups,
	})
}

// CreatePost handles POST /new/. The author is always the acting user and
// the timestamp is set by the store; neither comes from the form.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	var form validation.PostForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if res := form.Validate(); !res.OK() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"form":   form,
			"errors": res.Errors,
		})
	}

	groupID, appErr := s.resolveGroup(c, form)
	if appErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"form":   form,
			"errors": fiber.Map{"group": appErr.Message},
		})
	}

	post := &models.Post{
		Text:     form.Text,
		ImageURL: form.ImageURL,
		AuthorID: userID,
		GroupID:  groupID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	observability.PostsCreated.Inc()
	_ = cache.InvalidateFeed(ctx)

	return c.Redirect("/", fiber.StatusFound)
}

// PostDetail handles GET /:username/:postID/. It returns the post, its comments
// newest-first, and a blank comment form.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	ctx := c.Context()

	postID, err := parsePostID(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}
	post, err := s.postRepo.GetByAuthorAndID(ctx, c.Params("username"), postID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	comments, err := s.commentRepo.ListByPost(ctx, post.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}

	return c.JSON(fiber.Map{
		"post":     post,
		"comments": comments,
		"form":     validation.CommentForm{},
	})
}

// EditPostForm handles GET /:username/:postID/edit/. It returns the form prefilled
// with the post's current fields. Non-authors are sent back to the detail
// view, same as on submit.
func (s *Server) EditPostForm(c *fiber.Ctx) error {
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

	if !authz.CanModify(userID, post) {
		return c.Redirect(postURL(post.Author.Username, post.ID), fiber.StatusFound)
	}

	form := validation.PostForm{Text: post.Text, ImageURL: post.ImageURL}
	if post.Group != nil {
		form.GroupSlug = post.Group.Slug
	}
	return c.JSON(fiber.Map{"form": form, "post": post})
}

// EditPost handles POST /:username/:postID/edit/. Author and creation
// timestamp are invariant; a non-author is redirected, not rejected.
func (s *Server) EditPost(c *fiber.Ctx) error {
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

	if !authz.CanModify(userID, post) {
		return c.Redirect(postURL(post.Author.Username, post.ID), fiber.StatusFound)
	}

	var form validation.PostForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if res := form.Validate(); !res.OK() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"form":   form,
			"errors": res.Errors,
		})
	}

	groupID, appErr := s.resolveGroup(c, form)
	if appErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"form":   form,
			"errors": fiber.Map{"group": appErr.Message},
		})
	}

	post.Text = form.Text
	post.ImageURL = form.ImageURL
	post.GroupID = groupID
	if err := s.postRepo.Update(ctx, post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	_ = cache.InvalidateFeed(ctx)

	return c.Redirect(postURL(post.Author.Username, post.ID), fiber.StatusFound)
}

// DeletePost handles POST /:username/:postID/delete/. Comments go with the
// post; the browser lands on the author's profile.
func (s *Server) DeletePost(c *fiber.Ctx) error {
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

	if !authz.CanModify(userID, post) {
		return c.Redirect(postURL(post.Author.Username, post.ID), fiber.StatusFound)
	}

	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	_ = cache.InvalidateFeed(ctx)

	return c.Redirect(profileURL(post.Author.Username), fiber.StatusFound)
}
