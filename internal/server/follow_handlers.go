package server

import (
	"quill/internal/authz"
	"quill/internal/models"
	"quill/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// ProfileFollow handles GET /:username/follow/. Following an author you
// already follow, or yourself, changes nothing; the response is the same
// redirect to the profile either way.
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	author, err := s.userRepo.GetByUsername(ctx, c.Params("username"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	if !authz.CanFollow(userID, author.ID) {
		observability.FollowRequests.WithLabelValues("follow", "noop").Inc()
		return c.Redirect(profileURL(author.Username), fiber.StatusFound)
	}

	already, err := s.followRepo.IsFollowing(ctx, userID, author.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if err := s.followRepo.Follow(ctx, userID, author.ID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	outcome := "created"
	if already {
		outcome = "noop"
	}
	observability.FollowRequests.WithLabelValues("follow", outcome).Inc()

	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}

// ProfileUnfollow handles GET /:username/unfollow/. Removing an edge that
// does not exist is a no-op, never an error.
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	author, err := s.userRepo.GetByUsername(ctx, c.Params("username"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	if err := s.followRepo.Unfollow(ctx, userID, author.ID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	observability.FollowRequests.WithLabelValues("unfollow", "applied").Inc()

	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}
