package server

import (
	"quill/internal/cache"
	"quill/internal/models"
	"quill/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// Index handles GET /. The global feed lists all posts newest-first. Pages are
// served cache-aside; every post write invalidates them.
func (s *Server) Index(c *fiber.Ctx) error {
	ctx := c.Context()
	page := pageParam(c)

	var posts []*models.Post
	err := cache.CacheAside(ctx, cache.FeedKey(page), &posts, cache.FeedTTL, func() error {
		var ferr error
		posts, ferr = s.postRepo.ListPage(ctx, page)
		return ferr
	})
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(feedPage(page, posts))
}

// GroupPosts handles GET /group/:slug/. It lists posts published under one group.
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	ctx := c.Context()

	group, err := s.groupRepo.GetBySlug(ctx, c.Params("slug"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	page := pageParam(c)
	posts, err := s.postRepo.ListByGroup(ctx, group.ID, page)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	body := feedPage(page, posts)
	body["group"] = group
	return c.JSON(body)
}

// Groups handles GET /groups/. It lists all groups for the post form picker.
func (s *Server) Groups(c *fiber.Ctx) error {
	groups, err := s.groupRepo.List(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{"groups": groups})
}

// Profile handles GET /:username/. It returns the author's paginated posts and a
// following flag for the viewer.
func (s *Server) Profile(c *fiber.Ctx) error {
	ctx := c.Context()

	author, err := s.userRepo.GetByUsername(ctx, c.Params("username"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}

	page := pageParam(c)
	posts, err := s.postRepo.ListByAuthor(ctx, author.ID, page)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	following := false
	if viewerID, ok := s.actingUserID(c); ok {
		following, err = s.followRepo.IsFollowing(ctx, viewerID, author.ID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
	}

	followers, err := s.followRepo.CountFollowers(ctx, author.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	body := feedPage(page, posts)
	body["author"] = author
	body["following"] = following
	body["followers"] = followers
	return c.JSON(body)
}

// FollowIndex handles GET /follow/. It lists posts by authors the acting user
// follows, and nothing else.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	page := pageParam(c)
	posts, err := s.postRepo.ListFollowing(ctx, userID, page)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(feedPage(page, posts))
}

func feedPage(page int, posts []*models.Post) fiber.Map {
	if posts == nil {
		posts = []*models.Post{}
	}
	return fiber.Map{
		"page":      page,
		"page_size": repository.PageSize,
		"posts":     posts,
	}
}
