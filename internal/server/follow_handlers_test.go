package server

import (
	"net/http"
	"testing"

	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func followCount(t *testing.T, s *Server) int64 {
	t.Helper()
	var count int64
	require.NoError(t, s.db.Model(&models.Follow{}).Count(&count).Error)
	return count
}

func TestProfileFollow(t *testing.T) {
	s, app := newTestServer(t)
	reader := createUser(t, s, "reader")
	createUser(t, s, "author")
	token := sessionFor(t, s, reader.ID)

	t.Run("follow creates one edge and redirects to the profile", func(t *testing.T) {
		res, err := app.Test(request(http.MethodGet, "/author/follow/", token, nil), -1)
		require.NoError(t, err)
		defer func() { _ = res.Body.Close() }()

		assert.Equal(t, fiber.StatusFound, res.StatusCode)
		assert.Equal(t, "/author/", res.Header.Get("Location"))
		assert.EqualValues(t, 1, followCount(t, s))
	})

	t.Run("following again is a no-op", func(t *testing.T) {
		res, err := app.Test(request(http.MethodGet, "/author/follow/", token, nil), -1)
		require.NoError(t, err)
		defer func() { _ = res.Body.Close() }()

		assert.Equal(t, fiber.StatusFound, res.StatusCode)
		assert.EqualValues(t, 1, followCount(t, s))
	})

	t.Run("self-follow writes nothing", func(t *testing.T) {
		res, err := app.Test(request(http.MethodGet, "/reader/follow/", token, nil), -1)
		require.NoError(t, err)
		defer func() { _ = res.Body.Close() }()

		assert.Equal(t, fiber.StatusFound, res.StatusCode)
		assert.Equal(t, "/reader/", res.Header.Get("Location"))

		var selfEdges int64
		require.NoError(t, s.db.Model(&models.Follow{}).
			Where("user_id = ? AND author_id = ?", reader.ID, reader.ID).
			Count(&selfEdges).Error)
		assert.Zero(t, selfEdges)
	})

	t.Run("unknown author is 404", func(t *testing.T) {
		res, err := app.Test(request(http.MethodGet, "/ghost/follow/", token, nil), -1)
		require.NoError(t, err)
		defer func() { _ = res.Body.Close() }()
		assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
	})
}

func TestProfileUnfollow(t *testing.T) {
	s, app := newTestServer(t)
	reader := createUser(t, s, "reader")
	author := createUser(t, s, "author")
	token := sessionFor(t, s, reader.ID)

	require.NoError(t, s.db.Create(&models.Follow{UserID: reader.ID, AuthorID: author.ID}).Error)

	t.Run("unfollow removes the edge", func(t *testing.T) {
		res, err := app.Test(request(http.MethodGet, "/author/unfollow/", token, nil), -1)
		require.NoError(t, err)
		defer func() { _ = res.Body.Close() }()

		assert.Equal(t, fiber.StatusFound, res.StatusCode)
		assert.Equal(t, "/author/", res.Header.Get("Location"))
		assert.Zero(t, followCount(t, s))
	})

	t.Run("unfollowing again is a no-op, not an error", func(t *testing.T) {
		res, err := app.Test(request(http.MethodGet, "/author/unfollow/", token, nil), -1)
		require.NoError(t, err)
		defer func() { _ = res.Body.Close() }()

		assert.Equal(t, fiber.StatusFound, res.StatusCode)
		assert.Zero(t, followCount(t, s))
	})
}
