package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedBody struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Posts    []struct {
		ID     uint   `json:"id"`
		Text   string `json:"text"`
		Author struct {
			Username string `json:"username"`
		} `json:"author"`
	} `json:"posts"`
}

func getFeed(t *testing.T, app *fiber.App, target, token string) feedBody {
	t.Helper()

	res, err := app.Test(request(http.MethodGet, target, token, nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var body feedBody
	decodeBody(t, res, &body)
	return body
}

func TestIndexPagination(t *testing.T) {
	s, app := newTestServer(t)
	author := createUser(t, s, "prolific")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		createPost(t, s, author, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	page1 := getFeed(t, app, "/", "")
	assert.Equal(t, 1, page1.Page)
	assert.Equal(t, 10, page1.PageSize)
	require.Len(t, page1.Posts, 10)
	assert.Equal(t, "post 11", page1.Posts[0].Text, "newest first")

	page2 := getFeed(t, app, "/?page=2", "")
	require.Len(t, page2.Posts, 2)
	assert.Equal(t, "post 0", page2.Posts[1].Text)

	page3 := getFeed(t, app, "/?page=3", "")
	assert.Empty(t, page3.Posts)

	// Pages never overlap.
	seen := map[uint]bool{}
	for _, p := range page1.Posts {
		seen[p.ID] = true
	}
	for _, p := range page2.Posts {
		assert.False(t, seen[p.ID])
	}

	t.Run("page below 1 clamps to the first page", func(t *testing.T) {
		clamped := getFeed(t, app, "/?page=0", "")
		assert.Equal(t, 1, clamped.Page)
		require.Len(t, clamped.Posts, 10)
		assert.Equal(t, page1.Posts[0].ID, clamped.Posts[0].ID)
	})

	t.Run("garbage page value clamps too", func(t *testing.T) {
		clamped := getFeed(t, app, "/?page=banana", "")
		assert.Equal(t, 1, clamped.Page)
	})
}

func TestGroupPosts(t *testing.T) {
	s, app := newTestServer(t)
	author := createUser(t, s, "tagger")

	group := &models.Group{Title: "Cooking", Slug: "cooking", Description: "recipes"}
	require.NoError(t, s.db.Create(group).Error)

	tagged := createPost(t, s, author, "in the group", time.Now())
	require.NoError(t, s.db.Model(tagged).Update("group_id", group.ID).Error)
	createPost(t, s, author, "untagged", time.Now())

	body := getFeed(t, app, "/group/cooking/", "")
	require.Len(t, body.Posts, 1)
	assert.Equal(t, "in the group", body.Posts[0].Text)

	t.Run("unknown slug is 404", func(t *testing.T) {
		res, err := app.Test(request(http.MethodGet, "/group/no-such/", "", nil), -1)
		require.NoError(t, err)
		defer func() { _ = res.Body.Close() }()
		assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
	})
}

func TestProfile(t *testing.T) {
	s, app := newTestServer(t)
	author := createUser(t, s, "profiled")
	viewer := createUser(t, s, "viewer")
	other := createUser(t, s, "other")

	createPost(t, s, author, "mine", time.Now())
	createPost(t, s, other, "not mine", time.Now())

	require.NoError(t, s.db.Create(&models.Follow{UserID: viewer.ID, AuthorID: author.ID}).Error)

	res, err := app.Test(request(http.MethodGet, "/profiled/", sessionFor(t, s, viewer.ID), nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var body struct {
		Author struct {
			Username string `json:"username"`
		} `json:"author"`
		Following bool `json:"following"`
		Followers int64 `json:"followers"`
		Posts     []struct {
			Text string `json:"text"`
		} `json:"posts"`
	}
	decodeBody(t, res, &body)
	assert.Equal(t, "profiled", body.Author.Username)
	assert.True(t, body.Following)
	assert.EqualValues(t, 1, body.Followers)
	require.Len(t, body.Posts, 1)
	assert.Equal(t, "mine", body.Posts[0].Text)

	t.Run("anonymous viewer sees following false", func(t *testing.T) {
		res, err := app.Test(request(http.MethodGet, "/profiled/", "", nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, res.StatusCode)

		var anon struct {
			Following bool `json:"following"`
		}
		decodeBody(t, res, &anon)
		assert.False(t, anon.Following)
	})

	t.Run("unknown username is 404", func(t *testing.T) {
		res, err := app.Test(request(http.MethodGet, "/ghost/", "", nil), -1)
		require.NoError(t, err)
		defer func() { _ = res.Body.Close() }()
		assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
	})
}

func TestFollowIndex(t *testing.T) {
	s, app := newTestServer(t)
	reader := createUser(t, s, "reader")
	followed := createUser(t, s, "followed")
	stranger := createUser(t, s, "stranger")

	createPost(t, s, followed, "from followed", time.Now())
	createPost(t, s, stranger, "from stranger", time.Now())

	require.NoError(t, s.db.Create(&models.Follow{UserID: reader.ID, AuthorID: followed.ID}).Error)

	body := getFeed(t, app, "/follow/", sessionFor(t, s, reader.ID))
	require.Len(t, body.Posts, 1)
	assert.Equal(t, "from followed", body.Posts[0].Text)
	assert.Equal(t, "followed", body.Posts[0].Author.Username)

	t.Run("empty when following nobody", func(t *testing.T) {
		lonely := createUser(t, s, "lonely")
		body := getFeed(t, app, "/follow/", sessionFor(t, s, lonely.ID))
		assert.Empty(t, body.Posts)
	})
}

func TestGroupsList(t *testing.T) {
	s, app := newTestServer(t)
	require.NoError(t, s.db.Create(&models.Group{Title: "One", Slug: "one"}).Error)
	require.NoError(t, s.db.Create(&models.Group{Title: "Two", Slug: "two"}).Error)

	res, err := app.Test(request(http.MethodGet, "/groups/", "", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var body struct {
		Groups []struct {
			Slug string `json:"slug"`
		} `json:"groups"`
	}
	decodeBody(t, res, &body)
	assert.Len(t, body.Groups, 2)
}
