// Package seed populates the database with demo data for development.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"quill/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options controls how much data the seeder creates.
type Options struct {
	NumUsers    int
	NumGroups   int
	NumPosts    int
	ShouldClean bool
}

// Seeder builds domain entities and persists them. Development only.
type Seeder struct {
	db   *gorm.DB
	rand *rand.Rand
}

func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:   db,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes all seeded rows, children first.
func (s *Seeder) ClearAll() error {
	for _, table := range []string{"comments", "follows", "posts", "groups", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Seed fills the database per opts. All seeded users share the password
// "password123".
func (s *Seeder) Seed(opts Options) error {
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	users, err := s.createUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	log.Printf("seeded %d users", len(users))

	groups, err := s.createGroups(opts.NumGroups)
	if err != nil {
		return fmt.Errorf("seed groups: %w", err)
	}
	log.Printf("seeded %d groups", len(groups))

	posts, err := s.createPosts(users, groups, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("seed posts: %w", err)
	}
	log.Printf("seeded %d posts", len(posts))

	comments, err := s.createComments(users, posts)
	if err != nil {
		return fmt.Errorf("seed comments: %w", err)
	}
	log.Printf("seeded %d comments", comments)

	follows, err := s.createFollows(users)
	if err != nil {
		return fmt.Errorf("seed follows: %w", err)
	}
	log.Printf("seeded %d follow edges", follows)

	return nil
}

func (s *Seeder) createUsers(n int) ([]*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user := &models.User{
			Username: fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
			Email:    gofakeit.Email(),
			Password: string(hashed),
			Bio:      gofakeit.Sentence(10),
		}
		if err := s.db.Create(user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) createGroups(n int) ([]*models.Group, error) {
	groups := make([]*models.Group, 0, n)
	for i := 0; i < n; i++ {
		word := gofakeit.HackerNoun()
		group := &models.Group{
			Title:       gofakeit.BookTitle(),
			Slug:        fmt.Sprintf("%s-%d", word, i),
			Description: gofakeit.Sentence(12),
		}
		if err := s.db.Create(group).Error; err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *Seeder) createPosts(users []*models.User, groups []*models.Group, n int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.rand.Intn(len(users))]
		post := &models.Post{
			Text:     gofakeit.Paragraph(1, 3, 8, "\n"),
			AuthorID: author.ID,
			// spread posts over the last 90 days so feeds paginate
			CreatedAt: time.Now().Add(-time.Duration(s.rand.Intn(90*24)) * time.Hour),
		}
		if len(groups) > 0 && s.rand.Intn(3) > 0 {
			post.GroupID = &groups[s.rand.Intn(len(groups))].ID
		}
		if s.rand.Intn(4) == 0 {
			post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID())
		}
		if err := s.db.Create(post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) createComments(users []*models.User, posts []*models.Post) (int, error) {
	created := 0
	for _, post := range posts {
		for i := 0; i < s.rand.Intn(5); i++ {
			comment := &models.Comment{
				Text:     gofakeit.Sentence(8),
				AuthorID: users[s.rand.Intn(len(users))].ID,
				PostID:   post.ID,
			}
			if err := s.db.Create(comment).Error; err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

func (s *Seeder) createFollows(users []*models.User) (int, error) {
	created := 0
	for _, user := range users {
		for i := 0; i < s.rand.Intn(6); i++ {
			author := users[s.rand.Intn(len(users))]
			if author.ID == user.ID {
				continue
			}
			edge := &models.Follow{UserID: user.ID, AuthorID: author.ID}
			// duplicates from the random picks are fine, skip them
			err := s.db.Where("user_id = ? AND author_id = ?", user.ID, author.ID).
				FirstOrCreate(edge).Error
			if err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}
