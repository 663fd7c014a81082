package blog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrDuplicateName = errors.New("user name already taken")
	ErrUserNotFound  = errors.New("user not found")
	ErrPostNotFound  = errors.New("spot not found")
)

// Repository is the gorm-backed persistence for users, spots and comments.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateUser(ctx context.Context, u *User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateName
	}
	return err
}

func (r *Repository) UserByName(ctx context.Context, name string) (User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (r *Repository) UserByID(ctx context.Context, id uint) (User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&User{}).Count(&n).Error
	return n, err
}

func (r *Repository) CreatePost(ctx context.Context, p *BlogPost) error {
	return r.db.WithContext(ctx).Omit("Author", "Comments").Create(p).Error
}

// UpdatePost overwrites the editable fields of an existing spot.
func (r *Repository) UpdatePost(ctx context.Context, p *BlogPost) error {
	res := r.db.WithContext(ctx).Model(&BlogPost{ID: p.ID}).
		Select("NameBeach", "City", "Country", "Continent", "MapsURL", "Access",
			"Clima", "WaveQuality", "Infos", "ImgURL").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// DeletePost removes a spot together with its comments.
func (r *Repository) DeletePost(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		res := tx.Delete(&BlogPost{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
}

// PostByID loads a spot with its author and comments, oldest comment first.
func (r *Repository) PostByID(ctx context.Context, id uint) (BlogPost, error) {
	var p BlogPost
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("comments.id ASC") }).
		Preload("Comments.Author").
		First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return BlogPost{}, ErrPostNotFound
	}
	return p, err
}

// ListPosts returns spots in creation order, optionally for one country.
// limit <= 0 means no limit.
func (r *Repository) ListPosts(ctx context.Context, country string, limit int) ([]BlogPost, error) {
	q := r.db.WithContext(ctx).Preload("Author").Order("blog_posts.id ASC")
	if country != "" {
		q = q.Where("country = ?", country)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var posts []BlogPost
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// Countries returns the country field of every spot, one entry per spot.
func (r *Repository) Countries(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&BlogPost{}).Order("id ASC").Pluck("country", &names).Error
	return names, err
}

func (r *Repository) CreateComment(ctx context.Context, c *Comment) error {
	return r.db.WithContext(ctx).Omit("Author").Create(c).Error
}

func (r *Repository) PostExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&BlogPost{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}
