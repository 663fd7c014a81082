package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/i474232898/surfspots/internal/apperr"
)

const (
	MsgDuplicateName = "This name already exists, please choose a different one"
	MsgRegistered    = "You were successfully registered"
	MsgUnknownUser   = "Sorry, please sign in first, your profile hasn't been created yet"
	MsgWrongPassword = "Wrong Password"
	MsgForbidden     = "Only admins can add, edit or delete spots."
	MsgLoginFirst    = "Please log in to leave a comment."
)

// Service implements registration, login, spot management and comments.
type Service struct {
	repo       *Repository
	clock      clockwork.Clock
	isAdmin    func(name string) bool
	bcryptCost int
	logger     zerolog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the clock used to date new spots.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithAdmins decides which registering names receive the admin role.
func WithAdmins(isAdmin func(name string) bool) Option {
	return func(s *Service) { s.isAdmin = isAdmin }
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func NewService(repo *Repository, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		clock:      clockwork.NewRealClock(),
		isAdmin:    func(string) bool { return false },
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a member (or admin, for configured names) with a hashed
// password.
func (s *Service) Register(ctx context.Context, name, password string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return nil, apperr.E(apperr.Validation, "Please enter a name and a password.", nil)
	}

	if _, err := s.repo.UserByName(ctx, name); err == nil {
		return nil, apperr.E(apperr.Validation, MsgDuplicateName, ErrDuplicateName)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{Name: name, Password: string(hash), Role: RoleMember}
	if s.isAdmin(name) {
		u.Role = RoleAdmin
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateName) {
			return nil, apperr.E(apperr.Validation, MsgDuplicateName, err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Uint("user_id", u.ID).Str("role", string(u.Role)).Msg("user registered")
	return u, nil
}

// Login checks name and password and returns the matching user.
func (s *Service) Login(ctx context.Context, name, password string) (*User, error) {
	u, err := s.repo.UserByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.E(apperr.Unauthenticated, MsgUnknownUser, err)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, apperr.E(apperr.Unauthenticated, MsgWrongPassword, err)
	}
	return &u, nil
}

// User returns the user with id, used to restore a session.
func (s *Service) User(ctx context.Context, id uint) (*User, error) {
	u, err := s.repo.UserByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.E(apperr.NotFound, "", err)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) CreateSpot(ctx context.Context, actor *User, in SpotInput) (*BlogPost, error) {
	if !CanManageSpots(actor) {
		return nil, apperr.E(apperr.Forbidden, MsgForbidden, nil)
	}
	if err := in.Validate(); err != nil {
		return nil, invalidSpot(err)
	}

	p := &BlogPost{
		AuthorID: actor.ID,
		Date:     s.clock.Now().Format("2006-01-02"),
	}
	in.apply(p)
	if err := s.repo.CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("create spot: %w", err)
	}

	s.logger.Info().Uint("spot_id", p.ID).Uint("author_id", actor.ID).Msg("spot created")
	return p, nil
}

func (s *Service) UpdateSpot(ctx context.Context, actor *User, id uint, in SpotInput) (*BlogPost, error) {
	if !CanManageSpots(actor) {
		return nil, apperr.E(apperr.Forbidden, MsgForbidden, nil)
	}
	if err := in.Validate(); err != nil {
		return nil, invalidSpot(err)
	}

	p := &BlogPost{ID: id}
	in.apply(p)
	if err := s.repo.UpdatePost(ctx, p); err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return nil, apperr.E(apperr.NotFound, "This spot does not exist.", err)
		}
		return nil, fmt.Errorf("update spot %d: %w", id, err)
	}

	s.logger.Info().Uint("spot_id", id).Uint("editor_id", actor.ID).Msg("spot updated")
	return s.Spot(ctx, id)
}

// DeleteSpot removes a spot and every comment on it.
func (s *Service) DeleteSpot(ctx context.Context, actor *User, id uint) error {
	if !CanManageSpots(actor) {
		return apperr.E(apperr.Forbidden, MsgForbidden, nil)
	}
	if err := s.repo.DeletePost(ctx, id); err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return apperr.E(apperr.NotFound, "This spot does not exist.", err)
		}
		return fmt.Errorf("delete spot %d: %w", id, err)
	}

	s.logger.Info().Uint("spot_id", id).Uint("editor_id", actor.ID).Msg("spot deleted")
	return nil
}

func (s *Service) Spot(ctx context.Context, id uint) (*BlogPost, error) {
	p, err := s.repo.PostByID(ctx, id)
	if errors.Is(err, ErrPostNotFound) {
		return nil, apperr.E(apperr.NotFound, "This spot does not exist.", err)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Spots lists every spot, or only those of country when it is not empty.
func (s *Service) Spots(ctx context.Context, country string) ([]BlogPost, error) {
	return s.repo.ListPosts(ctx, strings.TrimSpace(country), 0)
}

// Featured returns the first n spots for the landing page.
func (s *Service) Featured(ctx context.Context, n int) ([]BlogPost, error) {
	return s.repo.ListPosts(ctx, "", n)
}

// AddComment attaches text to a spot on behalf of a logged-in user.
func (s *Service) AddComment(ctx context.Context, actor *User, postID uint, text string) (*Comment, error) {
	if actor == nil {
		return nil, apperr.E(apperr.Unauthenticated, MsgLoginFirst, nil)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.E(apperr.Validation, "A comment cannot be empty.", nil)
	}

	ok, err := s.repo.PostExists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.E(apperr.NotFound, "This spot does not exist.", ErrPostNotFound)
	}

	c := &Comment{Text: text, AuthorID: actor.ID, PostID: postID}
	if err := s.repo.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

func invalidSpot(err error) error {
	msg := "Please fill in every field."
	if fields := fieldList(err); fields != "" {
		msg = "Please check these fields: " + fields + "."
	}
	return apperr.E(apperr.Validation, msg, err)
}
