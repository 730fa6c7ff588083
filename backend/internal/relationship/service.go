package relationship

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"follownet/backend/internal/graph"
	"follownet/backend/internal/notify"
	apperrors "follownet/backend/pkg/errors"
	"follownet/backend/pkg/logger"
)

// GraphStore is the slice of the relationship graph the service depends on
type GraphStore interface {
	CreateUser(ctx context.Context, name, username, email, passwordHash, bio string) (*graph.User, error)
	GetProfile(ctx context.Context, userID int) (*graph.Profile, error)
	ListUsers(ctx context.Context) ([]graph.Profile, error)
	UpdateUser(ctx context.Context, userID int, name, username, email, bio string) (*graph.Profile, error)
	Follow(ctx context.Context, followerID, followeeID int) (string, error)
	Unfollow(ctx context.Context, followerID, followeeID int) (string, error)
	ListFollowers(ctx context.Context, userID int) ([]graph.UserSummary, error)
	ListFollowing(ctx context.Context, userID int) ([]graph.UserSummary, error)
}

// Service implements the relationship operations over the graph store and
// triggers notification emission after successful mutations. It holds no
// state of its own and is safe for concurrent use.
type Service struct {
	store   GraphStore
	emitter notify.Emitter
	logger  *zap.Logger
}

// NewService creates a new relationship service
func NewService(store GraphStore, emitter notify.Emitter) *Service {
	return &Service{
		store:   store,
		emitter: emitter,
		logger:  logger.Get(),
	}
}

// RegisterParams are the fields accepted at registration
type RegisterParams struct {
	Name     string
	Username string
	Email    string
	Password string
	Bio      string
}

// Register creates a new user. Name, username, email and password are
// required; the password is stored only as a bcrypt hash.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*graph.Profile, error) {
	for field, value := range map[string]string{
		"name":     p.Name,
		"username": p.Username,
		"email":    p.Email,
		"password": p.Password,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, apperrors.NewMissingField(field)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewGraphUnavailable("hash password", err)
	}

	user, err := s.store.CreateUser(ctx, p.Name, p.Username, p.Email, string(hash), p.Bio)
	if err != nil {
		return nil, err
	}

	return &graph.Profile{User: *user}, nil
}

// GetProfile returns a user with live follower/following counts
func (s *Service) GetProfile(ctx context.Context, userID int) (*graph.Profile, error) {
	return s.store.GetProfile(ctx, userID)
}

// ListUsers returns all users with counts, id ascending
func (s *Service) ListUsers(ctx context.Context) ([]graph.Profile, error) {
	return s.store.ListUsers(ctx)
}

// UpdateParams are the mutable profile fields
type UpdateParams struct {
	Name     string
	Username string
	Email    string
	Bio      string
}

// UpdateProfile updates mutable user attributes; it never touches edges
func (s *Service) UpdateProfile(ctx context.Context, userID int, p UpdateParams) (*graph.Profile, error) {
	if strings.TrimSpace(p.Username) == "" {
		return nil, apperrors.NewMissingField("username")
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, apperrors.NewMissingField("name")
	}
	return s.store.UpdateUser(ctx, userID, p.Name, p.Username, p.Email, p.Bio)
}

// Follow makes followerID follow followeeID. Following someone already
// followed is a silent success, and every successful call emits a follow
// notification to the followee.
func (s *Service) Follow(ctx context.Context, followerID, followeeID int) error {
	if followerID == followeeID {
		return apperrors.NewSelfFollow(followerID)
	}

	actorUsername, err := s.store.Follow(ctx, followerID, followeeID)
	if err != nil {
		return err
	}

	s.emit(ctx, followeeID, followerID, notify.KindFollow, actorUsername)
	return nil
}

// Unfollow removes the follow edge. Unlike Follow, an absent edge is an
// error: unfollowing someone you do not follow is treated as a client
// mistake.
func (s *Service) Unfollow(ctx context.Context, followerID, followeeID int) error {
	if followerID == followeeID {
		return apperrors.NewSelfFollow(followerID)
	}

	actorUsername, err := s.store.Unfollow(ctx, followerID, followeeID)
	if err != nil {
		return err
	}

	s.emit(ctx, followeeID, followerID, notify.KindUnfollow, actorUsername)
	return nil
}

// ListFollowers returns who follows userID, username ascending
func (s *Service) ListFollowers(ctx context.Context, userID int) ([]graph.UserSummary, error) {
	return s.store.ListFollowers(ctx, userID)
}

// ListFollowing returns who userID follows, username ascending
func (s *Service) ListFollowing(ctx context.Context, userID int) ([]graph.UserSummary, error) {
	return s.store.ListFollowing(ctx, userID)
}

// emit is the best-effort post-commit hook: one delivery attempt after the
// graph mutation has committed. A failure is logged for operators and
// swallowed; the caller's mutation already succeeded and is not rolled back.
func (s *Service) emit(ctx context.Context, recipientID, actorID int, kind notify.Kind, actorUsername string) {
	if err := s.emitter.Emit(ctx, recipientID, actorID, kind, actorUsername); err != nil {
		s.logger.Warn("Notification delivery failed",
			zap.Int("recipient_id", recipientID),
			zap.Int("actor_id", actorID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}
