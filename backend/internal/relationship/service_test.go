package relationship

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"follownet/backend/internal/graph"
	"follownet/backend/internal/notify"
	apperrors "follownet/backend/pkg/errors"
)

// fakeStore mirrors the graph store contract in memory: MERGE-style
// idempotent follow, reported-absent unfollow, username-ascending listings.
type fakeStore struct {
	users        map[int]*graph.User
	edges        map[[2]int]bool
	lastPassHash string
	err          error // When set, every operation fails with it
}

func newFakeStore(usernames ...string) *fakeStore {
	s := &fakeStore{
		users: map[int]*graph.User{},
		edges: map[[2]int]bool{},
	}
	for i, name := range usernames {
		id := i + 1
		s.users[id] = &graph.User{ID: id, Username: name, Name: name, Email: name + "@example.com"}
	}
	return s
}

func (s *fakeStore) CreateUser(_ context.Context, name, username, email, passwordHash, bio string) (*graph.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return nil, apperrors.NewUsernameTaken(username)
		}
	}
	id := len(s.users) + 1
	u := &graph.User{ID: id, Username: username, Name: name, Email: email, Bio: bio}
	s.users[id] = u
	s.lastPassHash = passwordHash
	return u, nil
}

func (s *fakeStore) GetProfile(_ context.Context, userID int) (*graph.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[userID]
	if !ok {
		return nil, apperrors.NewUserNotFound(userID)
	}
	p := &graph.Profile{User: *u}
	for edge := range s.edges {
		if edge[1] == userID {
			p.Followers++
		}
		if edge[0] == userID {
			p.Following++
		}
	}
	return p, nil
}

func (s *fakeStore) ListUsers(ctx context.Context) ([]graph.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	ids := make([]int, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	profiles := make([]graph.Profile, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetProfile(ctx, id)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, nil
}

func (s *fakeStore) UpdateUser(_ context.Context, userID int, name, username, email, bio string) (*graph.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[userID]
	if !ok {
		return nil, apperrors.NewUserNotFound(userID)
	}
	for id, other := range s.users {
		if id != userID && strings.EqualFold(other.Username, username) {
			return nil, apperrors.NewUsernameTaken(username)
		}
	}
	u.Name, u.Username, u.Bio = name, username, bio
	if email != "" {
		u.Email = email
	}
	return &graph.Profile{User: *u}, nil
}

func (s *fakeStore) Follow(_ context.Context, followerID, followeeID int) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	follower, ok := s.users[followerID]
	if !ok {
		return "", apperrors.NewUserNotFound(followerID)
	}
	if _, ok := s.users[followeeID]; !ok {
		return "", apperrors.NewUserNotFound(followeeID)
	}
	s.edges[[2]int{followerID, followeeID}] = true
	return follower.Username, nil
}

func (s *fakeStore) Unfollow(_ context.Context, followerID, followeeID int) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	follower, ok := s.users[followerID]
	if !ok {
		return "", apperrors.NewUserNotFound(followerID)
	}
	if _, ok := s.users[followeeID]; !ok {
		return "", apperrors.NewUserNotFound(followeeID)
	}
	if !s.edges[[2]int{followerID, followeeID}] {
		return "", apperrors.NewEdgeNotFound(followerID, followeeID)
	}
	delete(s.edges, [2]int{followerID, followeeID})
	return follower.Username, nil
}

func (s *fakeStore) ListFollowers(_ context.Context, userID int) ([]graph.UserSummary, error) {
	return s.listNeighbors(userID, true)
}

func (s *fakeStore) ListFollowing(_ context.Context, userID int) ([]graph.UserSummary, error) {
	return s.listNeighbors(userID, false)
}

func (s *fakeStore) listNeighbors(userID int, incoming bool) ([]graph.UserSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	if _, ok := s.users[userID]; !ok {
		return nil, apperrors.NewUserNotFound(userID)
	}
	summaries := []graph.UserSummary{}
	for edge := range s.edges {
		var neighbor int
		if incoming && edge[1] == userID {
			neighbor = edge[0]
		} else if !incoming && edge[0] == userID {
			neighbor = edge[1]
		} else {
			continue
		}
		u := s.users[neighbor]
		summaries = append(summaries, graph.UserSummary{ID: u.ID, Username: u.Username, Name: u.Name, Bio: u.Bio})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Username < summaries[j].Username })
	return summaries, nil
}

type emission struct {
	recipientID   int
	actorID       int
	kind          notify.Kind
	actorUsername string
}

type fakeEmitter struct {
	emissions []emission
	err       error
}

func (e *fakeEmitter) Emit(_ context.Context, recipientID, actorID int, kind notify.Kind, actorUsername string) error {
	if e.err != nil {
		return e.err
	}
	e.emissions = append(e.emissions, emission{recipientID, actorID, kind, actorUsername})
	return nil
}

func newTestService(store *fakeStore) (*Service, *fakeEmitter) {
	emitter := &fakeEmitter{}
	return NewService(store, emitter), emitter
}

func TestFollow_RejectsSelfFollow(t *testing.T) {
	ctx := context.Background()

	// Self-follow fails whether or not the user exists; no store call is made
	store := newFakeStore("alice")
	svc, emitter := newTestService(store)

	err := svc.Follow(ctx, 1, 1)
	assert.True(t, apperrors.IsInvalidOperation(err))

	err = svc.Follow(ctx, 99, 99)
	assert.True(t, apperrors.IsInvalidOperation(err))

	err = svc.Unfollow(ctx, 1, 1)
	assert.True(t, apperrors.IsInvalidOperation(err))

	assert.Empty(t, emitter.emissions)
	assert.Empty(t, store.edges)
}

func TestFollow_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore("alice", "bob")
	svc, emitter := newTestService(store)

	require.NoError(t, svc.Follow(ctx, 1, 2))
	require.NoError(t, svc.Follow(ctx, 1, 2))

	// Exactly one edge, and following count went up by exactly one
	assert.Len(t, store.edges, 1)
	profile, err := svc.GetProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.Following)

	// Every successful call emits, including the idempotent repeat
	assert.Len(t, emitter.emissions, 2)
}

func TestFollow_EmitsNotificationSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore("alice", "bob")
	svc, emitter := newTestService(store)

	require.NoError(t, svc.Follow(ctx, 1, 2))

	require.Len(t, emitter.emissions, 1)
	e := emitter.emissions[0]
	assert.Equal(t, 2, e.recipientID)
	assert.Equal(t, 1, e.actorID)
	assert.Equal(t, notify.KindFollow, e.kind)
	assert.Equal(t, "alice", e.actorUsername)
}

func TestFollow_MissingUser(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore("alice")
	svc, emitter := newTestService(store)

	err := svc.Follow(ctx, 1, 42)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, emitter.emissions)
}

func TestFollow_SucceedsWhenEmitterFails(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore("alice", "bob")
	svc, emitter := newTestService(store)
	emitter.err = errors.New("notification log down")

	// Delivery failure never surfaces to the caller; the edge still exists
	require.NoError(t, svc.Follow(ctx, 1, 2))
	assert.True(t, store.edges[[2]int{1, 2}])
}

func TestUnfollow_AbsentEdgeIsError(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore("alice", "bob")
	svc, emitter := newTestService(store)

	// Asymmetric with Follow: the no-op path is reported, not swallowed
	err := svc.Unfollow(ctx, 1, 2)
	assert.True(t, apperrors.IsInvalidOperation(err))
	assert.Empty(t, store.edges)
	assert.Empty(t, emitter.emissions)
}

func TestUnfollow_RemovesFollower(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore("alice", "bob")
	svc, emitter := newTestService(store)

	require.NoError(t, svc.Follow(ctx, 1, 2))
	require.NoError(t, svc.Unfollow(ctx, 1, 2))

	followers, err := svc.ListFollowers(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, followers)

	require.Len(t, emitter.emissions, 2)
	assert.Equal(t, notify.KindUnfollow, emitter.emissions[1].kind)
}

func TestCountsMatchListings(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore("alice", "bob", "carol", "dave")
	svc, _ := newTestService(store)

	require.NoError(t, svc.Follow(ctx, 2, 1))
	require.NoError(t, svc.Follow(ctx, 3, 1))
	require.NoError(t, svc.Follow(ctx, 4, 1))
	require.NoError(t, svc.Follow(ctx, 1, 2))
	require.NoError(t, svc.Unfollow(ctx, 3, 1))

	for id := 1; id <= 4; id++ {
		profile, err := svc.GetProfile(ctx, id)
		require.NoError(t, err)
		followers, err := svc.ListFollowers(ctx, id)
		require.NoError(t, err)
		following, err := svc.ListFollowing(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, len(followers), profile.Followers, "follower count for user %d", id)
		assert.Equal(t, len(following), profile.Following, "following count for user %d", id)
	}
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore("alice")
	svc, _ := newTestService(store)

	_, err := svc.GetProfile(ctx, 42)
	assert.True(t, apperrors.IsNotFound(err))

	// Existing user with zero edges has zero counts, not an error
	profile, err := svc.GetProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, profile.Followers)
	assert.Equal(t, 0, profile.Following)
}

func TestRegister_RequiresFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newFakeStore())

	_, err := svc.Register(ctx, RegisterParams{Name: "Alice", Username: "alice", Email: "a@example.com"})
	assert.True(t, apperrors.IsInvalidArgument(err))

	_, err = svc.Register(ctx, RegisterParams{Name: "Alice", Username: "   ", Email: "a@example.com", Password: "secret"})
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestRegister_HashesPassword(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc, _ := newTestService(store)

	profile, err := svc.Register(ctx, RegisterParams{
		Name: "Alice", Username: "alice", Email: "a@example.com", Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, profile.Followers)
	assert.Equal(t, 0, profile.Following)

	// The plaintext never reaches the store
	assert.NotEqual(t, "secret", store.lastPassHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.lastPassHash), []byte("secret")))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newFakeStore("alice"))

	_, err := svc.Register(ctx, RegisterParams{
		Name: "Other Alice", Username: "ALICE", Email: "a2@example.com", Password: "secret",
	})
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestUpdateProfile_BlankUsername(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(newFakeStore("alice"))

	_, err := svc.UpdateProfile(ctx, 1, UpdateParams{Name: "Alice", Username: " "})
	assert.True(t, apperrors.IsInvalidArgument(err))
}
