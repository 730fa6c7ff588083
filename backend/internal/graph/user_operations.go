package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"go.uber.org/zap"

	apperrors "follownet/backend/pkg/errors"
)

// ============================================================================
// User Operations
// ============================================================================

// CreateUser creates a new user node and allocates its id. The in-query
// username check catches the common case with a clean error; the
// username_lower uniqueness constraint (EnsureSchema) catches the
// concurrent one, where two registrations of the same name both pass the
// check and one fails at commit.
func (r *Repository) CreateUser(ctx context.Context, name, username, email, passwordHash, bio string) (*User, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	now := time.Now().UTC().Format(time.RFC3339)

	query := `
		OPTIONAL MATCH (taken:User)
		WHERE toLower(taken.username) = toLower($username)
		WITH count(taken) AS conflicts
		OPTIONAL MATCH (existing:User)
		WITH conflicts, coalesce(max(existing.user_id), 0) + 1 AS next_id
		WHERE conflicts = 0
		CREATE (u:User {
			user_id: next_id,
			username: $username,
			username_lower: toLower($username),
			full_name: $name,
			email: $email,
			bio: $bio,
			password_hash: $passwordHash,
			joined: datetime($now)
		})
		RETURN u.user_id AS user_id, u.username AS username, u.full_name AS full_name,
		       u.email AS email, u.bio AS bio, u.joined AS joined
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"name":         name,
		"username":     username,
		"email":        email,
		"bio":          bio,
		"passwordHash": passwordHash,
		"now":          now,
	})
	if err != nil {
		if usernameConstraintViolated(err) {
			return nil, apperrors.NewUsernameTaken(username)
		}
		return nil, apperrors.NewGraphUnavailable("create user", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			if usernameConstraintViolated(err) {
				return nil, apperrors.NewUsernameTaken(username)
			}
			return nil, apperrors.NewGraphUnavailable("create user", err)
		}
		// The only way the statement yields no row is the username filter
		return nil, apperrors.NewUsernameTaken(username)
	}

	user := userFromRecord(result.Record())

	r.logger.Info("User created",
		zap.Int("user_id", user.ID),
		zap.String("username", user.Username),
	)
	return &user, nil
}

// GetProfile returns a user together with follower and following counts.
// Both aggregations run inside the one statement: the two counts always
// describe the same snapshot of the edge set.
func (r *Repository) GetProfile(ctx context.Context, userID int) (*Profile, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {user_id: $userID})
		OPTIONAL MATCH (u)<-[in:FOLLOWS]-(:User)
		WITH u, count(in) AS followers
		OPTIONAL MATCH (u)-[out:FOLLOWS]->(:User)
		RETURN u.user_id AS user_id, u.username AS username, u.full_name AS full_name,
		       u.email AS email, u.bio AS bio, u.joined AS joined,
		       followers, count(out) AS following
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
	})
	if err != nil {
		return nil, apperrors.NewGraphUnavailable("get profile", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, apperrors.NewGraphUnavailable("get profile", err)
		}
		return nil, apperrors.NewUserNotFound(userID)
	}

	profile := profileFromRecord(result.Record())
	return &profile, nil
}

// ListUsers returns every user with counts, ordered by id ascending
func (r *Repository) ListUsers(ctx context.Context) ([]Profile, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User)
		OPTIONAL MATCH (u)<-[in:FOLLOWS]-(:User)
		WITH u, count(in) AS followers
		OPTIONAL MATCH (u)-[out:FOLLOWS]->(:User)
		RETURN u.user_id AS user_id, u.username AS username, u.full_name AS full_name,
		       u.email AS email, u.bio AS bio, u.joined AS joined,
		       followers, count(out) AS following
		ORDER BY u.user_id
	`

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, apperrors.NewGraphUnavailable("list users", err)
	}

	profiles := []Profile{}
	for result.Next(ctx) {
		profiles = append(profiles, profileFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphUnavailable("list users", err)
	}

	return profiles, nil
}

// UpdateUser updates the mutable profile fields of a user. An empty email
// leaves the stored email untouched. The username conflict check and the
// SET run in one statement; when another user already holds the requested
// username nothing is written.
func (r *Repository) UpdateUser(ctx context.Context, userID int, name, username, email, bio string) (*Profile, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {user_id: $userID})
		OPTIONAL MATCH (taken:User)
		WHERE toLower(taken.username) = toLower($username) AND taken.user_id <> u.user_id
		WITH u, count(taken) AS conflicts
		SET u.username       = CASE WHEN conflicts = 0 THEN $username ELSE u.username END,
		    u.username_lower = CASE WHEN conflicts = 0 THEN toLower($username) ELSE u.username_lower END,
		    u.full_name = CASE WHEN conflicts = 0 THEN $name ELSE u.full_name END,
		    u.email     = CASE WHEN conflicts = 0 AND $email <> '' THEN $email ELSE u.email END,
		    u.bio       = CASE WHEN conflicts = 0 THEN $bio ELSE u.bio END
		WITH u, conflicts
		OPTIONAL MATCH (u)<-[in:FOLLOWS]-(:User)
		WITH u, conflicts, count(in) AS followers
		OPTIONAL MATCH (u)-[out:FOLLOWS]->(:User)
		RETURN u.user_id AS user_id, u.username AS username, u.full_name AS full_name,
		       u.email AS email, u.bio AS bio, u.joined AS joined,
		       conflicts, followers, count(out) AS following
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID":   userID,
		"name":     name,
		"username": username,
		"email":    email,
		"bio":      bio,
	})
	if err != nil {
		if usernameConstraintViolated(err) {
			return nil, apperrors.NewUsernameTaken(username)
		}
		return nil, apperrors.NewGraphUnavailable("update user", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			if usernameConstraintViolated(err) {
				return nil, apperrors.NewUsernameTaken(username)
			}
			return nil, apperrors.NewGraphUnavailable("update user", err)
		}
		return nil, apperrors.NewUserNotFound(userID)
	}

	record := result.Record()
	if getIntFromRecord(record, "conflicts") > 0 {
		return nil, apperrors.NewUsernameTaken(username)
	}

	profile := profileFromRecord(record)

	r.logger.Info("User updated",
		zap.Int("user_id", profile.ID),
		zap.String("username", profile.Username),
	)
	return &profile, nil
}

func userFromRecord(record *neo4j.Record) User {
	return User{
		ID:       getIntFromRecord(record, "user_id"),
		Username: getStringFromRecord(record, "username"),
		Name:     getStringFromRecord(record, "full_name"),
		Email:    getStringFromRecord(record, "email"),
		Bio:      getStringFromRecord(record, "bio"),
		Joined:   getTimeFromRecord(record, "joined"),
	}
}

func profileFromRecord(record *neo4j.Record) Profile {
	return Profile{
		User:      userFromRecord(record),
		Followers: getIntFromRecord(record, "followers"),
		Following: getIntFromRecord(record, "following"),
	}
}

// usernameConstraintViolated matches a failed write against the
// username_lower uniqueness constraint. Violations of the user_id
// constraint take the generic unavailable path instead.
func usernameConstraintViolated(err error) bool {
	var neoErr *db.Neo4jError
	return errors.As(err, &neoErr) &&
		neoErr.Code == "Neo.ClientError.Schema.ConstraintValidationFailed" &&
		strings.Contains(neoErr.Msg, "username_lower")
}

// missingUser reports which of the given ids has no user node. It is only
// called on failure paths to attribute a not-found error to a concrete id.
func (r *Repository) missingUser(ctx context.Context, ids ...int) (int, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User)
		WHERE u.user_id IN $ids
		RETURN u.user_id AS user_id
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"ids": ids})
	if err != nil {
		return 0, fmt.Errorf("failed to check user existence: %w", err)
	}

	found := map[int]bool{}
	for result.Next(ctx) {
		found[getIntFromRecord(result.Record(), "user_id")] = true
	}
	if err := result.Err(); err != nil {
		return 0, fmt.Errorf("failed to check user existence: %w", err)
	}

	for _, id := range ids {
		if !found[id] {
			return id, nil
		}
	}
	return 0, nil
}
