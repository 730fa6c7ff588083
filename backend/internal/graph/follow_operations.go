package graph

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "follownet/backend/pkg/errors"
)

// ============================================================================
// FOLLOWS Edge Operations
// ============================================================================

// Follow creates a FOLLOWS edge from follower to followee. Both user
// existence checks and the edge write happen in one statement. MERGE makes
// the write idempotent: a repeated or concurrent identical follow leaves
// exactly one edge and reports success. Returns the follower's username as
// recorded at write time, for the notification snapshot.
func (r *Repository) Follow(ctx context.Context, followerID, followeeID int) (string, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	now := time.Now().UTC().Format(time.RFC3339)

	query := `
		MATCH (a:User {user_id: $followerID})
		MATCH (b:User {user_id: $followeeID})
		MERGE (a)-[f:FOLLOWS]->(b)
		ON CREATE SET f.created_at = datetime($now)
		RETURN a.username AS actor_username
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"followerID": followerID,
		"followeeID": followeeID,
		"now":        now,
	})
	if err != nil {
		return "", apperrors.NewGraphUnavailable("follow", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return "", apperrors.NewGraphUnavailable("follow", err)
		}
		// No row means one of the MATCHes failed; find out which
		return "", r.userNotFoundError(ctx, "follow", followerID, followeeID)
	}

	actor := getStringFromRecord(result.Record(), "actor_username")

	r.logger.Info("Follow edge ensured",
		zap.Int("follower_id", followerID),
		zap.Int("followee_id", followeeID),
	)
	return actor, nil
}

// Unfollow removes the FOLLOWS edge from follower to followee. Unlike
// Follow, the absence of the edge is reported to the caller: unfollowing
// someone you do not follow is a client error in this contract.
func (r *Repository) Unfollow(ctx context.Context, followerID, followeeID int) (string, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (a:User {user_id: $followerID})
		MATCH (b:User {user_id: $followeeID})
		OPTIONAL MATCH (a)-[f:FOLLOWS]->(b)
		WITH a, f, f IS NOT NULL AS had_edge
		DELETE f
		RETURN a.username AS actor_username, had_edge
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"followerID": followerID,
		"followeeID": followeeID,
	})
	if err != nil {
		return "", apperrors.NewGraphUnavailable("unfollow", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return "", apperrors.NewGraphUnavailable("unfollow", err)
		}
		return "", r.userNotFoundError(ctx, "unfollow", followerID, followeeID)
	}

	record := result.Record()
	if !getBoolFromRecord(record, "had_edge") {
		return "", apperrors.NewEdgeNotFound(followerID, followeeID)
	}

	actor := getStringFromRecord(record, "actor_username")

	r.logger.Info("Follow edge removed",
		zap.Int("follower_id", followerID),
		zap.Int("followee_id", followeeID),
	)
	return actor, nil
}

// ListFollowers returns the users following userID, username ascending.
// An existing user with no followers yields an empty slice.
func (r *Repository) ListFollowers(ctx context.Context, userID int) ([]UserSummary, error) {
	return r.listNeighbors(ctx, userID, `
		MATCH (u:User {user_id: $userID})
		OPTIONAL MATCH (n:User)-[:FOLLOWS]->(u)
		RETURN n.user_id AS user_id, n.username AS username, n.full_name AS full_name, n.bio AS bio
		ORDER BY n.username
	`)
}

// ListFollowing returns the users userID follows, username ascending
func (r *Repository) ListFollowing(ctx context.Context, userID int) ([]UserSummary, error) {
	return r.listNeighbors(ctx, userID, `
		MATCH (u:User {user_id: $userID})
		OPTIONAL MATCH (u)-[:FOLLOWS]->(n:User)
		RETURN n.user_id AS user_id, n.username AS username, n.full_name AS full_name, n.bio AS bio
		ORDER BY n.username
	`)
}

// listNeighbors runs a one-hop traversal query anchored on userID. The
// anchor MATCH doubles as the existence check: zero rows means the user
// itself is missing, a single all-null row means no neighbors.
func (r *Repository) listNeighbors(ctx context.Context, userID int, query string) ([]UserSummary, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
	})
	if err != nil {
		return nil, apperrors.NewGraphUnavailable("list neighbors", err)
	}

	summaries := []UserSummary{}
	sawRow := false
	for result.Next(ctx) {
		sawRow = true
		record := result.Record()
		if isNullRecordValue(record, "user_id") {
			continue
		}
		summaries = append(summaries, UserSummary{
			ID:       getIntFromRecord(record, "user_id"),
			Username: getStringFromRecord(record, "username"),
			Name:     getStringFromRecord(record, "full_name"),
			Bio:      getStringFromRecord(record, "bio"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphUnavailable("list neighbors", err)
	}

	if !sawRow {
		return nil, apperrors.NewUserNotFound(userID)
	}
	return summaries, nil
}

// userNotFoundError attributes a failed two-user MATCH to the concrete
// missing id. The extra read only happens on the error path.
func (r *Repository) userNotFoundError(ctx context.Context, op string, followerID, followeeID int) error {
	missing, err := r.missingUser(ctx, followerID, followeeID)
	if err != nil {
		return apperrors.NewGraphUnavailable(op, err)
	}
	if missing == 0 {
		missing = followeeID
	}
	return apperrors.NewUserNotFound(missing)
}
