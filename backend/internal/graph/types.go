package graph

import "time"

// User represents a user node in the graph
type User struct {
	ID       int       `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Bio      string    `json:"bio,omitempty"`
	Joined   time.Time `json:"joined"`
}

// Profile is a user together with the in-degree and out-degree of its
// node. Counts are never stored; both are derived from live FOLLOWS edges
// inside a single query so they cannot drift from the edge state.
type Profile struct {
	User
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// UserSummary is the shape returned by follower/following listings
type UserSummary struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Bio      string `json:"bio,omitempty"`
}
