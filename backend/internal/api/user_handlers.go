package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"follownet/backend/internal/graph"
	"follownet/backend/internal/relationship"
)

// userResponse mirrors the wire shape of the original service: the id
// travels as a string even though it is numeric in the graph.
type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Bio       string `json:"bio"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`
}

type userSummaryResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Bio      string `json:"bio"`
}

func toUserResponse(p *graph.Profile) userResponse {
	return userResponse{
		ID:        strconv.Itoa(p.ID),
		Username:  p.Username,
		Name:      p.Name,
		Email:     p.Email,
		Bio:       p.Bio,
		Followers: p.Followers,
		Following: p.Following,
	}
}

func toSummaryResponses(summaries []graph.UserSummary) []userSummaryResponse {
	out := make([]userSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, userSummaryResponse{
			ID:       strconv.Itoa(s.ID),
			Username: s.Username,
			Name:     s.Name,
			Bio:      s.Bio,
		})
	}
	return out
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return id, true
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	profile, err := s.relationships.GetProfile(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(profile))
}

func (s *Server) listUsers(c *gin.Context) {
	profiles, err := s.relationships.ListUsers(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]userResponse, 0, len(profiles))
	for i := range profiles {
		out = append(out, toUserResponse(&profiles[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createUser(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Bio      string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := s.relationships.Register(c.Request.Context(), relationship.RegisterParams{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Bio:      req.Bio,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(profile))
}

func (s *Server) updateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name     string `json:"name" binding:"required"`
		Username string `json:"username" binding:"required"`
		Email    string `json:"email"`
		Bio      string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := s.relationships.UpdateProfile(c.Request.Context(), id, relationship.UpdateParams{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Bio:      req.Bio,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(profile))
}

func (s *Server) follow(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "targetId")
	if !ok {
		return
	}

	if err := s.relationships.Follow(c.Request.Context(), id, targetID); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "following"})
}

func (s *Server) unfollow(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "targetId")
	if !ok {
		return
	}

	if err := s.relationships.Unfollow(c.Request.Context(), id, targetID); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unfollowed"})
}

func (s *Server) listFollowers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	summaries, err := s.relationships.ListFollowers(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSummaryResponses(summaries))
}

func (s *Server) listFollowing(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	summaries, err := s.relationships.ListFollowing(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSummaryResponses(summaries))
}
