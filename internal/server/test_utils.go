package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type testCleanupRequest struct {
	Prefix string `json:"prefix"`
}

// TestCleanup removes campers seeded by integration tests, matched by last
// name prefix, together with their billing records. Disabled in production.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.IsProduction() {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		AbortWithError(c, newValidationError("prefix", "required", "prefix is required"))
		return
	}

	ctx := c.Request.Context()
	camperIDs, err := s.loadCamperIDsByPrefix(ctx, prefix)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.deleteCamperData(ctx, camperIDs); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) loadCamperIDsByPrefix(ctx context.Context, prefix string) ([]int64, error) {
	like := strings.TrimSpace(prefix) + "%"
	var camperIDs []int64
	if err := s.db.WithContext(ctx).
		Table("campers").
		Select("id").
		Where("last_name LIKE ?", like).
		Scan(&camperIDs).Error; err != nil {
		return nil, err
	}
	return camperIDs, nil
}

func (s *Server) deleteCamperData(ctx context.Context, camperIDs []int64) error {
	if len(camperIDs) == 0 {
		return nil
	}
	queries := []string{
		`DELETE FROM payments WHERE camper_id IN ?`,
		`DELETE FROM invoices WHERE camper_id IN ?`,
		`DELETE FROM campers WHERE id IN ?`,
	}
	for _, query := range queries {
		if err := s.db.WithContext(ctx).Exec(query, camperIDs).Error; err != nil {
			return err
		}
	}
	return nil
}
