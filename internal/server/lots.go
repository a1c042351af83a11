package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListLots(c *gin.Context) {
	lots, err := s.lotRepo.List(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": lots})
}

// GetLotByCode returns every persisted row for the lot code, most
// recent production date first.
func (s *Server) GetLotByCode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("lot_code"))
	if code == "" {
		AbortWithError(c, newValidationError("lot_code", "invalid_lot_code", "invalid lot code"))
		return
	}

	lots, err := s.lotRepo.FindByCode(c.Request.Context(), s.db, code)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if len(lots) == 0 {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": lots})
}

// GetLotStatus answers against the published snapshot, so it stays
// consistent with the dashboard even mid-refresh.
func (s *Server) GetLotStatus(c *gin.Context) {
	code := strings.TrimSpace(c.Param("lot_code"))
	if code == "" {
		AbortWithError(c, newValidationError("lot_code", "invalid_lot_code", "invalid lot code"))
		return
	}

	resp, err := s.viewSvc.SearchLotStatus(code)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
