package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	feedomain "github.com/office562/campbaraisa-sub000/internal/fee/domain"
	"github.com/shopspring/decimal"
)

type createFeeRequest struct {
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type updateFeeRequest struct {
	Name        *string `json:"name"`
	Amount      *string `json:"amount"`
	Description *string `json:"description"`
}

// @Summary      List Fees
// @Description  List the fee catalog, default fee first
// @Tags         fees
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  []feedomain.Fee
// @Router       /fees [get]
func (s *Server) ListFees(c *gin.Context) {
	resp, err := s.feeSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Create Fee
// @Description  Add a fee to the catalog
// @Tags         fees
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body createFeeRequest true "Create Fee Request"
// @Success      200  {object}  feedomain.Fee
// @Router       /fees [post]
func (s *Server) CreateFee(c *gin.Context) {
	var req createFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		AbortWithError(c, newValidationError("amount", "invalid_amount", "amount must be a decimal number"))
		return
	}

	resp, err := s.feeSvc.Create(c.Request.Context(), feedomain.CreateFeeRequest{
		Name:        strings.TrimSpace(req.Name),
		Amount:      amount,
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Update Fee
// @Description  Update fee fields; the default fee may be edited but never deleted
// @Tags         fees
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Fee ID"
// @Param        request body updateFeeRequest true "Update Fee Request"
// @Success      200  {object}  feedomain.Fee
// @Router       /fees/{id} [patch]
func (s *Server) UpdateFee(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, notFoundError("fee_not_found"))
		return
	}

	var req updateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := feedomain.UpdateFeeRequest{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			AbortWithError(c, newValidationError("amount", "invalid_amount", "amount must be a decimal number"))
			return
		}
		update.Amount = &amount
	}

	resp, err := s.feeSvc.Update(c.Request.Context(), id, update)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Delete Fee
// @Description  Remove a fee from the catalog; the default fee is protected
// @Tags         fees
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Fee ID"
// @Success      200  {object}  map[string]string
// @Router       /fees/{id} [delete]
func (s *Server) DeleteFee(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, notFoundError("fee_not_found"))
		return
	}

	if err := s.feeSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw))
}
