package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/office562/campbaraisa-sub000/internal/payment/domain"
)

type portalPaymentRequest struct {
	InvoiceID string `json:"invoice_id"`
	Amount    string `json:"amount"`
}

// @Summary      Get Portal
// @Description  Load the family billing view for a portal token
// @Tags         portal
// @Produce      json
// @Param        token path string true "Portal Token"
// @Success      200  {object}  portaldomain.View
// @Router       /portal/{token} [get]
func (s *Server) GetPortal(c *gin.Context) {
	view, err := s.portalSvc.Load(c.Request.Context(), strings.TrimSpace(c.Param("token")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

// @Summary      Portal Card Payment
// @Description  Open a card checkout for one of the family's invoices
// @Tags         portal
// @Accept       json
// @Produce      json
// @Param        token   path string true "Portal Token"
// @Param        request body portalPaymentRequest true "Portal Payment Request"
// @Success      200  {object}  paymentdomain.CardCheckout
// @Router       /portal/{token}/payments [post]
func (s *Server) PortalInitiateCardPayment(c *gin.Context) {
	var req portalPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoiceID, err := parseID(req.InvoiceID)
	if err != nil {
		AbortWithError(c, notFoundError("not_found"))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		AbortWithError(c, newValidationError("amount", "invalid_amount", "amount must be a decimal number"))
		return
	}

	checkout, err := s.portalSvc.InitiateCardPayment(c.Request.Context(), strings.TrimSpace(c.Param("token")), paymentdomain.InitiateCardRequest{
		InvoiceID: invoiceID,
		Amount:    amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"payment":      checkout.Payment,
		"quote":        checkout.Quote,
		"checkout_url": checkout.CheckoutURL,
	}})
}
