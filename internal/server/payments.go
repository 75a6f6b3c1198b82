package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/office562/campbaraisa-sub000/internal/payment/domain"
)

type recordPaymentRequest struct {
	InvoiceID string `json:"invoice_id"`
	Amount    string `json:"amount"`
	Method    string `json:"method"`
	Notes     string `json:"notes"`
}

type surchargeQuoteRequest struct {
	Amount string `json:"amount"`
}

// @Summary      Record Payment
// @Description  Record a manual payment; it settles and credits the invoice immediately
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body recordPaymentRequest true "Record Payment Request"
// @Success      200  {object}  paymentdomain.Payment
// @Router       /payments [post]
func (s *Server) RecordPayment(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoiceID, err := parseID(req.InvoiceID)
	if err != nil {
		AbortWithError(c, newValidationError("invoice_id", "invalid_invoice", "invoice_id is invalid"))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		AbortWithError(c, newValidationError("amount", "invalid_amount", "amount must be a decimal number"))
		return
	}

	resp, err := s.paymentSvc.RecordManual(c.Request.Context(), paymentdomain.RecordManualRequest{
		InvoiceID: invoiceID,
		Amount:    amount,
		Method:    paymentdomain.Method(strings.TrimSpace(req.Method)),
		Notes:     strings.TrimSpace(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Payments
// @Description  List payments, optionally filtered by invoice, camper, or status
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        invoice_id query string false "Invoice ID"
// @Param        camper_id  query string false "Camper ID"
// @Param        status     query string false "Status"
// @Param        limit      query int    false "Limit"
// @Param        offset     query int    false "Offset"
// @Success      200  {object}  []paymentdomain.Payment
// @Router       /payments [get]
func (s *Server) ListPayments(c *gin.Context) {
	var query struct {
		InvoiceID string `form:"invoice_id"`
		CamperID  string `form:"camper_id"`
		Status    string `form:"status"`
		Limit     int    `form:"limit"`
		Offset    int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	filter := paymentdomain.ListFilter{Limit: query.Limit, Offset: query.Offset}
	if query.InvoiceID != "" {
		id, err := parseID(query.InvoiceID)
		if err != nil {
			AbortWithError(c, newValidationError("invoice_id", "invalid_invoice", "invoice_id is invalid"))
			return
		}
		filter.InvoiceID = &id
	}
	if query.CamperID != "" {
		id, err := parseID(query.CamperID)
		if err != nil {
			AbortWithError(c, newValidationError("camper_id", "invalid_camper", "camper_id is invalid"))
			return
		}
		filter.CamperID = &id
	}
	if query.Status != "" {
		status := paymentdomain.Status(query.Status)
		filter.Status = &status
	}

	resp, err := s.paymentSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Quote Card Surcharge
// @Description  Itemize the card processing fee for a chosen payment amount
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body surchargeQuoteRequest true "Surcharge Quote Request"
// @Success      200  {object}  paymentdomain.SurchargeQuote
// @Router       /payments/surcharge-quote [post]
func (s *Server) QuoteSurcharge(c *gin.Context) {
	var req surchargeQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		AbortWithError(c, newValidationError("amount", "invalid_amount", "amount must be a decimal number"))
		return
	}

	quote, err := s.paymentSvc.Quote(c.Request.Context(), amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": quote})
}
