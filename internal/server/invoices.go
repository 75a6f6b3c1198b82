package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/office562/campbaraisa-sub000/internal/invoice/domain"
	"github.com/shopspring/decimal"
)

type discountPayload struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type createInvoiceRequest struct {
	CamperID      string           `json:"camper_id"`
	FeeIDs        []string         `json:"fee_ids"`
	CustomAmount  *string          `json:"custom_amount"`
	Description   string           `json:"description"`
	DueDate       *string          `json:"due_date"`
	Discount      *discountPayload `json:"discount"`
	LunchDiscount *discountPayload `json:"lunch_discount"`
}

type invoiceResponse struct {
	*invoicedomain.Invoice
	Balance decimal.Decimal `json:"balance"`
}

func toInvoiceResponse(inv *invoicedomain.Invoice) invoiceResponse {
	return invoiceResponse{
		Invoice: inv,
		Balance: invoicedomain.BalanceFor(inv.Amount, inv.PaidAmount),
	}
}

// @Summary      Create Invoice
// @Description  Compose an invoice from catalog fees, a custom amount, and discounts
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body createInvoiceRequest true "Create Invoice Request"
// @Success      200  {object}  invoiceResponse
// @Router       /invoices [post]
func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	camperID, err := parseID(req.CamperID)
	if err != nil {
		AbortWithError(c, newValidationError("camper_id", "invalid_camper", "camper_id is invalid"))
		return
	}

	feeIDs := make([]snowflake.ID, 0, len(req.FeeIDs))
	for _, raw := range req.FeeIDs {
		id, err := parseID(raw)
		if err != nil {
			AbortWithError(c, newValidationError("fee_ids", "invalid_fee", "fee id is invalid"))
			return
		}
		feeIDs = append(feeIDs, id)
	}

	var customAmount *decimal.Decimal
	if req.CustomAmount != nil {
		amount, err := parseAmount(*req.CustomAmount)
		if err != nil {
			AbortWithError(c, newValidationError("custom_amount", "invalid_amount", "custom_amount must be a decimal number"))
			return
		}
		customAmount = &amount
	}

	var dueDate *time.Time
	if req.DueDate != nil && strings.TrimSpace(*req.DueDate) != "" {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*req.DueDate))
		if err != nil {
			AbortWithError(c, newValidationError("due_date", "invalid_date", "due_date must be YYYY-MM-DD"))
			return
		}
		dueDate = &parsed
	}

	discounts := invoicedomain.Discounts{}
	discounts.General, err = parseDiscount(req.Discount)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	discounts.Lunch, err = parseDiscount(req.LunchDiscount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		CamperID:     camperID,
		FeeIDs:       feeIDs,
		CustomAmount: customAmount,
		Description:  strings.TrimSpace(req.Description),
		DueDate:      dueDate,
		Discounts:    discounts,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toInvoiceResponse(resp)})
}

func parseDiscount(payload *discountPayload) (*invoicedomain.Discount, error) {
	if payload == nil {
		return nil, nil
	}
	value, err := parseAmount(payload.Value)
	if err != nil {
		return nil, newValidationError("discounts", "invalid_discount", "discount value must be a decimal number")
	}
	return &invoicedomain.Discount{
		Type:  invoicedomain.DiscountType(strings.TrimSpace(payload.Type)),
		Value: value,
	}, nil
}

// @Summary      List Invoices
// @Description  List invoices, optionally filtered by camper or status
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        camper_id query string false "Camper ID"
// @Param        status    query string false "Status"
// @Param        limit     query int    false "Limit"
// @Param        offset    query int    false "Offset"
// @Success      200  {object}  []invoiceResponse
// @Router       /invoices [get]
func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		CamperID string `form:"camper_id"`
		Status   string `form:"status"`
		Limit    int    `form:"limit"`
		Offset   int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	filter := invoicedomain.ListFilter{Limit: query.Limit, Offset: query.Offset}
	if query.CamperID != "" {
		id, err := parseID(query.CamperID)
		if err != nil {
			AbortWithError(c, newValidationError("camper_id", "invalid_camper", "camper_id is invalid"))
			return
		}
		filter.CamperID = &id
	}
	if query.Status != "" {
		status := invoicedomain.InvoiceStatus(query.Status)
		filter.Status = &status
	}

	invoices, err := s.invoiceSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp := make([]invoiceResponse, 0, len(invoices))
	for i := range invoices {
		resp = append(resp, toInvoiceResponse(&invoices[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Invoice
// @Description  Fetch one invoice with its derived status and balance
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice ID"
// @Success      200  {object}  invoiceResponse
// @Router       /invoices/{id} [get]
func (s *Server) GetInvoice(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, notFoundError("invoice_not_found"))
		return
	}

	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toInvoiceResponse(resp)})
}

// @Summary      Send Invoice Reminder
// @Description  Record a reminder for an invoice and advance its schedule
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice ID"
// @Success      200  {object}  invoiceResponse
// @Router       /invoices/{id}/reminders [post]
func (s *Server) SendInvoiceReminder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, notFoundError("invoice_not_found"))
		return
	}

	resp, err := s.invoiceSvc.MarkReminderSent(c.Request.Context(), id, s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toInvoiceResponse(resp)})
}
