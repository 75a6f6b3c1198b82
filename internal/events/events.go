package events

// Billing event types written to the outbox for downstream consumers.
const (
	EventInvoiceCreated        = "invoice.created"
	EventPaymentRecorded       = "payment.recorded"
	EventPaymentCardInitiated  = "payment.card_initiated"
	EventPaymentSettled        = "payment.settled"
	EventReminderSent          = "reminder.sent"
	EventFeeCreated            = "fee.created"
	EventFeeDeleted            = "fee.deleted"
	EventReconciliationAnomaly = "billing.reconciliation_anomaly"
)

// InvoicePayload captures the minimal data needed to consume invoice events.
type InvoicePayload struct {
	InvoiceID string `json:"invoice_id"`
	CamperID  string `json:"camper_id"`
	Amount    string `json:"amount"`
	DueDate   string `json:"due_date,omitempty"`
}

// PaymentPayload captures the minimal data needed to consume payment events.
type PaymentPayload struct {
	PaymentID string `json:"payment_id"`
	InvoiceID string `json:"invoice_id"`
	CamperID  string `json:"camper_id,omitempty"`
	Amount    string `json:"amount"`
	Method    string `json:"method"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p PaymentPayload) ToMap() map[string]any {
	payload := map[string]any{
		"payment_id": p.PaymentID,
		"invoice_id": p.InvoiceID,
		"amount":     p.Amount,
		"method":     p.Method,
	}
	if p.CamperID != "" {
		payload["camper_id"] = p.CamperID
	}
	return payload
}

// ToMap converts a payload into an outbox-friendly map.
func (p InvoicePayload) ToMap() map[string]any {
	payload := map[string]any{
		"invoice_id": p.InvoiceID,
		"camper_id":  p.CamperID,
		"amount":     p.Amount,
	}
	if p.DueDate != "" {
		payload["due_date"] = p.DueDate
	}
	return payload
}
