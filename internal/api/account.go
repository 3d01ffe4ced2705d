package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/covalynce/covalynce-cli/internal/model"
)

// Notifications lists the user's notifications.
func (c *Client) Notifications(ctx context.Context, userID string) ([]model.Notification, error) {
	var payload struct {
		Notifications []model.Notification `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications", userID, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Notifications, nil
}

// UnreadCount fetches the server-side unread notification count.
func (c *Client) UnreadCount(ctx context.Context, userID string) (int, error) {
	var payload struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", userID, nil, &payload); err != nil {
		return 0, err
	}
	return payload.Count, nil
}

// MarkRead flags one notification as read.
func (c *Client) MarkRead(ctx context.Context, userID, notificationID string) error {
	return c.do(ctx, http.MethodPost, "/notifications/"+notificationID+"/read", userID, nil, nil)
}

// MarkAllRead flags every notification as read.
func (c *Client) MarkAllRead(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/notifications/read-all", userID, nil, nil)
}

// UpdateSettings stores the BYOK OpenAI key.
func (c *Client) UpdateSettings(ctx context.Context, userID, openAIKey string) error {
	return c.do(ctx, http.MethodPost, "/settings/update", userID, map[string]string{
		"openai_key": openAIKey,
	}, nil)
}

// UpdateEmail changes the account email address.
func (c *Client) UpdateEmail(ctx context.Context, userID, email string) error {
	return c.do(ctx, http.MethodPost, "/settings/update-email", userID, map[string]string{
		"email": email,
	}, nil)
}

// UpdatePassword changes the account password.
func (c *Client) UpdatePassword(ctx context.Context, userID, password string) error {
	return c.do(ctx, http.MethodPost, "/settings/update-password", userID, map[string]string{
		"password": password,
	}, nil)
}

// ExportData fetches the full GDPR export as raw JSON.
func (c *Client) ExportData(ctx context.Context, userID string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/user/data/export", userID, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// DeleteData erases all server-side data for the user.
func (c *Client) DeleteData(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/user/data/delete", userID, nil, nil)
}

// PaymentOrder is a created checkout order awaiting verification.
type PaymentOrder struct {
	ID       string `json:"id"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
}

// CreateOrder opens a checkout order for the plan upgrade.
func (c *Client) CreateOrder(ctx context.Context, userID string, amount int, currency string) (PaymentOrder, error) {
	var order PaymentOrder
	err := c.do(ctx, http.MethodPost, "/payment/order", userID, map[string]any{
		"amount":   amount,
		"currency": currency,
	}, &order)
	return order, err
}

// VerifyPayment confirms a completed checkout with the gateway's
// signature triple.
func (c *Client) VerifyPayment(ctx context.Context, userID, orderID, paymentID, signature string) error {
	return c.do(ctx, http.MethodPost, "/payment/verify", userID, map[string]string{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
		"razorpay_signature":  signature,
	}, nil)
}
