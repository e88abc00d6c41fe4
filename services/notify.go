package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const expoPushURL = "https://exp.host/--/api/v2/push/send"

// ExpoPushMessage is one push notification payload.
type ExpoPushMessage struct {
	To    string                 `json:"to"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
	Sound string                 `json:"sound,omitempty"`
	Badge int                    `json:"badge,omitempty"`
}

// Notifier pushes order lifecycle updates to the customer's device.
type Notifier struct {
	pushURL string
	client  *http.Client
}

func NewNotifier() *Notifier {
	return &Notifier{
		pushURL: expoPushURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

var statusMessages = map[string]string{
	"pending":    "We received your order and will confirm it shortly.",
	"confirmed":  "Your order is confirmed and being prepared.",
	"processing": "Your order is being processed.",
	"shipped":    "Your order is on its way!",
	"delivered":  "Your order has been delivered. Enjoy!",
	"cancelled":  "Your order has been cancelled.",
}

// SendOrderStatus notifies the user about an order status change.
func (n *Notifier) SendOrderStatus(pushToken, orderNumber, status string) error {
	body, ok := statusMessages[status]
	if !ok {
		body = fmt.Sprintf("Your order is now %s.", status)
	}
	return n.send(ExpoPushMessage{
		To:    pushToken,
		Title: fmt.Sprintf("Order %s", orderNumber),
		Body:  body,
		Data: map[string]interface{}{
			"order_number": orderNumber,
			"status":       status,
		},
		Sound: "default",
		Badge: 1,
	})
}

func (n *Notifier) send(message ExpoPushMessage) error {
	if message.To == "" {
		return fmt.Errorf("push token is empty")
	}

	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, n.pushURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push notification failed with status %d: %s", resp.StatusCode, string(responseBody))
	}
	return nil
}
