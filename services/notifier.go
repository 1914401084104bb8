// services/notifier.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Notifier sends fire-and-forget events to the notification dispatcher.
// Delivery failures are logged and swallowed — they must never roll back the
// economic transaction that triggered them.
type Notifier struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewNotifier builds a notifier. An empty baseURL yields a no-op notifier
// (useful locally and in tests).
func NewNotifier(baseURL, token string) *Notifier {
	return &Notifier{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// RewardIssued announces a completed MyPts credit.
func (n *Notifier) RewardIssued(accountID string, amount int64, description string) {
	n.dispatch("reward_issued", map[string]interface{}{
		"account_id":  accountID,
		"amount":      amount,
		"description": description,
	})
}

// BadgeEarned announces a newly completed badge.
func (n *Notifier) BadgeEarned(accountID, badgeCode, badgeName string) {
	n.dispatch("badge_earned", map[string]interface{}{
		"account_id": accountID,
		"badge_code": badgeCode,
		"badge_name": badgeName,
	})
}

// MilestoneAchieved announces a milestone level-up.
func (n *Notifier) MilestoneAchieved(accountID, level string, lifetimePoints int64) {
	n.dispatch("milestone_achieved", map[string]interface{}{
		"account_id":      accountID,
		"level":           level,
		"lifetime_points": lifetimePoints,
	})
}

func (n *Notifier) dispatch(event string, payload map[string]interface{}) {
	if n == nil || n.BaseURL == "" {
		return
	}

	body := map[string]interface{}{
		"event":   event,
		"payload": payload,
	}
	jsonData, _ := json.Marshal(body)

	url := fmt.Sprintf("%s/api/v1/notifications/dispatch", n.BaseURL)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		log.Printf("⚠️ Notification %s: failed to build request: %v", event, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", n.Token)

	resp, err := n.Client.Do(req)
	if err != nil {
		log.Printf("⚠️ Notification %s failed: %v", event, err)
		return
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		log.Printf("⚠️ Notification %s: dispatcher returned %d", event, resp.StatusCode)
	}
}
