package notification

import "time"

const (
	TypeCodeIssued = "guest.code_issued"
	TypeRedeemed   = "guest.redeemed"
)

// Message is the JSON body published for guest code events. The dispatcher
// that delivers codes to guests consumes TypeCodeIssued.
type Message struct {
	Type      string    `json:"type"`
	GuestID   uint      `json:"guestId"`
	EventID   uint      `json:"eventId"`
	EventName string    `json:"eventName"`
	Name      string    `json:"name"`
	Mobile    string    `json:"mobile"`
	Code      string    `json:"code,omitempty"`
	GiftName  string    `json:"giftName"`
	AgentID   *uint     `json:"agentId,omitempty"`
	At        time.Time `json:"at"`
}
