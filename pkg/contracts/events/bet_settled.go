package events

import "time"

// Evento emitido pelo settlement-worker depois que a aposta é liquidada e
// o resultado foi aceito pelo gerenciador de banca.
type BetSettled struct {
	BetID        string    `json:"betId"`
	AccountID    string    `json:"accountId"`
	MarketID     string    `json:"marketId"`
	Status       string    `json:"status"` // "won" | "lost"
	WinAmount    float64   `json:"winAmount"`
	RefundAmount float64   `json:"refundAmount"`
	ResultReason string    `json:"resultReason"`
	EventsCount  int       `json:"eventsCount"`
	Ts           time.Time `json:"ts"`
}
