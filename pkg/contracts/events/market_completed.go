package events

import "time"

// Evento emitido quando um mercado em processamento termina com todas as
// apostas liquidadas e é marcado como "completed".
type MarketCompleted struct {
	MarketID    string    `json:"marketId"`
	TotalPayout float64   `json:"totalPayout"`
	BetsSettled int       `json:"betsSettled"`
	Ts          time.Time `json:"ts"`
}
