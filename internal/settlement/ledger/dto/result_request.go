package dto

// Transaction é o crédito associado a uma aposta vencedora ou reembolsada.
type Transaction struct {
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
}

// BetResult é o documento de resultado enviado ao gerenciador de banca,
// espelhando os descritores salvos no registro da aposta.
type BetResult struct {
	AccountID       string       `json:"accountId"`
	Status          string       `json:"status"` // "WON" | "LOST"
	BetID           string       `json:"betId"`
	Stake           float64      `json:"stake"`
	Odd             float64      `json:"odd"`
	LastUpdated     string       `json:"lastUpdated"`
	PlacedDate      string       `json:"placedDate"`
	AppLoginID      string       `json:"appLoginId"`
	SportID         string       `json:"sportId"`
	SportName       string       `json:"sportName"`
	CompetitionID   string       `json:"competitionId"`
	CompetitionName string       `json:"competitionName"`
	EventID         string       `json:"eventId"`
	EventName       string       `json:"eventName"`
	EventDate       string       `json:"eventDate"`
	Handicap        *string      `json:"handicap"`
	MarketID        string       `json:"marketId"`
	MarketName      string       `json:"marketName"`
	MarketType      string       `json:"marketType"`
	SelectionID     string       `json:"selectionId"`
	SelectionName   string       `json:"selectionName"`
	BetRef          string       `json:"betRef"`
	Transaction     *Transaction `json:"transaction,omitempty"`
	Profit          float64      `json:"profit"`
}

// ResultRequest é o payload do endpoint de resultados.
type ResultRequest struct {
	Bets []BetResult `json:"bets"`
}
