package topics

const (
	// Liquidação
	BetSettled      = "bet_settled"
	MarketCompleted = "market_completed"
)
