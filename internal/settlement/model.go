package settlement

import "time"

// Status de aposta persistidos no banco
const (
	BetStatusPending   = "pending"
	BetStatusConfirmed = "confirmed"
	BetStatusWon       = "won"
	BetStatusLost      = "lost"
	BetStatusVoid      = "void"
	BetStatusFailed    = "failed"
	BetStatusError     = "error"
)

// Status de mercado
const (
	MarketStatusBetting    = "betting"
	MarketStatusGame       = "game"
	MarketStatusProcessing = "processing"
	MarketStatusCompleted  = "completed"
)

// Tipo de aposta especial: ganha se QUALQUER evento ocorrer no jogo escolhido
const EventTypeAtLeastOne = "atLeastOne"

// Tipos de registro do trilho de auditoria (bet_logs)
const (
	LogTypeBalanceCredited = "balance_credited"
	LogTypeLostRecorded    = "lost_recorded"
	LogTypeAPIError        = "api_error"
	LogTypeBetResult       = "bet_result"
	LogTypeProcessingError = "processing_error"
	LogTypePaymentError    = "payment_error"
)

// Status reportados à API externa (gerenciador de banca). VOID é um status
// interno de reembolso: vai para a API sob o rótulo LOST, com transaction de
// crédito no valor reembolsado.
const (
	ExternalStatusWon  = "WON"
	ExternalStatusLost = "LOST"
	ExternalStatusVoid = "VOID"
)

// Bet é a aposta persistida, com os campos do gerenciador de banca salvos no
// momento do registro e os campos de resultado preenchidos na liquidação.
type Bet struct {
	BetID     string
	UserID    string
	AccountID string
	MarketID  string
	Status    string

	Stake float64
	Odd   float64

	// Descritores repassados à API externa
	PlacedDate      string
	AppLoginID      string
	SportID         string
	SportName       string
	CompetitionID   string
	CompetitionName string
	EventID         string
	EventName       string
	EventDate       string
	Handicap        *string
	MarketName      string // codifica o tipo de evento apostado (side/corner/foul/goal/atLeastOne)
	MarketType      string
	SelectionID     string
	SelectionName   string // codifica o jogo escolhido ("... JOGO A ...")
	BetRef          string

	// Resultado (nulos até a liquidação)
	Payout       *float64
	Refund       *float64
	ResultReason *string
	EventsCount  *int
	ProcessedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GameEvent é um evento de jogo extraído dos results do mercado.
// Side identifica a qual dos dois jogos paralelos (A ou B) o evento pertence.
type GameEvent struct {
	Side         string
	OriginalType string
	MappedType   string // categoria normalizada: side/corner/foul/goal; vazio se não reconhecida
	EventName    string
	Timestamp    time.Time
	MatchClock   string
	Competitor   string
}

// Outcome é a decisão de liquidação de uma aposta: ganho, perda total ou
// perda com reembolso. WinAmount e RefundAmount são mutuamente exclusivos.
type Outcome struct {
	BetID        string
	MarketID     string
	Status       string // "won" | "lost"
	WinAmount    float64
	RefundAmount float64
	ResultReason string
	EventsCount  int
}
