package settlement

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Percentual de reembolso usado quando os limites não podem ser carregados
const DefaultRefundPercentage = 95

// Categorias que contam como "evento aconteceu" para apostas atLeastOne
var qualifyingTypes = map[string]bool{
	"side":   true,
	"corner": true,
	"foul":   true,
	"goal":   true,
}

var chosenSideRe = regexp.MustCompile(`(?i)JOGO ([AB])`)

// chosenSide extrai o jogo escolhido do texto da seleção
// (ex: "Lateral ira acontecer no JOGO A - Arsenal vs Liverpool").
// Fallback leniente: seleções sem marcador contam como jogo A.
func chosenSide(selectionName string) string {
	if m := chosenSideRe.FindStringSubmatch(selectionName); m != nil {
		return strings.ToUpper(m[1])
	}
	return "A"
}

// OrderEvents ordena a sequência de eventos por timestamp, de forma estável:
// em caso de empate, eventos do jogo A (inseridos antes dos do B) permanecem
// na frente.
func OrderEvents(events []GameEvent) []GameEvent {
	ordered := make([]GameEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})
	return ordered
}

// Settle decide o resultado de uma aposta a partir da sequência ordenada de
// eventos do mercado (jogos A e B mesclados) e do percentual de reembolso
// vigente no ciclo. Função pura, sem I/O.
//
// Dois algoritmos, escolhidos pelo tipo de evento apostado (MarketName):
//
//   - atLeastOne: ganha se houve QUALQUER evento qualificado no jogo
//     escolhido, independente de ordem. Sem eventos em nenhum dos jogos,
//     reembolso; com eventos só no outro jogo, perda total.
//
//   - tipo específico (side/corner/foul/goal): ganha se o PRIMEIRO evento do
//     tipo, considerando os dois jogos, ocorreu no jogo escolhido. Sem nenhum
//     evento do tipo, reembolso; primeiro evento no jogo oposto, perda total.
func Settle(bet *Bet, events []GameEvent, refundPct float64) Outcome {
	eventType := bet.MarketName
	side := chosenSide(bet.SelectionName)

	var (
		isWinner     bool
		winAmount    float64
		refundAmount float64
		resultReason string
	)

	if eventType == EventTypeAtLeastOne {
		inChosenGame := 0
		inAnyGame := 0
		for _, e := range events {
			if !qualifyingTypes[e.MappedType] {
				continue
			}
			inAnyGame++
			if e.Side == side {
				inChosenGame++
			}
		}

		isWinner = inChosenGame > 0
		if isWinner {
			winAmount = math.Floor(bet.Stake * bet.Odd)
			resultReason = fmt.Sprintf("%d evento(s) ocorreu(ram) no jogo %s", inChosenGame, side)
		} else if inAnyGame == 0 {
			// Nenhum evento em jogo algum: reembolso arredondado
			refundAmount = math.Round(bet.Stake * (refundPct / 100))
			resultReason = fmt.Sprintf("Nenhum evento ocorreu em nenhum jogo - Reembolso de %g%%", refundPct)
		} else {
			// Houve evento, só que no outro jogo: perde tudo
			resultReason = fmt.Sprintf("Nenhum evento ocorreu no jogo %s", side)
		}
	} else {
		var ofType []GameEvent
		for _, e := range events {
			if e.MappedType == eventType {
				ofType = append(ofType, e)
			}
		}

		if len(ofType) == 0 {
			// Nenhum evento do tipo em jogo algum: reembolso (sem arredondar)
			refundAmount = bet.Stake * (refundPct / 100)
			resultReason = fmt.Sprintf("Nenhum evento do tipo %s ocorreu em nenhum jogo - Reembolso de %g%%", eventType, refundPct)
		} else {
			first := OrderEvents(ofType)[0]
			isWinner = first.Side == side
			if isWinner {
				winAmount = math.Floor(bet.Stake * bet.Odd)
				resultReason = fmt.Sprintf("O primeiro %s ocorreu no jogo %s às %s", eventType, side, eventClock(first))
			} else {
				resultReason = fmt.Sprintf("O primeiro %s ocorreu no jogo oposto às %s", eventType, eventClock(first))
			}
		}
	}

	// Contagem informativa de eventos do tipo apostado no jogo escolhido
	// (para atLeastOne o tipo nunca casa com uma categoria normalizada,
	// então a contagem fica em zero; consumidores do bet_logs dependem disso)
	relevantCount := 0
	for _, e := range events {
		if e.MappedType == eventType && e.Side == side {
			relevantCount++
		}
	}

	status := BetStatusLost
	if isWinner {
		status = BetStatusWon
	}

	return Outcome{
		BetID:        bet.BetID,
		MarketID:     bet.MarketID,
		Status:       status,
		WinAmount:    winAmount,
		RefundAmount: refundAmount,
		ResultReason: resultReason,
		EventsCount:  relevantCount,
	}
}

// eventClock retorna o relógio de jogo do evento, ou o timestamp quando o
// relógio não veio nos results.
func eventClock(e GameEvent) string {
	if e.MatchClock != "" {
		return e.MatchClock
	}
	return e.Timestamp.Format(time.RFC3339)
}
