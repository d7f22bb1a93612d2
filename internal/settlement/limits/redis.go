package limits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis carrega o percentual de reembolso do registro de limites mantido no
// Redis. O registro é um JSON {"type":"limits","limits":{"refund":N}}.
// Qualquer falha aqui é tratada pelo chamador com o percentual default.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(client *redis.Client, key string) *Redis {
	return &Redis{client: client, key: key}
}

var ErrNotConfigured = errors.New("limits not configured")

// RefundPercentage lê e valida o percentual de reembolso vigente (0-100)
func (r *Redis) RefundPercentage(ctx context.Context) (float64, error) {
	val, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return 0, ErrNotConfigured
	}
	if err != nil {
		return 0, fmt.Errorf("get limits: %w", err)
	}
	return parseRefund([]byte(val))
}

type limitsRecord struct {
	Type   string `json:"type"`
	Limits struct {
		Refund *float64 `json:"refund"`
	} `json:"limits"`
}

func parseRefund(raw []byte) (float64, error) {
	var rec limitsRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return 0, fmt.Errorf("decode limits: %w", err)
	}
	if rec.Type != "limits" || rec.Limits.Refund == nil {
		return 0, ErrNotConfigured
	}
	pct := *rec.Limits.Refund
	if pct < 0 || pct > 100 {
		return 0, fmt.Errorf("refund percentage out of range: %g", pct)
	}
	return pct, nil
}
