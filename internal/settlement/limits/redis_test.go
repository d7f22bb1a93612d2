package limits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRefund(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{
			name: "registro válido",
			raw:  `{"type":"limits","limits":{"refund":90}}`,
			want: 90,
		},
		{
			name: "percentual fracionário",
			raw:  `{"type":"limits","limits":{"refund":87.5}}`,
			want: 87.5,
		},
		{
			name:    "tipo errado",
			raw:     `{"type":"odds","limits":{"refund":90}}`,
			wantErr: true,
		},
		{
			name:    "sem campo refund",
			raw:     `{"type":"limits","limits":{}}`,
			wantErr: true,
		},
		{
			name:    "JSON inválido",
			raw:     `{"type":"limits"`,
			wantErr: true,
		},
		{
			name:    "acima de 100",
			raw:     `{"type":"limits","limits":{"refund":150}}`,
			wantErr: true,
		},
		{
			name:    "negativo",
			raw:     `{"type":"limits","limits":{"refund":-5}}`,
			wantErr: true,
		},
		{
			name: "zero é válido",
			raw:  `{"type":"limits","limits":{"refund":0}}`,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRefund([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
