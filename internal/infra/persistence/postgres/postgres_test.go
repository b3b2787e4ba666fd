package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogPoolWait(t *testing.T) {
	prev := sql.DBStats{WaitCount: 10, WaitDuration: time.Second}

	tests := []struct {
		name    string
		cur     sql.DBStats
		want    string
		wantNot string
	}{
		{
			name:    "no new waits",
			cur:     prev,
			wantNot: "Postgres pool wait",
		},
		{
			name: "short waits are debug",
			cur:  sql.DBStats{WaitCount: 12, WaitDuration: time.Second + 10*time.Millisecond, MaxOpenConnections: 4},
			want: "level=DEBUG msg=\"Postgres pool wait observed\"",
		},
		{
			name: "long waits warn",
			cur:  sql.DBStats{WaitCount: 11, WaitDuration: time.Second + 200*time.Millisecond, MaxOpenConnections: 4},
			want: "level=WARN msg=\"Postgres pool wait detected\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logPoolWait(context.Background(), newBufferLogger(&buf), prev, tt.cur)

			if tt.want != "" {
				assert.Contains(t, buf.String(), tt.want)
				assert.Contains(t, buf.String(), "maxOpenConns=4")
			}
			if tt.wantNot != "" {
				assert.NotContains(t, buf.String(), tt.wantNot)
			}
		})
	}
}
