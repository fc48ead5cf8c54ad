package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 실패는 프로세스를 끝내지 않고 에러로 돌아와야 defer 정리가 실행됨
func TestRun_ReturnsErrors(t *testing.T) {
	csv := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(csv, []byte("date,open,high,low,close\n"), 0o600))

	t.Setenv("MARKET_TIMEZONE", "UTC")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CANDLE_CSV", csv)
	for _, k := range []string{"DISCORD_SIGNAL_WEBHOOK", "DISCORD_INFO_WEBHOOK", "DISCORD_ERROR_WEBHOOK"} {
		t.Setenv(k, "")
	}

	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "알 수 없는 플래그", args: []string{"-nosuch"}, wantMsg: "nosuch"},
		{name: "알 수 없는 모드", args: []string{"-mode=replay"}, wantMsg: "알 수 없는 실행 모드: replay"},
		{name: "DB 없는 import", args: []string{"-mode=import"}, wantMsg: "DATABASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
