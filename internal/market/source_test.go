package market

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `timestamp,open,high,low,close,volume,oi
2024-03-04 11:35:00,100,103,90,102.5,1200,0
2024-03-04 11:30:00,105,106,99,100,1500,0
2024-03-04 11:35:00,1,1,1,1,1,1
2024-03-04T11:40:00+05:30,102.5,104,101,103,,
`

func TestReadCandles(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)

	candles, err := ReadCandles(strings.NewReader(sampleCSV), ist)
	require.NoError(t, err)
	require.Len(t, candles, 3)

	// 정렬
	assert.Equal(t, time.Date(2024, 3, 4, 11, 30, 0, 0, ist).Unix(), candles[0].Time.Unix())
	assert.Equal(t, 100.0, candles[0].Close)
	assert.Equal(t, 1500.0, candles[0].Volume)

	// 중복 시간은 먼저 나온 행 유지
	assert.Equal(t, 102.5, candles[1].Close)

	// 빈 거래량/미결제약정 허용
	assert.Equal(t, 103.0, candles[2].Close)
	assert.Zero(t, candles[2].Volume)

	assert.NoError(t, candles.Validate())
}

func TestReadCandles_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "열 부족", input: "2024-03-04 11:30:00,1,2,3\n"},
		{name: "숫자 아님", input: "2024-03-04 11:30:00,a,2,1,2\n"},
		{name: "타임스탬프 오류", input: "04/03/2024,1,2,1,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCandles(strings.NewReader(tt.input), nil)
			assert.Error(t, err)
		})
	}
}

func TestCSVSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nifty.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	src := NewCSVSource(path, "NIFTY", nil)

	candles, err := src.Load(context.Background(), "NIFTY")
	require.NoError(t, err)
	assert.Len(t, candles, 3)

	_, err = src.Load(context.Background(), "BANKNIFTY")
	assert.ErrorIs(t, err, ErrUnknownInstrument)

	series, err := LoadSeries(context.Background(), src, "NIFTY")
	require.NoError(t, err)
	assert.Len(t, series["NIFTY"], 3)

	_, err = NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"), "", nil).Load(context.Background(), "NIFTY")
	assert.Error(t, err)
}

func TestResampledSource_Load(t *testing.T) {
	inner := new(MockSource)
	inner.On("Load", mock.Anything, "NIFTY").Return(pinSeries(), nil)

	src := &ResampledSource{Source: inner, Interval: 15 * time.Minute, Location: time.UTC}
	candles, err := src.Load(context.Background(), "NIFTY")
	require.NoError(t, err)
	require.Len(t, candles, 1)

	c := candles[0]
	assert.Equal(t, watchStart, c.Time)
	assert.Equal(t, 105.0, c.Open)
	assert.Equal(t, 106.0, c.High)
	assert.Equal(t, 90.0, c.Low)
	assert.Equal(t, 103.0, c.Close)

	inner.On("Load", mock.Anything, "BANKNIFTY").Return(nil, ErrUnknownInstrument)
	_, err = src.Load(context.Background(), "BANKNIFTY")
	assert.ErrorIs(t, err, ErrUnknownInstrument)
}
