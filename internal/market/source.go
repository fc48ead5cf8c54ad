package market

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/assist-by/pinbar/internal/domain"
)

// ErrUnknownInstrument는 소스가 해당 종목 데이터를 갖고 있지 않을 때 반환됩니다
var ErrUnknownInstrument = errors.New("알 수 없는 종목")

// Source는 종목별 캔들 시리즈를 제공합니다.
// 반환되는 시리즈는 시간 오름차순이며 중복 시간이 없어야 합니다.
type Source interface {
	Load(ctx context.Context, instrument string) (domain.CandleList, error)
}

// LoadSeries는 여러 종목의 시리즈를 한 번에 읽어 백테스트 입력 맵을 만듭니다
func LoadSeries(ctx context.Context, src Source, instruments ...string) (map[string]domain.CandleList, error) {
	series := make(map[string]domain.CandleList, len(instruments))
	for _, inst := range instruments {
		candles, err := src.Load(ctx, inst)
		if err != nil {
			return nil, fmt.Errorf("%s 캔들 로드 실패: %w", inst, err)
		}
		series[inst] = candles
	}
	return series, nil
}

// CSVSource는 "timestamp,open,high,low,close[,volume[,oi]]" 형식의 CSV 파일을 읽습니다
type CSVSource struct {
	Path       string
	Instrument string         // 비어 있으면 모든 종목 요청에 같은 파일을 사용
	Location   *time.Location // 시간대 정보가 없는 타임스탬프의 기준 시간대 (nil이면 UTC)
}

// NewCSVSource는 새로운 CSV 소스를 생성합니다
func NewCSVSource(path, instrument string, loc *time.Location) *CSVSource {
	return &CSVSource{Path: path, Instrument: instrument, Location: loc}
}

// Load는 파일을 읽어 정렬/중복 제거된 시리즈를 반환합니다
func (s *CSVSource) Load(ctx context.Context, instrument string) (domain.CandleList, error) {
	if s.Instrument != "" && instrument != s.Instrument {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstrument, instrument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("CSV 파일 열기 실패: %w", err)
	}
	defer f.Close()

	return ReadCandles(f, s.Location)
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ReadCandles는 CSV 스트림에서 캔들을 읽습니다.
// 첫 행이 헤더면 건너뛰며, 결과는 시간 오름차순으로 정렬되고 같은 시간은 처음 것만 남깁니다.
func ReadCandles(r io.Reader, loc *time.Location) (domain.CandleList, error) {
	if loc == nil {
		loc = time.UTC
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var candles domain.CandleList
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV 읽기 실패: %w", err)
		}
		line++

		if line == 1 && isHeader(record) {
			continue
		}
		c, err := parseRecord(record, loc)
		if err != nil {
			return nil, fmt.Errorf("CSV %d행: %w", line, err)
		}
		candles = append(candles, c)
	}

	return Normalize(candles), nil
}

// Normalize는 캔들을 시간순으로 정렬하고 중복 시간을 제거합니다 (먼저 나온 값 유지).
// 입력 슬라이스를 제자리에서 재사용합니다.
func Normalize(candles domain.CandleList) domain.CandleList {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	out := candles[:0]
	for i, c := range candles {
		if i > 0 && c.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "timestamp")
}

func parseRecord(record []string, loc *time.Location) (domain.Candle, error) {
	if len(record) < 5 {
		return domain.Candle{}, fmt.Errorf("열 개수 부족: %d", len(record))
	}

	ts, err := parseTimestamp(strings.TrimSpace(record[0]), loc)
	if err != nil {
		return domain.Candle{}, err
	}

	values := make([]float64, 7)
	for i := 1; i < len(record) && i < 7; i++ {
		field := strings.TrimSpace(record[i])
		if field == "" && i >= 5 {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("숫자 변환 실패 (열 %d): %w", i+1, err)
		}
		values[i] = v
	}

	return domain.Candle{
		Time:         ts,
		Open:         values[1],
		High:         values[2],
		Low:          values[3],
		Close:        values[4],
		Volume:       values[5],
		OpenInterest: values[6],
	}, nil
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("타임스탬프 해석 실패: %q", s)
}

// ResampledSource는 하위 소스의 캔들을 Interval 주기로 합쳐 제공합니다
type ResampledSource struct {
	Source   Source
	Interval time.Duration
	Location *time.Location
}

// Load는 하위 소스에서 읽은 캔들을 리샘플링합니다
func (s *ResampledSource) Load(ctx context.Context, instrument string) (domain.CandleList, error) {
	candles, err := s.Source.Load(ctx, instrument)
	if err != nil {
		return nil, err
	}
	return domain.Resample(candles, s.Interval, s.Location)
}
