package pinbar

import (
	"fmt"

	"github.com/assist-by/pinbar/internal/domain"
	"github.com/assist-by/pinbar/internal/indicator"
	"github.com/assist-by/pinbar/internal/trading"
)

// Stream은 마감된 캔들을 하나씩 받아 증분으로 핀바를 감지합니다.
// 전체 이력 대신 직전 캔들과 EMA 누산기만 유지합니다.
// 하나의 고루틴에서만 사용해야 합니다.
type Stream struct {
	detector   *Detector
	instrument string
	ema        *indicator.EMAState
	prev       *domain.Candle
}

// NewStream은 종목별 증분 감지 스트림을 생성합니다
func (d *Detector) NewStream(instrument string) *Stream {
	return &Stream{
		detector:   d,
		instrument: instrument,
		ema:        indicator.NewEMAState(d.cfg.TrendSpan),
	}
}

// Push는 마감된 캔들을 반영하고, 조건을 만족하면 매매 후보를 반환합니다.
// 캔들은 이전에 넣은 캔들보다 늦은 시간이어야 합니다.
func (s *Stream) Push(c domain.Candle) (*trading.Trade, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s 캔들 검증 실패: %w", s.instrument, err)
	}
	if s.prev != nil && !c.Time.After(s.prev.Time) {
		return nil, fmt.Errorf("%w: 캔들 시간 역전 (%s <= %s)",
			domain.ErrInvalidInput, c.Time.Format("2006-01-02 15:04:05"), s.prev.Time.Format("2006-01-02 15:04:05"))
	}

	ema := s.ema.Update(c.Close)
	prev := s.prev
	s.prev = &c
	if prev == nil {
		return nil, nil
	}

	if !s.detector.Evaluate(*prev, c, ema).Qualifies() {
		return nil, nil
	}
	trade, err := s.detector.newTrade(s.instrument, c)
	if err != nil {
		return nil, err
	}
	return &trade, nil
}

// EMA는 현재 누산된 EMA 값과 반영된 캔들 수를 반환합니다
func (s *Stream) EMA() (float64, int) {
	return s.ema.Value, s.ema.Count
}
