package pinbar

import "github.com/assist-by/pinbar/internal/domain"

// 핀바 형태 임계값
const (
	MaxUpperWickRatio = 0.15 // 윗꼬리 / 전체 범위 < 0.15
	MinLowerWickRatio = 0.50 // 아랫꼬리 / 전체 범위 > 0.50
	MinCloseLocation  = 0.60 // (종가 - 저가) / 전체 범위 >= 0.60
)

// Geometry는 캔들 형태를 범위 대비 비율로 표현합니다
type Geometry struct {
	Range         float64
	Body          float64
	UpperWick     float64
	LowerWick     float64
	UpperWickPct  float64
	LowerWickPct  float64
	CloseLocation float64
}

// Measure는 양봉 기준으로 캔들 형태를 계산합니다.
// 범위가 0이면 ok=false를 반환합니다.
func Measure(c domain.Candle) (g Geometry, ok bool) {
	rng := c.Range()
	if rng <= 0 {
		return Geometry{}, false
	}
	g = Geometry{
		Range:     rng,
		Body:      c.Close - c.Open,
		UpperWick: c.High - c.Close,
		LowerWick: c.Open - c.Low,
	}
	g.UpperWickPct = g.UpperWick / rng
	g.LowerWickPct = g.LowerWick / rng
	g.CloseLocation = (c.Close - c.Low) / rng
	return g, true
}

// IsPinBar는 강세 핀바 형태인지 확인합니다 (방향 조건은 포함하지 않음)
func IsPinBar(c domain.Candle) bool {
	g, ok := Measure(c)
	if !ok {
		return false
	}
	return g.UpperWickPct < MaxUpperWickRatio &&
		g.LowerWickPct > MinLowerWickRatio &&
		g.LowerWick > g.Body &&
		g.CloseLocation >= MinCloseLocation
}
