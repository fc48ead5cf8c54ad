package indicator

import (
	"fmt"
	"time"

	"github.com/assist-by/pinbar/internal/domain"
)

// Result는 지표 계산의 기본 결과 구조체입니다
type Result interface {
	GetTimestamp() time.Time
}

// ValidationError는 입력값 검증 에러를 정의합니다
type ValidationError struct {
	Field string
	Err   error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("유효하지 않은 %s: %v", e.Field, e.Err)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// Indicator는 캔들 시리즈 위에서 계산되는 기술적 지표의 공통 인터페이스입니다
type Indicator interface {
	// Calculate는 캔들 데이터를 기반으로 지표를 계산합니다
	Calculate(candles domain.CandleList) ([]Result, error)

	// GetName은 지표의 이름을 반환합니다
	GetName() string
}

// BaseIndicator는 모든 지표 구현체에서 공통적으로 사용할 수 있는 기본 구현을 제공합니다
type BaseIndicator struct {
	Name string
}

// GetName은 지표의 이름을 반환합니다
func (b *BaseIndicator) GetName() string {
	return b.Name
}
