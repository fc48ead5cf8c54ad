package position

import "fmt"

// Error 타입들은 포지션 계획 중 발생할 수 있는 에러를 정의합니다
var (
	ErrInvalidRatio      = fmt.Errorf("손익비는 0보다 커야 합니다")
	ErrInvalidPrice      = fmt.Errorf("가격은 0보다 큰 유한값이어야 합니다")
	ErrInvalidLots       = fmt.Errorf("랏 수는 0보다 커야 합니다")
	ErrInvalidMultiplier = fmt.Errorf("계약 승수는 0보다 커야 합니다")
)

// PositionError는 포지션 계획 에러를 확장한 구조체입니다
type PositionError struct {
	Instrument string
	Op         string
	Err        error
}

// Error는 error 인터페이스를 구현합니다
func (e *PositionError) Error() string {
	if e.Instrument != "" {
		return fmt.Sprintf("포지션 에러 [%s, 작업: %s]: %v", e.Instrument, e.Op, e.Err)
	}
	return fmt.Sprintf("포지션 에러 [작업: %s]: %v", e.Op, e.Err)
}

// Unwrap은 내부 에러를 반환합니다 (errors.Is/As 지원을 위함)
func (e *PositionError) Unwrap() error {
	return e.Err
}

// NewPositionError는 새로운 PositionError를 생성합니다
func NewPositionError(instrument, op string, err error) *PositionError {
	return &PositionError{
		Instrument: instrument,
		Op:         op,
		Err:        err,
	}
}
