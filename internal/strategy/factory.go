package strategy

import "go.uber.org/zap"

// CreateStrategyFromConfig는 이름에 해당하는 전략을 생성합니다.
// 등록되지 않은 이름이면 defaultName 전략을 사용합니다.
func CreateStrategyFromConfig(registry *Registry, name, defaultName string, cfg Config, logger *zap.Logger) (Strategy, error) {
	if _, exists := registry.strategies[name]; !exists {
		name = defaultName
	}
	return registry.Create(name, cfg, logger)
}

// FactoryFor는 레지스트리에서 특정 전략의 설정 기반 생성 함수를 꺼냅니다.
// 손익비 스윕처럼 설정만 바꿔 여러 번 생성할 때 사용합니다.
func (r *Registry) FactoryFor(name string, logger *zap.Logger) func(cfg Config) (Strategy, error) {
	return func(cfg Config) (Strategy, error) {
		return r.Create(name, cfg, logger)
	}
}
