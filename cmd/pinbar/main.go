package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	osSignal "os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/assist-by/pinbar/internal/backtest"
	"github.com/assist-by/pinbar/internal/charges"
	"github.com/assist-by/pinbar/internal/config"
	"github.com/assist-by/pinbar/internal/logging"
	"github.com/assist-by/pinbar/internal/market"
	"github.com/assist-by/pinbar/internal/notification"
	"github.com/assist-by/pinbar/internal/notification/discord"
	"github.com/assist-by/pinbar/internal/scheduler"
	"github.com/assist-by/pinbar/internal/storage"
	"github.com/assist-by/pinbar/internal/strategy"
	"github.com/assist-by/pinbar/internal/strategy/pinbar"
)

var defaultSweepRatios = []float64{1.5, 2, 2.5, 3, 3.5, 4}

// app은 실행 모드 간에 공유하는 구성 요소입니다
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	loc      *time.Location
	source   market.Source
	store    *storage.PostgresStore // DATABASE_URL이 없으면 nil
	notifier notification.Notifier
	registry *strategy.Registry
	strategy strategy.Strategy
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Printf("실행 실패: %v", err)
		os.Exit(1)
	}
}

// run은 모든 defer가 정리된 뒤 에러를 돌려주도록 main에서 분리했습니다
func run(args []string) error {
	fs := flag.NewFlagSet("pinbar", flag.ContinueOnError)
	mode := fs.String("mode", "backtest", "실행 모드: backtest | watch | import")
	sweep := fs.Bool("sweep", false, "손익비 스윕 실행 (backtest 모드)")
	trades := fs.Bool("trades", false, "개별 거래 내역 출력 (backtest 모드)")
	csvPath := fs.String("csv", "", "캔들 CSV 경로 (CANDLE_CSV보다 우선)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("설정 로드 실패: %w", err)
	}
	if *csvPath != "" {
		cfg.Data.CandleCSV = *csvPath
	}

	logger, err := logging.New(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("로거 생성 실패: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := osSignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, *mode == "import")
	if err != nil {
		logger.Error("초기화 실패", zap.Error(err))
		return err
	}
	if a.store != nil {
		defer a.store.Close()
	}

	switch *mode {
	case "backtest":
		err = a.runBacktest(ctx, backtestOptions{Sweep: *sweep, Trades: *trades})
	case "watch":
		err = a.runWatch(ctx)
	case "import":
		err = a.runImport(ctx)
	default:
		err = fmt.Errorf("알 수 없는 실행 모드: %s", *mode)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		if notifyErr := a.notifier.SendError(err); notifyErr != nil {
			logger.Warn("에러 알림 전송 실패", zap.Error(notifyErr))
		}
		logger.Error("실행 실패", zap.String("mode", *mode), zap.Error(err))
		return err
	}
	logger.Info("종료")
	return nil
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, importMode bool) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		loc:      loc,
		notifier: notification.Nop{},
		registry: strategy.NewRegistry(),
	}

	if cfg.Data.DatabaseURL != "" {
		store, err := storage.NewPostgresStore(ctx, cfg.Data.DatabaseURL, loc)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		a.store = store
	}

	// import 모드는 CSV를 읽어 DB에 저장하므로 소스는 항상 CSV
	switch {
	case cfg.Data.CandleCSV != "" && (importMode || a.store == nil):
		a.source = market.NewCSVSource(cfg.Data.CandleCSV, cfg.Data.Instrument, loc)
	case a.store != nil:
		a.source = a.store
	default:
		return nil, errors.New("CANDLE_CSV 또는 DATABASE_URL 중 하나는 설정해야 합니다")
	}

	if cfg.Data.Resample && !importMode {
		a.source = &market.ResampledSource{Source: a.source, Interval: cfg.Data.CandleInterval, Location: loc}
	}

	if cfg.Discord.SignalWebhook != "" || cfg.Discord.InfoWebhook != "" || cfg.Discord.ErrorWebhook != "" {
		opts := []discord.ClientOption{
			discord.WithTimeout(10 * time.Second),
			discord.WithLogger(logger),
		}
		if cfg.Discord.ErrorWebhook != "" {
			opts = append(opts, discord.WithErrorWebhook(cfg.Discord.ErrorWebhook))
		}
		a.notifier = discord.NewClient(cfg.Discord.SignalWebhook, cfg.Discord.InfoWebhook, opts...)
	}

	pinbar.RegisterStrategy(a.registry)

	detCfg, err := cfg.DetectorConfig()
	if err != nil {
		return nil, err
	}
	a.strategy, err = strategy.CreateStrategyFromConfig(a.registry, cfg.Strategy.Name, pinbar.Name, detCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("전략 생성 실패: %w", err)
	}

	logger.Info("초기화 완료",
		zap.String("strategy", a.strategy.GetName()),
		zap.String("instrument", cfg.Data.Instrument),
		zap.String("timezone", loc.String()),
		zap.Bool("database", a.store != nil),
	)
	return a, nil
}

// backtestOptions는 backtest 모드의 출력 선택입니다
type backtestOptions struct {
	Sweep  bool
	Trades bool
}

func (a *app) runBacktest(ctx context.Context, opts backtestOptions) error {
	inst := a.cfg.Data.Instrument
	series, err := market.LoadSeries(ctx, a.source, inst)
	if err != nil {
		return err
	}

	trades, err := a.strategy.Detect(series[inst], inst)
	if err != nil {
		return fmt.Errorf("패턴 감지 실패: %w", err)
	}
	a.logger.Info("매매 후보 감지 완료", zap.Int("candles", len(series[inst])), zap.Int("trades", len(trades)))

	engine, err := a.newEngine()
	if err != nil {
		return err
	}
	outcomes, err := engine.RunParallel(ctx, trades, series, a.cfg.App.Workers)
	if err != nil {
		return err
	}

	est, err := charges.NewEstimator(a.cfg.ChargeSchedule(), a.cfg.Position.ContractMultiplier)
	if err != nil {
		return err
	}

	summary := backtest.Summarize(outcomes)
	net, err := backtest.NetOfCosts(summary, outcomes, est, engine.Size().Lots)
	if err != nil {
		return err
	}
	slots, err := backtest.TimeSlotStats(outcomes, time.Hour, a.loc)
	if err != nil {
		return err
	}

	r := &report{
		Instrument: inst,
		Summary:    summary,
		Net:        net,
		Slots:      slots,
	}
	if opts.Trades {
		r.Trades = outcomes
	}

	if entry, exit, ok := averagePrices(outcomes); ok {
		perLot := summary.AvgPnL / float64(engine.Size().Lots)
		r.LotScales, err = backtest.LotScaling(perLot, entry, exit, est, []int{1, 2, 5, 10})
		if err != nil {
			return err
		}
	}
	if summary.Closed() > 0 {
		r.Projections = backtest.WinRateProjection(summary.Closed(), summary.AvgWin, summary.AvgLoss,
			net.ChargesPerTrade, []float64{20, 25, 30, 35, 40})
	}

	if opts.Sweep || len(a.cfg.App.SweepRatios) > 0 {
		ratios := a.cfg.App.SweepRatios
		if len(ratios) == 0 {
			ratios = defaultSweepRatios
		}
		detCfg, err := a.cfg.DetectorConfig()
		if err != nil {
			return err
		}
		factory := a.registry.FactoryFor(a.strategy.GetName(), a.logger)
		r.Sweep, err = backtest.SweepRatios(ctx, factory, detCfg, engine, series, inst, ratios, a.cfg.App.Workers)
		if err != nil {
			return err
		}
	}

	r.Print(os.Stdout, a.loc)

	if a.cfg.App.JournalOutcomes {
		if err := a.journal(ctx, outcomes); err != nil {
			return err
		}
	}

	if err := a.notifier.SendSummary(notification.SummaryReport{Instrument: inst, Summary: summary, Net: &net}); err != nil {
		a.logger.Warn("요약 알림 전송 실패", zap.Error(err))
	}
	return nil
}

func (a *app) newEngine() (*backtest.Engine, error) {
	size, err := a.cfg.PositionSize()
	if err != nil {
		return nil, err
	}
	tb, err := a.cfg.TieBreak()
	if err != nil {
		return nil, err
	}
	return backtest.NewEngine(size, backtest.WithTieBreak(tb), backtest.WithLogger(a.logger))
}

func (a *app) journal(ctx context.Context, outcomes []backtest.Outcome) error {
	if a.store == nil {
		a.logger.Warn("DATABASE_URL이 없어 결과 기록을 건너뜁니다")
		return nil
	}
	runID := storage.NewRunID(a.cfg.Data.Instrument)
	n, err := a.store.SaveOutcomes(ctx, runID, outcomes)
	if err != nil {
		return err
	}
	a.logger.Info("백테스트 결과 기록 완료", zap.String("runID", runID), zap.Int64("rows", n))
	return nil
}

func (a *app) runWatch(ctx context.Context) error {
	collector, err := market.NewCollector(a.source, a.strategy, a.notifier, []string{a.cfg.Data.Instrument},
		market.WithCollectorLogger(a.logger))
	if err != nil {
		return err
	}

	sched, err := scheduler.NewScheduler(a.cfg.App.FetchInterval, collector,
		scheduler.WithDelay(5*time.Second), scheduler.WithLogger(a.logger))
	if err != nil {
		return err
	}

	if err := a.notifier.SendInfo(fmt.Sprintf("🚀 %s 핀바 감시를 시작합니다 (%s 간격)", a.cfg.Data.Instrument, a.cfg.App.FetchInterval)); err != nil {
		a.logger.Warn("시작 알림 전송 실패", zap.Error(err))
	}

	// 시작 직후 한 번 실행
	if err := collector.Execute(ctx); err != nil {
		a.logger.Warn("초기 수집 실패", zap.Error(err))
	}
	return sched.Start(ctx)
}

func (a *app) runImport(ctx context.Context) error {
	if a.store == nil {
		return errors.New("import 모드에는 DATABASE_URL이 필요합니다")
	}
	inst := a.cfg.Data.Instrument
	candles, err := a.source.Load(ctx, inst)
	if err != nil {
		return err
	}
	n, err := a.store.SaveCandles(ctx, inst, candles)
	if err != nil {
		return err
	}
	a.logger.Info("캔들 가져오기 완료", zap.String("instrument", inst), zap.Int("read", len(candles)), zap.Int64("inserted", n))
	return nil
}
