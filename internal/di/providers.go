package di

import (
	"context"
	"fmt"
	"time"

	"BreadthPulse/internal/alert"
	domrepo "BreadthPulse/internal/domain/repository"
	"BreadthPulse/internal/handler/api"
	"BreadthPulse/internal/market"
	"BreadthPulse/internal/notify"
	internalrepo "BreadthPulse/internal/repository"
	"BreadthPulse/internal/service/broker"
	"BreadthPulse/internal/service/finmind"
	"BreadthPulse/internal/service/twse"
	"BreadthPulse/internal/service/yahoo"
	"BreadthPulse/internal/store"
	"BreadthPulse/internal/universe"
	"BreadthPulse/internal/usecase"
	"BreadthPulse/pkg/cache"
	pkgch "BreadthPulse/pkg/clickhouse"
	"BreadthPulse/pkg/config"
	"BreadthPulse/pkg/httpx"
	pkgkafka "BreadthPulse/pkg/kafka"
	applogger "BreadthPulse/pkg/logger"
	"BreadthPulse/pkg/metrics"
	"BreadthPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// schema. Returns nil when ClickHouse is disabled; the store then runs
// memory-only.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.ClickHouse.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideSampleRepo creates the persistent sample repository, nil when
// persistence is off.
func ProvideSampleRepo(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) domrepo.SampleRepo {
	if chClient == nil {
		return nil
	}
	repo := internalrepo.NewCHSampleRepo(chClient, cfg.ClickHouse.Table)
	repo.SetLogger(l)
	return repo
}

// ProvideKafkaProducer creates a Kafka producer, nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventSinks assembles the delivery fan-out. The log sink is
// always present.
func ProvideEventSinks(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) []domrepo.EventSink {
	sinks := []domrepo.EventSink{notify.NewLogSink(l)}
	if producer != nil {
		sinks = append(sinks, notify.NewKafkaSink(producer, cfg.Kafka.Topic))
	}
	return sinks
}

// ProvideCache picks Redis when enabled, in-process memory otherwise.
func ProvideCache(cfg *config.Config, l *applogger.Logger) cache.Cache {
	if cfg.Redis.Enabled {
		c, err := cache.NewRedis(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err == nil {
			return c
		}
		l.Warn("redis unavailable, using memory cache", applogger.Error(err))
	}
	return cache.NewMemory()
}

// ProvideFinMindClient creates the FinMind client shared by the quote
// chain, the calendar and the universe selector.
func ProvideFinMindClient(cfg *config.Config) *finmind.Client {
	return finmind.NewClient(finmind.Config{
		BaseURL: cfg.Providers.FinMind.BaseURL,
		Timeout: cfg.Providers.FinMind.Timeout,
		Token:   cfg.Secrets.FinMindToken,
	}, nil)
}

// ProvideQuoteChain builds the ordered provider chain. Order encodes
// preference: broker feed, exchange snapshot, FinMind, Yahoo.
func ProvideQuoteChain(fm *finmind.Client, cfg *config.Config, l *applogger.Logger) []domrepo.QuoteProvider {
	var chain []domrepo.QuoteProvider
	if cfg.Providers.Broker.Enabled {
		chain = append(chain, broker.NewClient(broker.Config{
			URL:             cfg.Providers.Broker.URL,
			Token:           cfg.Secrets.BrokerToken,
			SnapshotTimeout: cfg.Providers.Broker.SnapshotTimeout,
		}, l))
	}
	if cfg.Providers.Exchange.Enabled {
		chain = append(chain, twse.NewClient(twse.Config{
			BaseURL:   cfg.Providers.Exchange.BaseURL,
			WarmupURL: cfg.Providers.Exchange.WarmupURL,
			UserAgent: cfg.Providers.Exchange.UserAgent,
			Timeout:   cfg.Providers.Exchange.Timeout,
			BatchSize: cfg.Providers.Exchange.BatchSize,
		}, l))
	}
	chain = append(chain, fm)
	if cfg.Providers.Yahoo.Enabled {
		chain = append(chain, yahoo.NewClient(yahoo.Config{
			Suffixes: cfg.Providers.Yahoo.Suffixes,
			Location: cfg.Location(),
			Timeout:  cfg.Poll.ProviderTimeout,
		}, l))
	}
	return chain
}

// ProvideCalendar creates the trading calendar off the reference feed.
func ProvideCalendar(fm *finmind.Client, cfg *config.Config, l *applogger.Logger) (*market.Calendar, error) {
	weekdays, err := cfg.TradingWeekdays()
	if err != nil {
		return nil, err
	}
	return market.NewCalendar(fm, market.CalendarConfig{
		ReferenceSymbol: cfg.Market.ReferenceSymbol,
		Location:        cfg.Location(),
		OpenMinute:      cfg.OpenMinute(),
		CloseMinute:     cfg.CloseMinute(),
		Weekdays:        weekdays,
		LookbackDays:    cfg.Market.LookbackDays,
	}, l), nil
}

// ProvideSelector creates the universe selector.
func ProvideSelector(fm *finmind.Client, c cache.Cache, cfg *config.Config, l *applogger.Logger) *universe.Selector {
	return universe.NewSelector(universe.Config{
		Size:            cfg.Universe.Size,
		CodeLength:      cfg.Universe.CodeLength,
		ExcludePrefixes: cfg.Universe.ExcludePrefixes,
		ExcludeSymbols:  cfg.Universe.ExcludeSymbols,
		MinTableRows:    cfg.Universe.MinTableRows,
	}, fm, c, l)
}

// ProvideStore creates the intraday sample store. The dedupe bucket
// follows the poll interval, floored at one minute.
func ProvideStore(repo domrepo.SampleRepo, cfg *config.Config, l *applogger.Logger) *store.Store {
	granularity := int(cfg.Poll.Interval.Minutes())
	if granularity < 1 {
		granularity = 1
	}
	return store.New(granularity, repo, l)
}

// ProvideAlertMachine creates the per-day alert state machine.
func ProvideAlertMachine(st *store.Store, cfg *config.Config) *alert.Machine {
	return alert.NewMachine(alert.Config{
		HotThreshold:        cfg.Breadth.HotThreshold,
		ColdThreshold:       cfg.Breadth.ColdThreshold,
		RapidWindow:         cfg.Breadth.RapidWindow,
		RapidTolerance:      cfg.Breadth.RapidTolerance,
		RapidThreshold:      cfg.Breadth.RapidThreshold,
		BaselineMinCoverage: cfg.Breadth.BaselineMinCoverage,
		TrendDeviation:      cfg.Breadth.TrendDeviation,
		ReversalThreshold:   cfg.Breadth.ReversalThreshold,
	}, st)
}

// ProvideAggregator creates the quote aggregator over the chain.
func ProvideAggregator(chain []domrepo.QuoteProvider, cfg *config.Config, m domrepo.Metrics, l *applogger.Logger) *usecase.QuoteAggregator {
	return usecase.NewQuoteAggregator(chain, cfg.Poll.ProviderTimeout, m, l)
}

// ProvidePoller creates the poll pipeline.
func ProvidePoller(
	cfg *config.Config,
	cal *market.Calendar,
	selector *universe.Selector,
	agg *usecase.QuoteAggregator,
	fm *finmind.Client,
	st *store.Store,
	machine *alert.Machine,
	sinks []domrepo.EventSink,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.Poller {
	return usecase.NewPoller(usecase.PollConfig{
		IndexSymbol:         cfg.Market.IndexSymbol,
		LookbackDays:        cfg.Market.LookbackDays,
		Workers:             cfg.Poll.Workers,
		EntryThreshold:      cfg.Breadth.EntryThreshold,
		PrevDayLagTolerance: cfg.Breadth.PrevDayLagTolerance,
		BaselineFallback:    cfg.Universe.BaselineFallback,
	}, cal, selector, agg, fm, st, machine, sinks, m, l)
}

// ProvideEngine creates the engine facade.
func ProvideEngine(poller *usecase.Poller, st *store.Store, machine *alert.Machine, l *applogger.Logger) *usecase.Engine {
	return usecase.NewEngine(poller, st, machine, l)
}

// ProvideHTTPHandler creates the API handler.
func ProvideHTTPHandler(engine *usecase.Engine, l *applogger.Logger) httpx.Handler {
	h := api.NewBreadthHandler(engine)
	h.SetLogger(l)
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	engine *usecase.Engine,
	handler httpx.Handler,
	chClient *pkgch.Client,
	sinks []domrepo.EventSink,
) *server.App {
	return server.New(cfg, l, engine, handler, chClient, sinks)
}
