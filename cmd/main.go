package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swap-history/internal/api"
	"swap-history/internal/engine"
	"swap-history/internal/history"
	"swap-history/internal/model"
	"swap-history/internal/pair"
	"swap-history/internal/render"
	"swap-history/internal/server"
	"swap-history/internal/service"
	"swap-history/internal/sink"
)

func main() {
	configPath := "config"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := service.LoadConfig(configPath)
	if err != nil {
		// 日志还没初始化
		panic(err)
	}

	service.InitLogger(cfg.Log.Level)
	defer service.Logger.Sync()
	logger := service.Logger

	// 1. 交易对选择状态 (外部拥有，引擎和渲染器只读)
	pairs, err := initialPairs(cfg.Pair)
	if err != nil {
		logger.Fatal("Invalid pair configuration", zap.Error(err))
	}

	// 2. 有界历史缓冲区
	buf := history.New(cfg.History.Capacity)

	// 3. 推送连接器
	connector := api.NewConnector(api.ConnectorConfig{
		URL:               cfg.Pusher.URL,
		Channel:           cfg.Pusher.Channel,
		Auth:              cfg.Pusher.Auth,
		ReconnectDelay:    cfg.Pusher.ReconnectDelay,
		MaxReconnectDelay: cfg.Pusher.MaxReconnectDelay,
		WriteTimeout:      cfg.Pusher.WriteTimeout,
		HandshakeTimeout:  cfg.Pusher.HandshakeTimeout,
		ReadTimeout:       cfg.Pusher.ReadTimeout,
		PingInterval:      cfg.Pusher.PingInterval,
	}, logger)

	// 4. 下游分发 (引擎接管并负责关闭)
	broadcaster := server.NewBroadcaster(logger)
	sinks := []sink.Sink{broadcaster}
	if len(cfg.Kafka.Brokers) > 0 {
		logger.Info("Kafka sink enabled", zap.Strings("Brokers", cfg.Kafka.Brokers), zap.String("Topic", cfg.Kafka.Topic))
		sinks = append(sinks, sink.NewKafkaSink(sink.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		}))
	}

	swapEngine := engine.NewSwapEngine(connector.Messages(), pairs, buf, logger, sinks...)

	renderer := render.NewRenderer(render.Options{Locale: cfg.Display.Locale, Limit: cfg.Display.Limit})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return connector.Start(gctx) })
	g.Go(func() error { return swapEngine.Run(gctx) })

	if cfg.Display.Enabled {
		g.Go(func() error {
			return renderer.Watch(gctx, os.Stdout, cfg.Display.Interval, func() (pair.State, []model.SwapMessage) {
				return pairs.Get(), buf.Snapshot()
			})
		})
	}

	if cfg.Server.Enabled {
		srv := server.New(server.Config{
			Addr:        cfg.Server.Addr,
			Logger:      logger,
			Pairs:       pairs,
			History:     buf,
			Renderer:    renderer,
			Engine:      swapEngine,
			Broadcaster: broadcaster,
		})
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if cerr := swapEngine.Close(); cerr != nil {
		logger.Warn("Failed to close sinks", zap.Error(cerr))
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Swap history stopped with error", zap.Error(err))
	}
	logger.Info("Swap history stopped")
}

func initialPairs(cfg service.PairConfig) (*pair.Store, error) {
	status, err := pair.ParseStatus(cfg.Status)
	if err != nil {
		return nil, err
	}
	store := pair.NewStore(pair.State{Status: status})
	if status == pair.StatusReady {
		store.SetReady(pair.Pair{
			Address: cfg.Address,
			Token0:  pair.Token{Symbol: cfg.Token0Symbol},
			Token1:  pair.Token{Symbol: cfg.Token1Symbol},
		})
	}
	return store, nil
}
