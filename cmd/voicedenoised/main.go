package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/voicedenoise/pkg/config"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser/backend"
	"github.com/xaionaro-go/voicedenoise/pkg/noisesuppression"
	"github.com/xaionaro-go/voicedenoise/pkg/observe"
	"github.com/xaionaro-go/voicedenoise/pkg/server"
)

func syntaxExit(message string) {
	fmt.Fprintf(os.Stderr, "syntax error: %s\n", message)
	pflag.Usage()
	os.Exit(2)
}

func main() {
	flags := config.RegisterFlags(pflag.CommandLine)
	pflag.Parse()
	if pflag.NArg() > 1 {
		syntaxExit("expected at most one argument (bind address)")
	}

	cfg, err := flags.Load()
	if err != nil {
		syntaxExit(err.Error())
	}
	if pflag.NArg() == 1 {
		cfg.Server.ListenAddr = pflag.Arg(0)
	}
	loggerLevel, _ := cfg.Level()

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	ctx, cancelFn := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancelFn()

	var opts server.Options
	engineOpts := noisesuppression.Options{}
	if cfg.Metrics.ListenAddr != "" {
		provider, err := observe.InitProvider()
		if err != nil {
			logger.Fatalf(ctx, "unable to initialize metrics: %v", err)
		}
		defer provider.Shutdown(context.Background())
		metricsListener, err := getListener(ctx, cfg.Metrics.ListenAddr)
		if err != nil {
			logger.Fatal(ctx, err)
		}
		provider.Serve(ctx, metricsListener)

		serverMetrics, err := server.NewMetrics(provider.MeterProvider)
		if err != nil {
			logger.Fatal(ctx, err)
		}
		opts = append(opts, server.OptionMetrics{Metrics: serverMetrics})
		engineOpts = append(engineOpts, noisesuppression.OptionMetrics{Metrics: noisesuppression.DefaultMetrics()})
	}
	opts = append(opts,
		server.OptionEngineOptions(engineOpts),
		server.OptionDefaultModel(cfg.Model),
		server.OptionDefaultChannels(cfg.Channels),
		server.OptionDefaultParams(cfg.Params()),
	)

	factory, err := backend.New(ctx)
	if err != nil {
		logger.Fatal(ctx, err)
	}

	listener, err := getListener(ctx, cfg.Server.ListenAddr)
	if err != nil {
		logger.Fatal(ctx, err)
	}

	srv := server.NewServer(factory, cfg.Server.MaxSessions, cfg.Server.IdleCacheSize, opts...)
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error(ctx, err)
		}
	}()

	logger.Infof(ctx, "started at %v", listener.Addr())
	if err := srv.Serve(ctx, listener); err != nil {
		logger.Error(ctx, err)
	}
}
