package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/voicedenoise/pkg/config"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser/backend"
	"github.com/xaionaro-go/voicedenoise/pkg/noisesuppression"
	"github.com/xaionaro-go/voicedenoise/pkg/observe"
	"github.com/xaionaro-go/voicedenoise/pkg/pcm"
)

func syntaxExit(message string) {
	fmt.Fprintf(os.Stderr, "syntax error: %s\n", message)
	pflag.Usage()
	os.Exit(2)
}

func main() {
	flags := config.RegisterFlags(pflag.CommandLine)
	listModelsFlag := pflag.Bool("list-models", false, "print the available models and exit")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] < input.f32le > output.f32le\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Denoises interleaved float32 little-endian PCM at %d Hz.\n\n", denoiser.SampleRate)
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 0 {
		syntaxExit("expected no arguments")
	}

	if *listModelsFlag {
		for _, name := range denoiser.AvailableModels() {
			fmt.Println(name)
		}
		return
	}

	cfg, err := flags.Load()
	if err != nil {
		syntaxExit(err.Error())
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

	var metrics *noisesuppression.Metrics
	if cfg.Metrics.ListenAddr != "" {
		var provider *observe.Provider
		provider, metrics = setupMetrics(ctx, cfg.Metrics.ListenAddr)
		defer func() {
			if err := provider.Shutdown(context.Background()); err != nil {
				logger.Errorf(ctx, "unable to shut down metrics: %v", err)
			}
		}()
	}

	factory, err := backend.New(ctx)
	if err != nil {
		logger.Fatal(ctx, err)
	}

	mc, err := noisesuppression.NewMultiChannel(
		factory,
		cfg.Channels,
		noisesuppression.OptionModel(cfg.Model),
		noisesuppression.OptionMetrics{Metrics: metrics},
	)
	if err != nil {
		logger.Fatal(ctx, err)
	}
	defer func() {
		if err := mc.Close(); err != nil {
			logger.Error(ctx, err)
		}
	}()
	if err := mc.Init(ctx); err != nil {
		logger.Fatal(ctx, err)
	}
	logger.Infof(ctx, "initialized the denoiser: model '%s', %d channels", cfg.Model, cfg.Channels)

	if err := run(ctx, mc, cfg, os.Stdin, os.Stdout); err != nil {
		logger.Fatal(ctx, err)
	}
}

// setupMetrics serves the metrics at listenAddr until ctx is cancelled;
// the caller shuts the provider down.
func setupMetrics(
	ctx context.Context,
	listenAddr string,
) (*observe.Provider, *noisesuppression.Metrics) {
	provider, err := observe.InitProvider()
	if err != nil {
		logger.Fatalf(ctx, "unable to initialize metrics: %v", err)
	}
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		logger.Fatalf(ctx, "unable to listen for metrics at '%s': %v", listenAddr, err)
	}
	provider.Serve(ctx, listener)
	return provider, noisesuppression.DefaultMetrics()
}

// run denoises blocks of cfg.BlockSize samples per channel from r into w
// until r is exhausted. A trailing incomplete block is processed as is,
// without its incomplete sample group.
func run(
	ctx context.Context,
	mc *noisesuppression.MultiChannel,
	cfg *config.Config,
	r io.Reader,
	w io.Writer,
) error {
	defer logger.Debugf(ctx, "stopped processing")
	logger.Debugf(ctx, "started processing")

	params := cfg.Params()
	groupBytes := pcm.BlockBytes(1, cfg.Channels)
	buf := make([]byte, pcm.BlockBytes(cfg.BlockSize, cfg.Channels))
	out := bufio.NewWriter(w)
	for {
		if err := ctx.Err(); err != nil {
			return out.Flush()
		}

		n, err := io.ReadFull(r, buf)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return out.Flush()
		case errors.Is(err, io.ErrUnexpectedEOF):
			n -= n % groupBytes
		default:
			return fmt.Errorf("unable to read the input: %w", err)
		}

		block := buf[:n]
		samples := pcm.Float32s(block)
		if err := mc.ProcessInterleaved(ctx, samples, samples, params); err != nil {
			return err
		}
		if _, err := out.Write(block); err != nil {
			return fmt.Errorf("unable to write the output: %w", err)
		}
		if n < len(buf) {
			return out.Flush()
		}
	}
}
