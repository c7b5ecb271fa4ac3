package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/katakuxiko/safety-chat/internal/api"
	"github.com/katakuxiko/safety-chat/internal/chat"
	"github.com/katakuxiko/safety-chat/internal/config"
	"github.com/katakuxiko/safety-chat/internal/logger"
	"github.com/katakuxiko/safety-chat/internal/service"
	"github.com/katakuxiko/safety-chat/internal/store"
	"github.com/katakuxiko/safety-chat/internal/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
)

func newLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	return logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: out,
	})
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Load(cmd.String("env"))
	log := newLogger(cfg, os.Stdout)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// one HTTP client for the whole process
	rag := service.NewHTTPRAGClient(&fiber.Client{}, cfg.RAGBaseURL)
	client := service.NewInstrumentedClient(rag, reg)

	opts := []chat.Option{chat.WithTopK(cfg.TopK), chat.WithLogger(log)}
	if cfg.PgConn != "" {
		pg, err := store.NewPgStore(ctx, cfg.PgConn)
		if err != nil {
			return fmt.Errorf("open ask log: %w", err)
		}
		defer pg.Close()
		opts = append(opts, chat.WithRecorder(pg))
		log.Info("ask log enabled")
	}

	sessions := store.NewSessions(func() *chat.View {
		return chat.NewView(client, opts...)
	})
	go sweepSessions(ctx, sessions, cfg.SessionIdleTTL, log)

	app := api.NewApp(os.Stdout)
	api.RegisterRoutes(app, api.NewHandler(sessions, rag, log), reg)

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Error("shutdown", "error", err)
		}
	}()

	log.Info("server started", "addr", cfg.ServerAddr, "rag_api_url", rag.BaseURL())
	return app.Listen(cfg.ServerAddr)
}

func sweepSessions(ctx context.Context, sessions *store.Sessions, ttl time.Duration, log *slog.Logger) {
	t := time.NewTicker(max(ttl/2, time.Second))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := sessions.Sweep(ttl); n > 0 {
				log.Debug("sessions swept", "removed", n, "live", sessions.Len())
			}
		}
	}
}

func askAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Load(cmd.String("env"))
	log := newLogger(cfg, os.Stderr)

	topK := cfg.TopK
	if k := cmd.Int("top-k"); k > 0 {
		topK = k
	}

	view := chat.NewView(
		service.NewHTTPRAGClient(&fiber.Client{}, cfg.RAGBaseURL),
		chat.WithTopK(topK),
		chat.WithLogger(log),
	)
	view.SetQuestion(strings.Join(cmd.Args().Slice(), " "))

	p := view.Submit(ctx)
	if p == nil {
		return errors.New("question is empty")
	}
	if _, err := p.Wait(ctx); errors.Is(err, context.Canceled) {
		return err
	}

	return printState(os.Stdout, view.State())
}

func printState(w io.Writer, st chat.State) error {
	if st.ErrorMessage != "" {
		return cli.Exit(st.ErrorMessage, 1)
	}
	res, ok := st.Response.Get()
	if !ok {
		return cli.Exit(chat.FailureMessage, 1)
	}

	fmt.Fprintf(w, "%s\n", res.Answer)
	if len(res.Chunks) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\nSources:\n")
	for i, ch := range res.Chunks {
		fmt.Fprintf(w, "[%d] %s p.%d #%d (%s)\n    %s\n",
			i+1, ch.Metadata.DocID, ch.Metadata.PageNum, ch.Metadata.ChunkIdx, ch.ID,
			util.OneLine(ch.TextPreview, 400))
	}
	return nil
}

func healthAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Load(cmd.String("env"))

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	h, err := service.NewHTTPRAGClient(&fiber.Client{}, cfg.RAGBaseURL).Health(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("backend %s: %v", cfg.RAGBaseURL, err), 1)
	}
	fmt.Fprintf(os.Stdout, "status=%s collection=%s llm_model=%s\n", h.Status, h.Collection, h.LLMModel)
	return nil
}
