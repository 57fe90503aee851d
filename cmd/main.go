package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"prepbot/internal/catalog"
	"prepbot/internal/config"
	"prepbot/internal/conversation"
	"prepbot/internal/dispatch"
	"prepbot/internal/gateway"
	"prepbot/internal/integrations/paramstore"
	"prepbot/internal/repository"
	"prepbot/internal/server"
	"prepbot/internal/session"
	"prepbot/internal/usecase"
	"prepbot/internal/webhook"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Secrets ----
	var params paramstore.Getter
	if cfg.ParamPrefix != "" {
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg), cfg.ParamPrefix)
		if err != nil {
			logger.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
		params = ssmClient
	}
	webhookSecret, err := paramstore.Resolve(ctx, params, cfg.PaymentWebhookSecret, "payment_webhook_secret")
	if err != nil {
		logger.Error("failed to resolve payment webhook secret", "err", err)
		os.Exit(1)
	}
	gatewayToken, err := paramstore.Resolve(ctx, params, cfg.GatewayToken, "gateway_token")
	if err != nil {
		logger.Error("failed to resolve gateway token", "err", err)
		os.Exit(1)
	}

	// ---- Catalog and conversation engine ----
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load catalog", "err", err)
		os.Exit(1)
	}
	composer, err := conversation.NewComposer(cat)
	if err != nil {
		logger.Error("failed to create composer", "err", err)
		os.Exit(1)
	}
	machine, err := conversation.NewMachine(cat, composer)
	if err != nil {
		logger.Error("failed to create machine", "err", err)
		os.Exit(1)
	}
	store := session.NewStore()
	engine, err := usecase.NewEngine(store, machine, logger)
	if err != nil {
		logger.Error("failed to create engine", "err", err)
		os.Exit(1)
	}
	normalizer := dispatch.NewNormalizer()

	// ---- Payments ----
	activations, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.ActivationsTable)
	if err != nil {
		logger.Error("failed to create activations repository", "err", err)
		os.Exit(1)
	}
	payments, err := usecase.NewPaymentService(webhook.NewVerifier(webhookSecret), activations, logger)
	if err != nil {
		logger.Error("failed to create payment service", "err", err)
		os.Exit(1)
	}

	// ---- Gateway connection ----
	dialer, err := gateway.NewWSDialer(cfg.GatewayURL, cfg.GatewayOrigin, gatewayToken)
	if err != nil {
		logger.Error("failed to create gateway dialer", "err", err)
		os.Exit(1)
	}
	var manager *gateway.Manager
	handler := func(ev gateway.MessageEvent) {
		msg, err := normalizer.FromGateway(ev)
		if err != nil {
			logger.Warn("dropping malformed gateway message", "sender", ev.Sender)
			return
		}
		out := engine.HandleMessage(msg)
		if err := manager.Send(out.Recipient, out.Text); err != nil {
			logger.Warn("failed to deliver reply", "recipient", out.Recipient, "err", err)
		}
	}
	manager, err = gateway.NewManager(dialer, handler, logger,
		gateway.WithReconnectDelay(cfg.ReconnectDelay))
	if err != nil {
		logger.Error("failed to create gateway manager", "err", err)
		os.Exit(1)
	}

	// ---- HTTP ingress ----
	srv, err := server.New(engine, payments, normalizer, logger)
	if err != nil {
		logger.Error("failed to create HTTP server", "err", err)
		os.Exit(1)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http ingress listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
			stop()
		}
	}()

	// The webhook ingress stays up even if the gateway link fails terminally;
	// a failed link requires operator intervention, not a dead process.
	go func() {
		if err := manager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("gateway connection ended", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "err", err)
	}
}
