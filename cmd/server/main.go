package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/00aj99/Hauk/internal/config"
	"github.com/00aj99/Hauk/internal/idgen"
	"github.com/00aj99/Hauk/internal/kv"
	"github.com/00aj99/Hauk/internal/server"
	sessionrepo "github.com/00aj99/Hauk/internal/session/repository"
	sharerepo "github.com/00aj99/Hauk/internal/share/repository"
	"github.com/00aj99/Hauk/internal/sharing/service"
	"github.com/00aj99/Hauk/internal/telemetry"
	telemetryotel "github.com/00aj99/Hauk/internal/telemetry/otel"
	"github.com/00aj99/Hauk/internal/telemetry/producer"
)

// sweepInterval is how often expired rows are purged from the Postgres backend.
const sweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: "hauk",
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()

	backend, err := kv.Open(ctx, cfg.StoreOptions())
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer backend.Close()
	log.Printf("store: using %s backend", cfg.StorageBackend)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	store := kv.NewInstrumented(kv.WithPrefix(backend, cfg.KeyPrefix), providers.TracerProvider, reg)

	kafkaProducer := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if kafkaProducer != nil {
		log.Printf("telemetry: publishing lifecycle events to Kafka topic %s", cfg.TelemetryKafkaTopic)
	}
	var kafkaEmitter telemetry.EventEmitter
	if kafkaProducer != nil {
		kafkaEmitter = kafkaProducer
	}
	emitter := telemetry.NewMulti(
		telemetryotel.NewEventEmitter(providers.LoggerProvider),
		telemetry.NewMetricsEmitter(reg),
		kafkaEmitter,
	)

	sharing := service.NewSharingService(
		sessionrepo.NewKVRepository(store, nil),
		sharerepo.NewKVRepository(store, nil),
		idgen.New(store, cfg.IDMaxAttempts),
		cfg.Limits(),
		service.WithEmitter(emitter),
	)

	grpcServer := server.NewGRPCServer(server.Deps{
		Sharing:        sharing,
		HealthPinger:   backend,
		Emitter:        emitter,
		RequestTimeout: cfg.RequestTimeout(),
	})
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.NewHTTPHandler(server.HTTPDeps{
			Fetcher:      sharing,
			HealthPinger: backend,
			Gatherer:     reg,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()
	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()
	if pg, ok := backend.(*kv.PostgresStore); ok {
		go sweep(ctx, pg)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down servers...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http: shutdown: %v", err)
	}
	grpcServer.GracefulStop()

	// Let in-flight EmitAsync calls finish before the exporters go away.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := kafkaProducer.Close(); err != nil {
		log.Printf("telemetry: kafka close: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("otel: shutdown: %v", err)
	}
	log.Println("servers stopped")
}

// sweep purges expired rows until ctx is cancelled. Other backends expire keys natively.
func sweep(ctx context.Context, store *kv.PostgresStore) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := store.Sweep(ctx)
			if err != nil {
				log.Printf("store: sweep: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("store: swept %d expired entries", n)
			}
		}
	}
}
