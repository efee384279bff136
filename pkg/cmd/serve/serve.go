package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	natsio "github.com/nats-io/nats.go"
	"github.com/pgx-contrib/pgxtrace"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/ledtrack-go/log"
	"github.com/mpapenbr/ledtrack-go/pkg/colors"
	"github.com/mpapenbr/ledtrack-go/pkg/config"
	"github.com/mpapenbr/ledtrack-go/pkg/dataset"
	"github.com/mpapenbr/ledtrack-go/pkg/db/postgres"
	"github.com/mpapenbr/ledtrack-go/pkg/model"
	"github.com/mpapenbr/ledtrack-go/pkg/replay"
	"github.com/mpapenbr/ledtrack-go/pkg/server"
	"github.com/mpapenbr/ledtrack-go/pkg/server/auth"
	"github.com/mpapenbr/ledtrack-go/pkg/server/permission"
	"github.com/mpapenbr/ledtrack-go/pkg/sink"
	"github.com/mpapenbr/ledtrack-go/pkg/sink/fanout"
	natssink "github.com/mpapenbr/ledtrack-go/pkg/sink/nats"
	"github.com/mpapenbr/ledtrack-go/pkg/utils"
)

//nolint:funlen // by design
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "starts the playback server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"addr",
		"a",
		"localhost:8080",
		"HTTP server listen address")
	cmd.Flags().StringVar(&config.TLSServerAddr,
		"tls-addr",
		"",
		"HTTP server listen address (TLS)")
	cmd.Flags().StringVar(&config.TLSCertFile,
		"tls-cert",
		"",
		"file containing the TLS certificate")
	cmd.Flags().StringVar(&config.TLSKeyFile,
		"tls-key",
		"",
		"file containing the TLS private key")
	cmd.Flags().StringVar(&config.TLSCAFile,
		"tls-ca",
		"",
		"file containing the TLS root CA")
	cmd.Flags().StringVar(&config.TraefikCerts,
		"traefik-certs",
		"",
		"file containing the traefik certificates (acme.json)")
	cmd.Flags().StringVar(&config.TraefikCertDomain,
		"traefik-domain",
		"",
		"domain to look up within the traefik certificates")
	cmd.Flags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	cmd.Flags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"debug",
		"controls the log level for sql methods")
	cmd.Flags().StringVar(&config.LogFormat,
		"log-format",
		"json",
		"controls the log output format")
	cmd.Flags().StringVar(&config.LogConfig,
		"log-config",
		"",
		"file containing logger filter rules (overrides log-level)")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().StringVar(&config.AdminToken,
		"admin-token",
		"",
		"admin token value")
	cmd.Flags().StringVar(&config.OperatorToken,
		"operator-token",
		"",
		"operator token value (grants playback control)")
	cmd.Flags().StringVar(&config.Session,
		"session",
		"",
		"key of the session to serve")
	cmd.Flags().StringVar(&config.DatasetDir,
		"dir",
		"",
		"serve a dataset from this directory instead of the database")
	cmd.Flags().StringVar(&config.ColorsFile,
		"colors",
		"",
		"file containing entity color assignments")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"if set, frames are also published to this NATS server")
	cmd.Flags().IntVar(&config.FPS,
		"fps",
		30,
		"frames per second for the playback loop")
	cmd.Flags().IntVar(&config.MaxConcurrentStreams,
		"max-concurrent-streams",
		0,
		"max number of concurrent streams per http2 connection")
	return cmd
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

//nolint:funlen,cyclop,gocognit // by design
func startServer() error {
	var logger *log.Logger
	var sqlLogger *log.Logger
	var telemetry *config.Telemetry
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
		sqlLogger = log.New(
			os.Stderr,
			parseLogLevel(config.SQLLogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))

	default:
		logger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))

		sqlLogger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.SQLLogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}

	if config.LogConfig != "" {
		logConfig, cfgErr := log.LoadConfig(config.LogConfig)
		if cfgErr != nil {
			return fmt.Errorf("could not read log config %s: %w", config.LogConfig, cfgErr)
		}
		logger, cfgErr = log.NewWithFilters(
			os.Stderr,
			parseLogLevel(logConfig.DefaultLevel, log.InfoLevel),
			logConfig.Rules(),
			log.WithCaller(true),
			log.AddCallerSkip(1))
		if cfgErr != nil {
			return cfgErr
		}
	}

	log.ResetDefault(logger)

	log.Debug("Config:",
		log.String("db", config.DB),
		log.String("session", config.Session),
		log.String("dir", config.DatasetDir),
	)

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	pgTracer := pgxtrace.CompositeQueryTracer{
		postgres.NewMyTracer(sqlLogger, log.DebugLevel),
	}

	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(context.Background()); err == nil {
			pgTracer = append(pgTracer, postgres.NewOtlpTracer())
		} else {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	var pool *pgxpool.Pool
	if config.DatasetDir == "" {
		waitForRequiredServices()
		pool = postgres.InitWithUrl(
			config.DB,
			postgres.WithTracer(pgTracer),
		)
	}

	log.Info("Starting server")
	ds, session, err := resolveDataset(context.Background(), pool)
	if err != nil {
		log.Error("could not load dataset", log.ErrorField(err))
		return err
	}
	table := ds.ColorTable()
	if config.ColorsFile != "" {
		if table, err = colors.Load(config.ColorsFile); err != nil {
			log.Error("could not load color table", log.ErrorField(err))
			return err
		}
	}
	stats := ds.Stats()
	log.Info("Serving session",
		log.String("key", session.Key),
		log.String("name", session.Name),
		log.Int("gridPoints", stats.GridPoints),
		log.Int("events", stats.Events),
		log.Duration("duration", stats.Duration))

	engine := replay.NewEngine(ds.Events)
	comp := replay.NewCompositor(ds.Grid, replay.WithColorTable(table))
	fan := fanout.New(fanout.WithSessionKey(session.Key))
	sinks := []sink.Sink{fan}
	if config.NatsURL != "" {
		nc, ncErr := natsio.Connect(config.NatsURL)
		if ncErr != nil {
			log.Error("could not connect to NATS", log.ErrorField(ncErr))
			return ncErr
		}
		sinks = append(sinks, natssink.NewSink(nc, session.Key))
	}
	out := sink.NewMulti(sinks...)
	runner := replay.NewRunner(engine, comp,
		replay.WithSink(out),
		replay.WithSessionKey(session.Key),
		replay.WithFPS(config.FPS))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		//nolint:errcheck // loop ends with the context
		runner.Run(ctx)
	}()

	mux := http.NewServeMux()
	srv := server.NewServer(
		server.WithRunner(runner),
		server.WithCompositor(comp),
		server.WithFanout(fan),
		server.WithSession(session),
		server.WithStats(&stats),
		server.WithPermissionEvaluator(permission.NewPermissionEvaluator()))
	srv.Register(mux)
	middleware := auth.NewMiddleware(
		auth.WithAdminToken(config.AdminToken),
		auth.WithOperatorToken(config.OperatorToken))
	h2s := &http2.Server{}
	if config.MaxConcurrentStreams > 0 {
		h2s.MaxConcurrentStreams = uint32(config.MaxConcurrentStreams)
	}
	handler := h2c.NewHandler(
		newCORS().Handler(middleware(server.TraceIDMiddleware(mux))), h2s)

	//nolint:gosec // by design
	httpServer := &http.Server{
		Addr:    config.ServerAddr,
		Handler: handler,
	}
	go func() {
		log.Info("Starting HTTP server", log.String("addr", config.ServerAddr))
		if srvErr := httpServer.ListenAndServe(); srvErr != nil &&
			!errors.Is(srvErr, http.ErrServerClosed) {

			log.Error("server could not be started", log.ErrorField(srvErr))
		}
	}()

	var tlsServer *http.Server
	if config.TLSServerAddr != "" {
		if tlsConfig := NewTlsConfigProvider(ctx); tlsConfig != nil {
			//nolint:gosec // by design
			tlsServer = &http.Server{
				Addr:      config.TLSServerAddr,
				Handler:   handler,
				TLSConfig: tlsConfig,
			}
			go func() {
				log.Info("Starting HTTPS server", log.String("addr", config.TLSServerAddr))
				if srvErr := tlsServer.ListenAndServeTLS("", ""); srvErr != nil &&
					!errors.Is(srvErr, http.ErrServerClosed) {

					log.Error("tls server could not be started", log.ErrorField(srvErr))
				}
			}()
		} else {
			log.Warn("TLS listen address set but no certificates available")
		}
	}

	log.Info("Server started")
	setupGoRoutinesDump()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	v := <-sigChan
	log.Debug("Got signal ", log.Any("signal", v))
	cancel()
	//nolint:errcheck // shutting down anyway
	httpServer.Close()
	if tlsServer != nil {
		//nolint:errcheck // shutting down anyway
		tlsServer.Close()
	}
	if closeErr := out.Close(); closeErr != nil {
		log.Warn("error closing sinks", log.ErrorField(closeErr))
	}
	if telemetry != nil {
		telemetry.Shutdown()
	}

	log.Info("Server terminated")
	return nil
}

//nolint:whitespace // can't make both editor and linter happy
func resolveDataset(ctx context.Context, pool *pgxpool.Pool) (
	*dataset.Dataset, *model.Session, error,
) {
	if config.DatasetDir != "" {
		ds, err := dataset.LoadDir(config.DatasetDir)
		if err != nil {
			return nil, nil, err
		}
		key := config.Session
		if key == "" {
			key = filepath.Base(config.DatasetDir)
		}
		return ds, ds.NewSession(key), nil
	}
	if config.Session == "" {
		return nil, nil, errors.New("no session key given (use --session or --dir)")
	}
	return dataset.LoadByKey(ctx, pool, config.Session)
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func waitForRequiredServices() {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}

	wg := sync.WaitGroup{}
	checkTcp := func(addr string) {
		if err = utils.WaitForTCP(addr, timeout); err != nil {
			log.Fatal("required services not ready", log.ErrorField(err))
		}
		wg.Done()
	}

	if postgresAddr := utils.ExtractFromDBURL(config.DB); postgresAddr != "" {
		wg.Add(1)
		go checkTcp(postgresAddr)
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	log.Debug("Required services are available")
}

func newCORS() *cors.Cors {
	// To let web developers play with the demo service from browsers, we need a
	// very permissive CORS setup.
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool {
			// Allow all origins, which effectively disables CORS.
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			// Content-Type is in the default safelist.
			"Accept",
			"Accept-Encoding",
			"Accept-Post",
			"Cache-Control",
			"Content-Encoding",
		},
		// Let browsers cache CORS information for longer, which reduces the number
		// of preflight requests. Any changes to ExposedHeaders won't take effect
		// until the cached data expires. FF caps this value at 24h, and modern
		// Chrome caps it at 2h.
		MaxAge: int(2 * time.Hour / time.Second),
	})
}
