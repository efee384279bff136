package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                   string // connection string for the database
	WaitForServices      string // duration to wait for other services to be ready
	LogLevel             string // sets the log level (zap log level values)
	SQLLogLevel          string // sets the log level for sql subsystem
	LogFormat            string // text vs json
	LogConfig            string // path to log config file
	MigrationSourceURL   string // location of migration files
	EnableTelemetry      bool   // enable telemetry
	TelemetryEndpoint    string // endpoint for telemetry
	ProfilingPort        int    // port for profiling
	ServerAddr           string // listen addr for the HTTP server (insecure)
	TLSServerAddr        string // listen addr for the HTTP server (tls)
	TLSCertFile          string // path to TLS certificate
	TLSKeyFile           string // path to TLS key
	TLSCAFile            string // path to TLS CA
	TraefikCerts         string // path to traefik certs file
	TraefikCertDomain    string // the domain to lookup within the traefik certs
	OperatorToken        string // token for playback control access
	AdminToken           string // token for admin access
	Session              string // key of the session to serve
	DatasetDir           string // directory containing dataset csv files
	ColorsFile           string // path to a color table file (overrides defaults)
	NatsURL              string // url of the NATS server used for frame fanout
	FPS                  int    // frames per second for the playback loop
	MaxConcurrentStreams int    // max number of concurrent streams per connection
)
