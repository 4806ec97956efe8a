package flag

import (
	"io"
	"net"
	"time"

	"github.com/gi8lino/tilecarto/internal/logging"
	"github.com/gi8lino/tilecarto/internal/utils"

	"github.com/containeroo/tinyflags"
)

// DefaultFormat renders one resolved source per line.
const DefaultFormat = "{{ .Name }}\t{{ .Template }}"

// Config aggregates CLI flags after parsing.
type Config struct {
	Config string // Path to the optional config file

	// Account defaults, also read from CARTODB_USERNAME, CARTODB_API_KEY and CARTODB_HOSTNAME.
	Username string
	APIKey   string
	Hostname string
	APIURL   string // Overrides the named-map API root

	DisableFileMode bool          // Rejects cartodb+file connection strings
	Timeout         time.Duration // Upstream request timeout; 0 uses the config file or the default
	SkipTLSVerify   bool

	Serve       bool   // Run the HTTP server instead of resolving once
	ListenAddr  string // HTTP bind address (e.g. ":8080")
	RoutePrefix string // Canonical path prefix ("" or "/tilecarto")

	Format    string            // Output template in CLI mode
	Debug     bool              // Enables debug logging
	LogFormat logging.LogFormat // Log output format (text or json)

	URIs []string // Positional connection strings
}

// ParseArgs parses CLI args into Config.
func ParseArgs(version string, args []string, out io.Writer, getEnv func(string) string) (Config, error) {
	var cfg Config
	tf := tinyflags.NewFlagSet("tilecarto", tinyflags.ContinueOnError)
	tf.Version(version)
	tf.SetGetEnvFn(getEnv)
	tf.EnvPrefix("CARTODB")
	tf.SetOutput(out)

	tf.StringVar(&cfg.Config, "config", "", "Path to config file").Short("c").Placeholder("FILE").Value()

	// Account
	tf.StringVar(&cfg.Username, "username", "", "Default CARTO username").Placeholder("USER").Value()
	tf.StringVar(&cfg.APIKey, "api-key", "", "Default CARTO API key").Placeholder("KEY").Value()
	tf.StringVar(&cfg.Hostname, "hostname", "", "Default CARTO hostname (default cartodb.com)").Placeholder("HOST").Value()
	tf.StringVar(&cfg.APIURL, "api-url", "", "Override the named-map API root (e.g. a proxy)").Placeholder("URL").Value()

	// Resolution
	tf.BoolVar(&cfg.DisableFileMode, "disable-file-mode", false, "Reject cartodb+file connection strings").Value()
	timeout := tf.Duration("timeout", 0, "Upstream request timeout (0 = config file or 15s)").Value()
	tf.BoolVar(&cfg.SkipTLSVerify, "skip-tls-verify", false, "Skip TLS verification of the CARTO API").Value()

	// Server
	tf.BoolVar(&cfg.Serve, "serve", false, "Serve resolved sources over HTTP").Value()
	listenAddr := tf.TCPAddr("listen-address", &net.TCPAddr{IP: nil, Port: 8080}, "HTTP server listen address").
		Placeholder("ADDR:PORT").
		Value()
	route := tf.String("route-prefix", "", "Path prefix to mount the app (e.g., /tilecarto). Empty = root.").
		Finalize(func(input string) string {
			return utils.NormalizeRoutePrefix(input) // canonical "" or "/tilecarto"
		}).
		Placeholder("PATH").
		Value()

	// Output
	tf.StringVar(&cfg.Format, "format", DefaultFormat, "Output template (text/template with sprig functions)").Short("f").Value()

	// Logging
	tf.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging").Value()
	logFormat := tf.String("log-format", "text", "Log format").Choices("text", "json").Short("l").Value()

	if err := tf.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.LogFormat = logging.LogFormat(*logFormat)
	cfg.ListenAddr = (*listenAddr).String()
	cfg.RoutePrefix = *route
	cfg.Timeout = *timeout
	cfg.URIs = tf.Args()

	return cfg, nil
}
