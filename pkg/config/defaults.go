package config

// File lookup and environment.
const (
	// ConfigName is the config file base name searched without an explicit path.
	ConfigName = "sorttrace"
	// EnvPrefix prefixes every environment override, e.g. SORTTRACE_SERVER_PORT.
	EnvPrefix = "SORTTRACE"
)

// Trace defaults.
const (
	DefaultAlgorithm = "merge-sort"
	DefaultFormat    = "json"
	DefaultCacheSize = 128
)

// Generator defaults not owned by the generate package.
const (
	DefaultSeed = 1
)

// Server defaults.
const (
	DefaultHost       = "127.0.0.1"
	DefaultPort       = 8080
	DefaultSendBuffer = 64
)

// Formats lists the accepted values for trace.format.
var Formats = []string{"json", "yaml", "text", "plot", "dump", "bin"}
