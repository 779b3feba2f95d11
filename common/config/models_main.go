package config

type GeneralConfig struct {
	BindAddress     string `yaml:"bindAddress"`
	Port            int    `yaml:"port"`
	LogDirectory    string `yaml:"logDirectory"`
	LogColors       bool   `yaml:"logColors"`
	JsonLogs        bool   `yaml:"jsonLogs"`
	LogLevel        string `yaml:"logLevel"`
	TrustAnyForward bool   `yaml:"trustAnyForwardedAddress"`
}

type StorageConfig struct {
	// Root holds one directory per bundle.
	Root string `yaml:"root"`
	// ManifestPath is where the generated listing is written.
	ManifestPath string `yaml:"manifestPath"`
	// PublicPrefix is the URL prefix bundle files are served under.
	PublicPrefix string `yaml:"publicPrefix"`
}

type UploadsConfig struct {
	PackageExtension string `yaml:"packageExtension"`
	MaxSizeBytes     int64  `yaml:"maxSizeBytes"`
	MaxNameLength    int    `yaml:"maxNameLength"`
}

type ThumbnailsConfig struct {
	MaxSourceBytes int64    `yaml:"maxSourceBytes"`
	MaxPixels      int64    `yaml:"maxPixels"`
	MaxWidth       int      `yaml:"maxWidth"`
	MaxHeight      int      `yaml:"maxHeight"`
	NumWorkers     int      `yaml:"numWorkers"`
	Types          []string `yaml:"types,flow"`
	DefaultPath    string   `yaml:"defaultPath"`
}

type MirrorConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Endpoint     string `yaml:"endpoint"`
	BucketName   string `yaml:"bucketName"`
	AccessKeyId  string `yaml:"accessKeyId"`
	AccessSecret string `yaml:"accessSecret"`
	Region       string `yaml:"region"`
	Ssl          bool   `yaml:"ssl"`
	Prefix       string `yaml:"prefix"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Enabled           bool    `yaml:"enabled"`
	BurstCount        int     `yaml:"burst"`
}

type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BindAddress string `yaml:"bindAddress"`
	Port        int    `yaml:"port"`
}

type SentryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Dsn         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
	Debug       bool   `yaml:"debug"`
}
