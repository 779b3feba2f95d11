package config

type MainRepoConfig struct {
	General    GeneralConfig    `yaml:"repo"`
	Storage    StorageConfig    `yaml:"storage"`
	Uploads    UploadsConfig    `yaml:"uploads"`
	Thumbnails ThumbnailsConfig `yaml:"thumbnails"`
	Mirror     MirrorConfig     `yaml:"mirror"`
	RateLimit  RateLimitConfig  `yaml:"rateLimit"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Sentry     SentryConfig     `yaml:"sentry"`
}

func NewDefaultMainConfig() MainRepoConfig {
	return MainRepoConfig{
		General: GeneralConfig{
			BindAddress:     "0.0.0.0",
			Port:            3000,
			LogDirectory:    "-",
			LogColors:       false,
			JsonLogs:        false,
			LogLevel:        "info",
			TrustAnyForward: false,
		},
		Storage: StorageConfig{
			Root:         "uploads",
			ManifestPath: "list.json",
			PublicPrefix: "/packs",
		},
		Uploads: UploadsConfig{
			PackageExtension: ".pck",
			MaxSizeBytes:     104857600, // 100mb
			MaxNameLength:    128,
		},
		Thumbnails: ThumbnailsConfig{
			MaxSourceBytes: 10485760, // 10mb
			MaxPixels:      32000000, // 32M
			MaxWidth:       512,
			MaxHeight:      512,
			NumWorkers:     4,
			Types: []string{
				"image/png",
				"image/jpeg",
				"image/gif",
				"image/webp",
				"image/bmp",
			},
			DefaultPath: "",
		},
		Mirror: MirrorConfig{
			Enabled: false,
			Ssl:     true,
			Prefix:  "packs",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 5,
			BurstCount:        10,
		},
		Metrics: MetricsConfig{
			Enabled:     false,
			BindAddress: "localhost",
			Port:        9000,
		},
		Sentry: SentryConfig{
			Enabled:     false,
			Dsn:         "not supplied",
			Environment: "",
			Debug:       false,
		},
	}
}
