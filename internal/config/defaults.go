package config

const (
	defaultDataDir               = "~/.local/share/ludex"
	defaultLogDir                = "~/.local/share/ludex/logs"
	defaultCatalogPageSize       = 50
	defaultCatalogRequestTimeout = 10
	defaultAuditMaxParallelism   = 4
	defaultGateTimeoutSeconds    = 10
	defaultGateWarnMillis        = 500
	defaultStaleThresholdHours   = 2
	defaultLogLevel              = "info"
	defaultLogFormat             = "console"

	databaseFileName       = "linkstate.db"
	legacyDatabaseFileName = "installstate.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Catalog: Catalog{
			PageSize:       defaultCatalogPageSize,
			RequestTimeout: defaultCatalogRequestTimeout,
		},
		Matching: Matching{
			ContentHashing: true,
		},
		Audit: Audit{
			MaxParallelism:     defaultAuditMaxParallelism,
			RematchMissingID:   true,
			RevalidateExisting: false,
		},
		Store: Store{
			GateTimeoutSeconds:  defaultGateTimeoutSeconds,
			GateWarnMillis:      defaultGateWarnMillis,
			StaleThresholdHours: defaultStaleThresholdHours,
		},
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}
