package config

const (
	defaultLogDir          = "~/.local/share/kirei/logs"
	defaultMonitorFolder   = "~/Downloads"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultSettleDelayMS   = 500
	defaultSeiriDays       = 30
	defaultTimeUnit        = "hours"
	defaultInitialDelay    = 1
	defaultSeiriPeriod     = 24
	defaultSeisoPeriod     = 12
	defaultDuplicatePeriod = 24
	defaultKeepStrategy    = "NEWEST"
	defaultMinFileSize     = 1
	defaultLogRetention    = 14
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:         defaultLogDir,
			MonitorFolders: []string{defaultMonitorFolder},
		},
		Seiton: Seiton{
			Enabled:       true,
			SettleDelayMS: defaultSettleDelayMS,
		},
		Seiri: Seiri{
			Schedule: Schedule{
				InitialDelay: defaultInitialDelay,
				Period:       defaultSeiriPeriod,
				TimeUnit:     defaultTimeUnit,
			},
			Days: defaultSeiriDays,
		},
		Seiso: Seiso{
			Schedule: Schedule{
				InitialDelay: defaultInitialDelay,
				Period:       defaultSeisoPeriod,
				TimeUnit:     defaultTimeUnit,
			},
		},
		Duplicates: Duplicates{
			Schedule: Schedule{
				InitialDelay: defaultInitialDelay,
				Period:       defaultDuplicatePeriod,
				TimeUnit:     defaultTimeUnit,
			},
			MinFileSizeBytes: defaultMinFileSize,
			KeepStrategy:     defaultKeepStrategy,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetention,
		},
	}
}
