package config

const (
	defaultDataDir            = "~/.local/share/folio"
	defaultLogDir             = "~/.local/share/folio/logs"
	defaultCoverDir           = "~/.local/share/folio/covers"
	defaultSecretPath         = "~/.config/folio/access.key"
	defaultAPIBind            = "127.0.0.1:7610"
	defaultInitialPages       = 3
	defaultProgressDebounceMS = 500
	defaultOrientation        = OrientationNone
	defaultSessionIdleTimeout = 1800
	defaultLeaseMinutes       = 240
	defaultCoverWidth         = 320
	defaultCoverQuality       = 85
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
)

// Orientation correction modes for rendered document pages.
const (
	OrientationNone          = "none"
	OrientationFlipLandscape = "flip-landscape"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			CoverDir: defaultCoverDir,
			APIBind:  defaultAPIBind,
		},
		Reader: Reader{
			InitialPages:       defaultInitialPages,
			ProgressDebounceMS: defaultProgressDebounceMS,
			Orientation:        defaultOrientation,
			SessionIdleTimeout: defaultSessionIdleTimeout,
		},
		Access: Access{
			SecretPath:   defaultSecretPath,
			LeaseMinutes: defaultLeaseMinutes,
		},
		Library: Library{
			CoverWidth:   defaultCoverWidth,
			CoverQuality: defaultCoverQuality,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
