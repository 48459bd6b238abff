// ==================================
// File: internal/logger/config.go
// ==================================
package logger

type Config struct {
	LogFile     string
	MaxSize     int  // megabytes
	MaxAge      int  // days
	MaxBackups  int  // rotated files kept
	Compress    bool // gzip rotated files
	Development bool
}

// DefaultConfig returns the rotation settings used by the launcher.
func DefaultConfig() *Config {
	return &Config{
		LogFile:     "launcher.log",
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: false,
	}
}
