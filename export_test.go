package waitforit

import "time"

// ConfigSnapshot holds the resolved settings of a session for test
// assertions, without starting anything.
type ConfigSnapshot struct {
	ReadyText   string
	HasReady    bool
	Timeout     time.Duration
	Redirection string
	Shell       string
	Env         map[string]string
	PortEnv     []string
	LogDir      string
	LogArchive  string
	LockFile    string
	FailOnExit  bool
	StopTimeout time.Duration
}

// ResolveForTesting applies opts the way New does and returns the result.
func ResolveForTesting(command string, opts ...Option) ConfigSnapshot {
	cfg := resolveConfig(command, opts)
	return ConfigSnapshot{
		ReadyText:   cfg.ReadyText,
		HasReady:    cfg.ReadyPattern != nil,
		Timeout:     cfg.Timeout,
		Redirection: cfg.Redirection,
		Shell:       cfg.Shell,
		Env:         cfg.Env,
		PortEnv:     cfg.PortEnv,
		LogDir:      cfg.LogDir,
		LogArchive:  cfg.LogArchive,
		LockFile:    cfg.LockFile,
		FailOnExit:  cfg.FailOnExit,
		StopTimeout: cfg.StopTimeout,
	}
}
