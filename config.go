package waitforit

import (
	"cmp"
	"maps"

	"github.com/giantswarm/waitforit/internal/core"
)

// resolveConfig applies opts and resolves every setting: explicit option
// first, then the DefaultsProvider, then the package defaults. The result is
// not validated.
func resolveConfig(command string, opts []Option) core.SessionConfig {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var d Defaults
	if o.defaults != nil {
		d = o.defaults.SessionDefaults()
	}

	ready := o.ready
	if ready.IsZero() {
		ready = d.ReadyPattern
	}

	env := o.env
	if env == nil {
		env = d.Env
	}

	return core.SessionConfig{
		Command:      command,
		ReadyPattern: ready.m,
		ReadyText:    ready.text,
		Timeout:      cmp.Or(o.timeout, d.Timeout, DefaultTimeout),
		Redirection:  cmp.Or(o.redirection, d.Redirection, DefaultRedirection),
		Shell:        cmp.Or(o.shell, d.Shell, DefaultShell),
		Env:          maps.Clone(env),
		PortEnv:      o.portEnv,
		LogDir:       cmp.Or(o.logDir, d.LogDir),
		LogArchive:   o.logArchive,
		LockFile:     o.lockFile,
		FailOnExit:   o.failOnExit,
		StopTimeout:  cmp.Or(o.stopTimeout, DefaultStopTimeout),
		Logger:       o.logger,
		Metrics:      o.metrics,
	}
}
