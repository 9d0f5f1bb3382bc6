package ingest

import "fmt"

// Stage names the step of a sync run that failed.
type Stage string

const (
	StageRead   Stage = "read"
	StageUpsert Stage = "upsert"
)

// RunError reports a fatal failure while processing one tab. The whole
// run fails; earlier tabs may already be committed.
type RunError struct {
	Stage Stage
	Tab   string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Tab, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// ConfigError reports a missing or unusable setting detected before any
// remote call is made.
type ConfigError struct {
	Setting string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s not configured: %v", e.Setting, e.Err)
	}
	return e.Setting + " not configured"
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
