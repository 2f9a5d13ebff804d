// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, empty title, unknown id).
	UserError = 1

	// ConfigError indicates config.toml or the config directory is unusable.
	ConfigError = 2

	// StorageError indicates the task document could not be saved.
	StorageError = 3
)
