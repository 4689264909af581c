// Package exitcode holds the process exit codes of assetgen. Each code names
// the stage of a run that failed, so scripts and CI can react without parsing
// log output.
package exitcode

const (
	// Success: the manifest was written, or was already up to date.
	Success = 0
	// GeneralError covers anything without a dedicated code, including a
	// manifest locked by a concurrent run.
	GeneralError = 1
	// ConfigError: the config file failed its schema, a flag value was
	// rejected, or one extension was listed under two categories.
	ConfigError = 2
	// ValidationError: a manifest failed the manifest schema, could not be
	// decoded, or was out of date under --check.
	ValidationError = 3
	// FileSystemError: the asset root was missing, a file was not found, or
	// the manifest could not be written.
	FileSystemError = 4
	// PermissionError: the asset tree or the manifest was not accessible.
	PermissionError = 6
	// UnsupportedFormat: the manifest shape could not be resolved from the
	// format setting or the output extension.
	UnsupportedFormat = 8
)

// String describes a code in the terms of a generation run.
func String(code int) string {
	switch code {
	case Success:
		return "ok"
	case GeneralError:
		return "run failed"
	case ConfigError:
		return "invalid configuration"
	case ValidationError:
		return "manifest invalid or out of date"
	case FileSystemError:
		return "asset root or manifest file unavailable"
	case PermissionError:
		return "permission denied"
	case UnsupportedFormat:
		return "unsupported manifest format"
	default:
		return "unknown exit code"
	}
}
