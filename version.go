// Package ollamaagent provides the version information for the repair agent.
package ollamaagent

// Version is the current version of the repair agent.
const Version = "0.2.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
