// Package buildinfo holds the module's own version string, printed by each
// CLI tool's --version flag.
package buildinfo

// Version is the cardutil module version.
const Version = "0.1.0"
