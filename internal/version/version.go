package version

// Version is the single source of truth for the release number.
const Version = "1.0.0"

// Build information, set through ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the release number.
func GetVersion() string {
	return Version
}

// GetBuildTime returns the build timestamp.
func GetBuildTime() string {
	return BuildTime
}
