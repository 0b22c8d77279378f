package types

// Version is the build version of gitflow-release, overridden by ldflags at release time.
var Version = "dev"
