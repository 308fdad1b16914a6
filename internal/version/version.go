package version

// Version is set at build time via ldflags:
//
//	go build -ldflags="-X gamepanel/internal/version.Version=X.Y.Z" ./cmd/gamepanel
//
// When unset (dev builds), defaults to "dev".
var Version = "dev"
