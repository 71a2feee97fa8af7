// Package rolodex holds build metadata for the rolodex binaries.
package rolodex

// Version is overridden at build time with -ldflags "-X".
var Version = "0.1.0"
