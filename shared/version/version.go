package version

import (
	"runtime"
)

// Version contains the go-xdp version number.
var Version = "0.1.0"

// UserAgent contains a string suitable to identify this library version.
var UserAgent = getUserAgent()

func getUserAgent() string {
	return "go-xdp " + Version + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
