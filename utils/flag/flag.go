/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
)

const (
	APIServer = "api_server"
)

var (
	IsDevelopment bool
	ServiceName   string
	ByPassAuth    bool
)

func init() {
	flag.BoolVar(&IsDevelopment, "dev", true, "set to true if the current run is for development. default value is true")
	flag.StringVar(&ServiceName, "service", APIServer, "name reported to logging and tracing")
	flag.BoolVar(&ByPassAuth, "no_auth", false, "skip session resolution, every request is anonymous. local debugging only")
}

// ParseFlags parses the command line. Only entry points call it; parsing in
// init would swallow the flags the go test binary registers for itself.
func ParseFlags() {
	if !flag.Parsed() {
		flag.Parse()
	}
}
