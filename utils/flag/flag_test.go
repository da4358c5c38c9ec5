package flag

import (
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// The go test binary registers its own -test.* flags after package init.
// Parsing the command line during init would reject them before a single
// test runs, so registration and parsing must stay separate.
func TestMain(m *testing.M) {
	if flag.Parsed() {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func TestSharedFlagDefaults(t *testing.T) {
	require.True(t, IsDevelopment)
	require.Equal(t, APIServer, ServiceName)
	require.False(t, ByPassAuth)
}
