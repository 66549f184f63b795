// Package testing switches the binary into test mode for any package that
// blank-imports it.
package testing

import (
	"os"
	"sync"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("STOREFRONT_TEST_MODE", "1")
		if os.Getenv("SESSION_SECRET") == "" {
			_ = os.Setenv("SESSION_SECRET", "test-session-secret")
		}
	})
}

func init() {
	ensureTestMode()
}
