package testing

import (
	"os"
	"path/filepath"
	"runtime"
)

// same as common.EnvKeyLogDir, common's own tests import this package
const envKeyLogDir = "LOG_DIR"

// Importing this package for side effects moves the test process to the
// project root and keeps test logs out of the repo's logs/ dir.
//
//	import (
//	  _ "liyu1981.xyz/iot-anchor-service/pkg/testing"
//	)
func init() {
	_, filename, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(filename), "..", "..")
	if err := os.Chdir(root); err != nil {
		panic(err)
	}

	if _, found := os.LookupEnv(envKeyLogDir); !found {
		if err := os.Setenv(envKeyLogDir, filepath.Join(os.TempDir(), "iot-anchor-test-logs")); err != nil {
			panic(err)
		}
	}
}
