package bindgen

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestGenerate_ExportsWithCgo generates the counter bindings into a package
// inside this module, adds the native implementation and a C caller from
// testdata/counterglue, and runs that package's tests, which call every
// export through the generated header.
func TestGenerate_ExportsWithCgo(t *testing.T) {
	if testing.Short() {
		t.Skip("builds a cgo package")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go command not found")
	}
	env, err := exec.Command(goBin, "env", "CGO_ENABLED", "CC").Output()
	if err != nil {
		t.Skipf("go env: %v", err)
	}
	fields := strings.Fields(string(env))
	if len(fields) < 2 || fields[0] != "1" {
		t.Skip("cgo is disabled")
	}
	if _, err := exec.LookPath(fields[1]); err != nil {
		t.Skipf("C compiler %q not found", fields[1])
	}

	dir, err := os.MkdirTemp(".", "cgo-counter-")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	for name, body := range generateCounter(t).Files() {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), body, 0o644))
	}
	fixtures, err := filepath.Glob(filepath.Join("testdata", "counterglue", "*.go"))
	require.NoError(t, err)
	require.NotEmpty(t, fixtures)
	for _, src := range fixtures {
		body, err := os.ReadFile(src)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.Base(src)), body, 0o644))
	}

	cmd := exec.Command(goBin, "test", "-count=1", "./"+filepath.Base(dir))
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "generated package failed:\n%s", out)
}
