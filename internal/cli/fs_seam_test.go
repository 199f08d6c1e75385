package cli

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestWriteFile_DefaultWritesWithPerm(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")

	if err := writeFile(p, []byte("log_level: info\n"), 0o600); err != nil {
		t.Fatalf("writeFile error: %v", err)
	}
	got, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "log_level: info\n" {
		t.Fatalf("content = %q", string(got))
	}

	// Windows does not reliably enforce POSIX perms
	if runtime.GOOS != "windows" {
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if st.Mode().Perm() != 0o600 {
			t.Fatalf("perm = %v, want 0600", st.Mode().Perm())
		}
	}
}

func TestReadInput(t *testing.T) {
	old := stdin
	t.Cleanup(func() { stdin = old })
	stdin = strings.NewReader(`{"client_id":"abc"}`)

	b, err := readInput("-")
	if err != nil {
		t.Fatalf("stdin: %v", err)
	}
	if string(b) != `{"client_id":"abc"}` {
		t.Fatalf("stdin content = %q", string(b))
	}

	if _, err := readInput(filepath.Join(t.TempDir(), "missing.json")); !os.IsNotExist(err) {
		t.Fatalf("want not-exist error, got %v", err)
	}
}
