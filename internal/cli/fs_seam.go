package cli

import (
	"io"
	"os"
)

var osWriteFile = func(path string, b []byte, perm uint32) error {
	return os.WriteFile(path, b, os.FileMode(perm))
}

var stdin io.Reader = os.Stdin

func writeFile(path string, b []byte, perm uint32) error {
	return osWriteFile(path, b, perm)
}

// readInput reads path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
