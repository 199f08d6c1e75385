package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/TwigBush/kmpolicy/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
	GoVersion = ""
)

const name = "kmpolicy"

type Info struct {
	Name      string `json:"name" yaml:"name"`
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"gitCommit" yaml:"gitCommit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
}

func Get() Info {
	gv := GoVersion
	if gv == "" {
		gv = runtime.Version()
	}
	return Info{
		Name:      name,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: gv,
	}
}

func String() string {
	return fmt.Sprintf("%s %s", name, Version)
}

func Verbose() string {
	i := Get()
	return fmt.Sprintf("%s %s (commit: %s, built: %s, go: %s)",
		i.Name, i.Version, i.GitCommit, i.BuildDate, i.GoVersion)
}
