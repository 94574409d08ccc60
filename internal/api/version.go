package api

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// BuildInfo is the build metadata stamped into the binary via ldflags.
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
}

// withDefaults fills unset fields so responses never carry empty strings.
func (b BuildInfo) withDefaults() BuildInfo {
	if b.Version == "" {
		b.Version = "dev"
	}
	if b.GitCommit == "" {
		b.GitCommit = "unknown"
	}
	if b.BuildDate == "" {
		b.BuildDate = "unknown"
	}
	return b
}

type versionResponse struct {
	BuildInfo
	GoVersion string `json:"go_version"`
}

// VersionHandler serves the build metadata and the Go runtime version.
func VersionHandler(info BuildInfo) http.Handler {
	body, _ := json.Marshal(versionResponse{
		BuildInfo: info.withDefaults(),
		GoVersion: runtime.Version(),
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})
}
