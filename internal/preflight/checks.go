package preflight

import (
	"archive/zip"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"mcexport/internal/config"
	"mcexport/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckAddonArchive verifies the configured add-on archive is a readable zip
// that carries an __init__.py.
func CheckAddonArchive(path string) Result {
	const name = "Add-on archive"

	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Passed: true, Detail: "not configured (using installed add-on)"}
	}
	reader, err := zip.OpenReader(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer reader.Close()
	for _, f := range reader.File {
		if strings.HasSuffix(f.Name, "/__init__.py") {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", path, len(reader.File))}
		}
	}
	return Result{Name: name, Detail: fmt.Sprintf("%s (error: no __init__.py in archive)", path)}
}

// CheckNtfy verifies the ntfy server behind topicURL answers its health endpoint.
func CheckNtfy(ctx context.Context, topicURL string) Result {
	const name = "ntfy"

	topicURL = strings.TrimSpace(topicURL)
	if topicURL == "" {
		return Result{Name: name, Detail: "missing topic"}
	}
	parsed, err := url.Parse(topicURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("invalid topic url %q", topicURL)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health := url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: "/v1/health"}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, health.String(), nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%d)", resp.StatusCode)}
	}
}

// CheckSystemDeps evaluates the external binaries for the given config. Both
// the workflow manager and the CLI use it so the requirement list lives in
// one place.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "Blender",
			Command:     cfg.Blender.Binary,
			Description: "Required for headless rendering",
		},
	}
	return deps.CheckBinaries(requirements)
}
