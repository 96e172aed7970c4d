// Package fs inspects face files on disk without decoding them.
package fs

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/zerr"
)

// Report describes the faces of one environment.
type Report struct {
	Key string
	// Local and Remote count the faces read from disk and over HTTP.
	Local  int
	Remote int
	// Missing lists local faces that do not exist.
	Missing []string
	// Digest is the xxhash over every local face, set only when no local
	// face is missing.
	Digest string
}

// OK reports whether every local face exists.
func (r Report) OK() bool {
	return len(r.Missing) == 0
}

// Inspector checks environment definitions against the filesystem.
type Inspector struct{}

// NewInspector creates a new Inspector.
func NewInspector() *Inspector {
	return &Inspector{}
}

// Inspect verifies that the local faces of def exist and hashes their content.
func (i *Inspector) Inspect(def domain.ResourceDefinition) (Report, error) {
	report := Report{Key: def.Key}
	paths := make([]string, 0, len(def.Locations))

	for _, loc := range def.Locations {
		path, remote := localPath(loc)
		if remote {
			report.Remote++
			continue
		}
		report.Local++

		exists, err := fileExists(path)
		if err != nil {
			return report, zerr.With(err, "key", def.Key)
		}
		if !exists {
			report.Missing = append(report.Missing, path)
			continue
		}
		paths = append(paths, path)
	}

	if report.OK() && len(paths) > 0 {
		digest, err := digestFiles(paths)
		if err != nil {
			return report, zerr.With(err, "key", def.Key)
		}
		report.Digest = digest
	}
	return report, nil
}

// localPath returns the filesystem path of loc, or remote=true for locations
// that are not on disk.
func localPath(loc string) (string, bool) {
	if !strings.Contains(loc, "://") {
		return loc, false
	}
	u, err := url.Parse(loc)
	if err != nil || u.Scheme != "file" {
		return "", true
	}
	return u.Path, false
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return false, nil
		}
		return false, zerr.With(zerr.Wrap(err, "failed to stat face"), "path", path)
	}
	if info.IsDir() {
		return false, zerr.With(zerr.New("face is a directory"), "path", path)
	}
	return true, nil
}

// digestFiles hashes the content of paths in order, separated by a zero byte.
func digestFiles(paths []string) (string, error) {
	hasher := xxhash.New()
	for _, path := range paths {
		if err := hashFile(path, hasher); err != nil {
			return "", err
		}
		_, _ = hasher.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

func hashFile(path string, w io.Writer) error {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	if _, err := io.Copy(w, f); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}
	return nil
}
