package main

import (
	"archive/zip"
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"osumap/dotosu"
	"osumap/logging"
)

// source is one .osu document. Entries of an archive are named
// "<archive>/<entry>".
type source struct {
	path string
	data []byte
}

type decoded struct {
	Path     string
	Checksum string
	Beatmap  *dotosu.Beatmap
	Err      error
}

func checksum(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// CollectSources expands files, .osz archives and directories into .osu
// documents. Directories are walked and their matches sorted.
func CollectSources(paths []string) ([]source, error) {
	var out []source
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			srcs, err := openSource(p)
			if err != nil {
				return nil, err
			}
			out = append(out, srcs...)
			continue
		}

		var found []string
		if err := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logging.Warn("skipping unreadable path", "path", path, "err", err)
				return nil
			}
			if !d.IsDir() && isMapFile(d.Name()) {
				found = append(found, path)
			}
			return nil
		}); err != nil {
			return nil, err
		}
		sort.Strings(found)
		for _, f := range found {
			srcs, err := openSource(f)
			if err != nil {
				return nil, err
			}
			out = append(out, srcs...)
		}
	}
	return out, nil
}

func isMapFile(name string) bool {
	ext := filepath.Ext(name)
	return strings.EqualFold(ext, ".osu") || strings.EqualFold(ext, ".osz")
}

func openSource(path string) ([]source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(filepath.Ext(path), ".osz") {
		return []source{{path: path, data: data}}, nil
	}
	return openArchive(path, data)
}

// openArchive treats an .osz as a zip and returns its top-level .osu entries
// in name order.
func openArchive(path string, data []byte) ([]source, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open osz %s: %w", path, err)
	}

	var out []source
	for _, file := range zipReader.File {
		if !strings.EqualFold(filepath.Ext(file.Name), ".osu") {
			continue
		}
		if file.FileInfo().IsDir() || strings.ContainsAny(file.Name, `/\`) {
			logging.Warn("skipping nested archive entry", "archive", path, "entry", file.Name)
			continue
		}
		contents, err := readEntry(file)
		if err != nil {
			return nil, fmt.Errorf("read %s in %s: %w", file.Name, path, err)
		}
		out = append(out, source{path: path + "/" + file.Name, data: contents})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no .osu files in %s", path)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out, nil
}

func readEntry(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// DecodeAll decodes every source on at most workers goroutines. Results keep
// the order of srcs. A nil w discards decoder warnings. Maps that decode but
// fail Validate are failures when strict is set and are only logged otherwise.
func DecodeAll(srcs []source, workers int, w dotosu.Warner, strict bool) []decoded {
	results := make([]decoded, len(srcs))
	RunEach(len(srcs), workers, func(i int) {
		src := srcs[i]
		var opts []dotosu.Option
		if w != nil {
			opts = append(opts, dotosu.WithWarner(dotosu.WarnerFunc(func(msg string, args ...any) {
				w.Warn(msg, append([]any{"path", src.path}, args...)...)
			})))
		}
		bm, err := dotosu.Decode(bytes.NewReader(src.data), opts...)
		if err == nil {
			if verr := bm.Validate(); verr != nil {
				if strict {
					bm, err = nil, verr
				} else {
					logging.Warn("incomplete map", "path", src.path, "err", verr)
				}
			}
		}
		results[i] = decoded{
			Path:     src.path,
			Checksum: checksum(src.data),
			Beatmap:  bm,
			Err:      err,
		}
	})
	return results
}

// Split separates decoded maps from failures. The error names the first
// failure and wraps it.
func Split(results []decoded) ([]decoded, error) {
	ok := make([]decoded, 0, len(results))
	var firstErr error
	var firstErrPath string
	for _, r := range results {
		if r.Err != nil {
			if firstErr == nil {
				firstErr = r.Err
				firstErrPath = r.Path
			}
			continue
		}
		ok = append(ok, r)
	}
	if firstErr != nil {
		return ok, fmt.Errorf("decoded %d/%d .osu files; first failure %s: %w", len(ok), len(results), firstErrPath, firstErr)
	}
	return ok, nil
}
