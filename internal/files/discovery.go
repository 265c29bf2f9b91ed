// Package files discovers the sensor export families inside one working
// directory. Discovery is by filename glob and is never recursive.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pasc/pkg/contracts/domain"
)

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery over one working directory.
type Discovery struct {
	dir string
}

// NewDiscovery creates a discovery instance rooted at the working directory.
func NewDiscovery(dir string) *Discovery {
	return &Discovery{dir: dir}
}

// Dir returns the working directory.
func (d *Discovery) Dir() string { return d.dir }

// kindPatterns maps each export family to its discovery glob.
var kindPatterns = map[domain.Kind]string{
	domain.PrimaryA:   "*Primary*_a.csv",
	domain.PrimaryB:   "*Primary*_b.csv",
	domain.SecondaryA: "*Secondary*_a.csv",
	domain.SecondaryB: "*Secondary*_b.csv",
}

// FindKindFiles finds every export file of one kind, sorted by name so a
// run is independent of directory iteration order.
func (d *Discovery) FindKindFiles(kind domain.Kind) ([]FileInfo, error) {
	pattern, ok := kindPatterns[kind]
	if !ok {
		return nil, fmt.Errorf("no discovery pattern for kind %s", kind)
	}
	return d.FindByPattern(pattern)
}

// FindReferenceFiles finds every regulatory reference export.
func (d *Discovery) FindReferenceFiles() ([]FileInfo, error) {
	return d.FindByPattern("*REF*.csv")
}

// HasDarkskyWind reports whether the pre-merged darksky wind file exists.
func (d *Discovery) HasDarkskyWind() bool {
	info, err := os.Stat(filepath.Join(d.dir, "DSKY_station_merged.csv"))
	return err == nil && !info.IsDir()
}

// FindByPattern finds files matching a glob pattern within the working
// directory, sorted by name.
func (d *Discovery) FindByPattern(pattern string) ([]FileInfo, error) {
	matches, err := filepath.Glob(filepath.Join(d.dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Path:    match,
			Name:    filepath.Base(match),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Paths extracts the path list from discovered files.
func Paths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

// TotalSize sums the byte sizes of the given files, for log output.
func TotalSize(files []FileInfo) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}

// ExistingOutputs lists which of the given output filenames already exist
// in the working directory, so the caller can warn before overwriting.
func (d *Discovery) ExistingOutputs(names []string) []FileInfo {
	var out []FileInfo
	for _, name := range names {
		path := filepath.Join(d.dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		out = append(out, FileInfo{
			Path:    path,
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return out
}

// GroupReferenceByStation splits reference files into per-station groups
// keyed by the filename stem up to the first underscore, upper-cased,
// preserving name order inside each group.
func GroupReferenceByStation(refs []FileInfo) map[string][]FileInfo {
	groups := make(map[string][]FileInfo)
	for _, f := range refs {
		stem := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
		if i := strings.Index(stem, "_"); i > 0 {
			stem = stem[:i]
		}
		key := strings.ToUpper(strings.TrimSpace(stem))
		groups[key] = append(groups[key], f)
	}
	return groups
}
