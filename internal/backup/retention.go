package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Info describes one backup file on disk.
type Info struct {
	Path      string
	Size      int64
	AtomCount int
}

// List scans dir for atomloop-backup-* files, newest first. The timestamp
// is embedded in the filename, so name order is age order.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []Info
	for _, e := range entries {
		if e.IsDir() || !isBackupFile(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		info := Info{
			Path: filepath.Join(dir, e.Name()),
			Size: fi.Size(),
		}
		if header, err := ReadHeader(info.Path); err == nil {
			info.AtomCount = header.AtomCount
		}
		backups = append(backups, info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return filepath.Base(backups[i].Path) > filepath.Base(backups[j].Path)
	})
	return backups, nil
}

// Rotate deletes all but the keepN newest backups in dir.
func Rotate(dir string, keepN int) (deleted []string, err error) {
	backups, err := List(dir)
	if err != nil {
		return nil, err
	}
	if keepN < 0 {
		keepN = 0
	}
	if len(backups) <= keepN {
		return nil, nil
	}
	for _, b := range backups[keepN:] {
		if err := os.Remove(b.Path); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", filepath.Base(b.Path), err)
		}
		deleted = append(deleted, b.Path)
	}
	return deleted, nil
}

func isBackupFile(name string) bool {
	return strings.HasPrefix(name, "atomloop-backup-") && strings.HasSuffix(name, ".json.gz")
}
