package indexer

import "sort"

// Diff classifies scanned names against persisted ones. Name lists are
// sorted so results are deterministic.
type Diff struct {
	New       []string
	Updated   []string
	Deleted   []string
	Unchanged int
}

// Compare diffs a scanned name to mtime map against the persisted one.
// A name present in both is updated only if the mtimes differ.
func Compare(scan, persisted map[string]int64) Diff {
	var d Diff
	for name, mtime := range scan {
		old, ok := persisted[name]
		switch {
		case !ok:
			d.New = append(d.New, name)
		case old != mtime:
			d.Updated = append(d.Updated, name)
		default:
			d.Unchanged++
		}
	}
	for name := range persisted {
		if _, ok := scan[name]; !ok {
			d.Deleted = append(d.Deleted, name)
		}
	}
	sort.Strings(d.New)
	sort.Strings(d.Updated)
	sort.Strings(d.Deleted)
	return d
}

func folderMtimes(dirs []*ScanDir) map[string]int64 {
	m := make(map[string]int64, len(dirs))
	for _, d := range dirs {
		m[d.Name] = d.Mtime
	}
	return m
}

func fileMtimes(files []ScanFile) map[string]int64 {
	m := make(map[string]int64, len(files))
	for _, f := range files {
		m[f.Name] = f.Mtime
	}
	return m
}
