package indexer

// ScanDir is one directory of the scan tree. The root carries an empty Name.
type ScanDir struct {
	Name  string
	Mtime int64
	Dirs  []*ScanDir
	Files []ScanFile
}

// ScanFile is a media file found by the scanner.
type ScanFile struct {
	Name  string
	Mtime int64
}

// Entry is one file of a generation request. Timestamp and Thumb are filled
// in by the worker pool; Updated marks files whose row already exists.
type Entry struct {
	Name      string
	Mtime     int64
	Timestamp int64
	Thumb     []byte
	Updated   bool
}

// Request is the unit of work handed from the indexer to the worker pool and
// from the pool to the writer: the new and updated files of one directory.
type Request struct {
	Dir     string
	Entries []Entry
}
