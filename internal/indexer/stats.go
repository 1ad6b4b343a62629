package indexer

import (
	"sync"
	"time"

	"gallery/internal/metrics"
)

// Stats is a snapshot of the progress counters of the current or last cycle.
type Stats struct {
	Cycle        string    `json:"cycle,omitempty"`
	ScanStart    time.Time `json:"scanStart"`
	ScanEnd      time.Time `json:"scanEnd"`
	FoldersDone  int64     `json:"foldersDone"`
	FilesDone    int64     `json:"filesDone"`
	FoldersTotal int64     `json:"foldersTotal"`
	FilesTotal   int64     `json:"filesTotal"`
}

// statsCell guards Stats independently of the lifecycle lock so progress
// updates never contend with transitions.
type statsCell struct {
	mu sync.Mutex
	s  Stats
}

func (c *statsCell) reset(cycle string, start time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s = Stats{Cycle: cycle, ScanStart: start}
}

func (c *statsCell) finish(end time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.ScanEnd = end
}

func (c *statsCell) addFoldersDone(n int) {
	if n == 0 {
		return
	}
	c.mu.Lock()
	c.s.FoldersDone += int64(n)
	c.mu.Unlock()
	metrics.IndexerFoldersProcessed.Add(float64(n))
}

func (c *statsCell) addFilesDone(n int) {
	if n == 0 {
		return
	}
	c.mu.Lock()
	c.s.FilesDone += int64(n)
	c.mu.Unlock()
	metrics.IndexerFilesProcessed.Add(float64(n))
}

func (c *statsCell) addFoldersTotal(n int) {
	c.mu.Lock()
	c.s.FoldersTotal += int64(n)
	c.mu.Unlock()
}

func (c *statsCell) addFilesTotal(n int) {
	c.mu.Lock()
	c.s.FilesTotal += int64(n)
	c.mu.Unlock()
}

func (c *statsCell) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}
