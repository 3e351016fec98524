// Package storage persists comic artifact pairs under the output directory.
//
// The directory is the only durable state: the metadata file's presence (with
// a non-empty image sibling) is the resumption signal, there is no separate
// index. Files are written to a temp path and renamed into place so a crash
// mid-write never leaves a truncated artifact that counts as done.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	errs "xkcdcrawl/pkg/errors"
	"xkcdcrawl/pkg/naming"
)

// Metadata is the structured record written next to each comic image.
// The five fields are a fixed contract: any consumer must be able to
// round-trip them.
type Metadata struct {
	ComicNum int    `json:"comic_num"`
	Title    string `json:"title"`
	AltText  string `json:"alt_text"`
	ImageURL string `json:"image_url"`
	Filename string `json:"filename"`
}

// Manager handles artifact storage and duplicate detection
type Manager struct {
	outputDir string
	saved     map[int]bool
	mu        sync.RWMutex
}

// NewManager creates a new storage manager, creating the output directory
// if it does not exist
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		saved:     make(map[int]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles scans the output directory for complete artifact pairs
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var num int
		if _, err := fmt.Sscanf(entry.Name(), "%d_metadata.json", &num); err != nil {
			continue
		}
		if m.verifyPair(num) {
			m.saved[num] = true
		}
	}

	return nil
}

// Exists reports whether a complete artifact pair is present for the comic.
// A metadata file whose image sibling is missing or empty does not count,
// so interrupted runs are re-fetched rather than silently skipped.
func (m *Manager) Exists(num int) bool {
	m.mu.RLock()
	cached := m.saved[num]
	m.mu.RUnlock()
	if cached {
		return true
	}

	if !m.verifyPair(num) {
		return false
	}

	m.mu.Lock()
	m.saved[num] = true
	m.mu.Unlock()
	return true
}

// verifyPair checks both artifact files on disk
func (m *Manager) verifyPair(num int) bool {
	metaPath := filepath.Join(m.outputDir, naming.MetadataFilename(num))
	info, err := os.Stat(metaPath)
	if err != nil || info.Size() == 0 {
		return false
	}

	meta, err := m.readMetadata(metaPath)
	if err != nil || meta.Filename == "" {
		return false
	}

	imgInfo, err := os.Stat(filepath.Join(m.outputDir, meta.Filename))
	return err == nil && imgInfo.Size() > 0
}

// Save writes the image bytes and the metadata record for a comic.
// The image lands first and the metadata file last, so a complete metadata
// file implies a complete pair.
func (m *Manager) Save(meta Metadata, imageBytes []byte) error {
	imagePath := filepath.Join(m.outputDir, meta.Filename)
	if err := m.writeFileAtomic(imagePath, imageBytes); err != nil {
		return classifyWriteError(fmt.Errorf("failed to save image for comic %d: %w", meta.ComicNum, err))
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return classifyWriteError(fmt.Errorf("failed to encode metadata for comic %d: %w", meta.ComicNum, err))
	}
	metaPath := filepath.Join(m.outputDir, naming.MetadataFilename(meta.ComicNum))
	if err := m.writeFileAtomic(metaPath, data); err != nil {
		return classifyWriteError(fmt.Errorf("failed to save metadata for comic %d: %w", meta.ComicNum, err))
	}

	m.mu.Lock()
	m.saved[meta.ComicNum] = true
	m.mu.Unlock()

	return nil
}

// writeFileAtomic writes data to a temp file and renames it into place
func (m *Manager) writeFileAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, writeErr := out.Write(data)
	closeErr := out.Close()

	if writeErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write data: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// Record loads the stored metadata record for a comic
func (m *Manager) Record(num int) (*Metadata, error) {
	meta, err := m.readMetadata(filepath.Join(m.outputDir, naming.MetadataFilename(num)))
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata for comic %d: %w", num, err)
	}
	return meta, nil
}

func (m *Manager) readMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// SavedCount returns the number of complete artifact pairs known to the manager
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}

// classifyWriteError marks clearly non-transient filesystem failures
// (permission denied, disk full) as persistence errors, which the retry
// policy never retries. Anything else stays untyped and eligible for a
// bounded retry.
func classifyWriteError(err error) error {
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.ENOSPC) {
		return errs.Wrap(errs.ErrorTypePersistence, err.Error(), err)
	}
	return err
}
