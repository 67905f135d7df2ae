// =============================================================================
// Census Bulk Importer - File Manager Utility
// =============================================================================
//
// This module provides the file handling around one import:
//   - Archival of the input spreadsheet once the endpoint accepted it
//   - Recovery files holding edited records when a submission is abandoned
//   - Directory management
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to archive_dir after a successful submission
//   - A name already taken in the archive gets a timestamp suffix
//   - Files whose submission failed stay where they are
//
// =============================================================================

package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the importer.
type FileManager struct {
	// ArchiveDir is the directory for archived input files.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: imported/2024/01/15/censo.xlsx
	UseTimestampSubdirs bool

	// ArchiveOnSuccess determines whether files are archived at all.
	ArchiveOnSuccess bool

	now func() time.Time
}

// NewFileManager creates a FileManager archiving into archiveDir.
func NewFileManager(archiveDir string) *FileManager {
	return &FileManager{
		ArchiveDir:       archiveDir,
		ArchiveOnSuccess: true,
		now:              time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the archive directory if it doesn't exist.
func (fm *FileManager) EnsureDirectories() error {
	if fm.ArchiveDir == "" {
		return errors.New("archive directory is not set")
	}
	if err := os.MkdirAll(fm.ArchiveDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.ArchiveDir, err)
	}
	return nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an imported file to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//
// RETURNS:
//   - The path to the archived file, or filePath unchanged when archiving
//     is disabled.
//   - An error if archival fails. The original is left in place.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath, err := fm.archivePath(filePath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// archivePath picks a free name for filePath inside the archive.
func (fm *FileManager) archivePath(filePath string) (string, error) {
	now := fm.clock()
	dir := fm.ArchiveDir
	if fm.UseTimestampSubdirs {
		dir = filepath.Join(dir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}

	name := filepath.Base(filePath)
	candidate := filepath.Join(dir, name)
	if !FileExists(candidate) {
		return candidate, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate = filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, now.Format("20060102_150405"), ext))
	if !FileExists(candidate) {
		return candidate, nil
	}

	// Same second twice.
	candidate = filepath.Join(dir, fmt.Sprintf("%s_%s_%s%s", stem, now.Format("20060102_150405"), uuid.NewString()[:8], ext))
	if FileExists(candidate) {
		return "", fmt.Errorf("no free archive name for %s", name)
	}
	return candidate, nil
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// =============================================================================
// RECOVERY FILES
// =============================================================================

// WriteRecoveryFile saves payload as indented JSON next to the archive so
// edits survive an abandoned submission.
//
// PARAMETERS:
//   - sessionID: The import session; it names the file.
//   - payload: Any JSON-encodable value, normally the export body.
//
// RETURNS:
//   - The path written.
func (fm *FileManager) WriteRecoveryFile(sessionID string, payload any) (string, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	dir := filepath.Join(fm.ArchiveDir, "pending")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create recovery directory: %w", err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode recovery file: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("import_%s.json", sessionID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write recovery file: %w", err)
	}
	return path, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
