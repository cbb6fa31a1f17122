package language

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"

	"github.com/tildaslashalef/chisel/internal/loggy"
)

// Classification labels for files the chunker should not parse
const (
	LanguageUnknown = "Unknown"
	LanguageBinary  = "Binary"
	LanguageText    = "Text"
)

// sampleSize is how much of a file the detector reads for content-based
// classification.
const sampleSize = 8 * 1024

// Detector classifies files ahead of chunking: which language a file is
// written in, and whether it is vendored, generated, documentation or
// binary and should be skipped entirely.
type Detector struct {
	logger *loggy.Logger
}

// NewDetector creates a file classifier.
func NewDetector(logger *loggy.Logger) *Detector {
	if logger == nil {
		logger = loggy.NewNoopLogger()
	}
	return &Detector{logger: logger}
}

// DetectLanguage determines the language of a file from its name and a
// sample of its content.
func (d *Detector) DetectLanguage(filePath string) (string, error) {
	fileName := filepath.Base(filePath)

	sample, err := readFileSample(filePath, sampleSize)
	if err != nil {
		d.logger.Debug("error reading file sample", "path", filePath, "error", err)
		return "", fmt.Errorf("reading file: %w", err)
	}

	if enry.IsBinary(sample) {
		return LanguageBinary, nil
	}

	if language := enry.GetLanguage(fileName, sample); language != "" {
		return language, nil
	}

	if language, _ := enry.GetLanguageByExtension(filePath); language != "" {
		return language, nil
	}

	if language, _ := enry.GetLanguageByFilename(fileName); language != "" {
		return language, nil
	}

	d.logger.Debug("no language detected, defaulting to Text", "path", filePath)
	return LanguageText, nil
}

// ShouldSkip reports whether a file should be excluded from indexing, with
// a short reason for logging.
func (d *Detector) ShouldSkip(path string) (bool, string) {
	if d.IsVendorFile(path) {
		return true, "vendored"
	}
	if d.IsGeneratedFile(path) {
		return true, "generated"
	}
	if d.IsDocumentationFile(path) {
		return true, "documentation"
	}
	return false, ""
}

// IsVendorFile checks if the file is vendored or otherwise third-party.
func (d *Detector) IsVendorFile(path string) bool {
	if strings.Contains(path, "/.git/") || path == ".git" || strings.HasPrefix(path, ".git/") {
		return true
	}

	for _, dir := range []string{"/vendor/", "/node_modules/"} {
		if strings.Contains(path, dir) {
			return true
		}
	}

	return enry.IsVendor(path)
}

// IsGeneratedFile checks if a file looks machine-generated.
func (d *Detector) IsGeneratedFile(path string) bool {
	sample, err := readFileSample(path, sampleSize)
	if err != nil {
		return false
	}
	return enry.IsGenerated(path, sample)
}

// IsDocumentationFile checks if a file is documentation.
func (d *Detector) IsDocumentationFile(path string) bool {
	return enry.IsDocumentation(path)
}

// readFileSample reads up to maxSize bytes from the start of a file.
func readFileSample(filePath string, maxSize int64) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("getting file info: %w", err)
	}

	size := fileInfo.Size()
	if size > maxSize {
		size = maxSize
	}

	sample := make([]byte, size)
	if _, err := file.Read(sample); err != nil && size > 0 {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	return sample, nil
}
