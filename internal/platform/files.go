package platform

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Operating system constants
const (
	OSDarwin  = "darwin"
	OSWindows = "windows"
	OSLinux   = "linux"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Command constants
const (
	OpenCommand     = "open"
	ExplorerCommand = "explorer"
	XDGOpenCommand  = "xdg-open"
	CmdCommand      = "cmd"
	StartCommand    = "start"
)

// Command parameters
const (
	MacOSSelectFlag    = "-R"
	WindowsSelectParam = "/select,"
	WindowsCmdFlag     = "/c"
)

// LinuxFileManagers are tried in order when xdg-open is missing
var LinuxFileManagers = []string{"nautilus", "dolphin", "thunar", "nemo", "pcmanfm"}

// SkippedExtensions mark downloader leftovers that are never a finished file
var SkippedExtensions = []string{".part", ".ytdl"}

// DefaultTitle is used when a title has no usable characters
const DefaultTitle = "download"

// ErrFileNotFound is returned when neither the recorded path nor a sibling exists
var ErrFileNotFound = errors.New("file not found")

// OpenFileInManager opens the file in the system file manager and highlights it
func OpenFileInManager(filePath string) error {
	foundPath, err := FindFileWithFallback(filePath)
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(foundPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	switch runtime.GOOS {
	case OSDarwin:
		return exec.Command(OpenCommand, MacOSSelectFlag, absPath).Run()
	case OSWindows:
		// explorer exits 1 even on success
		_ = exec.Command(ExplorerCommand, WindowsSelectParam+absPath).Run()
		return nil
	case OSLinux:
		return openDirLinux(filepath.Dir(absPath))
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// OpenFolder opens a directory in the system file manager
func OpenFolder(dir string) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrFileNotFound, absPath)
	}

	switch runtime.GOOS {
	case OSDarwin:
		return exec.Command(OpenCommand, absPath).Run()
	case OSWindows:
		_ = exec.Command(ExplorerCommand, absPath).Run()
		return nil
	case OSLinux:
		return openDirLinux(absPath)
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// openDirLinux opens a directory; selecting a file is not standardized on Linux
func openDirLinux(dir string) error {
	if err := exec.Command(XDGOpenCommand, dir).Run(); err == nil {
		return nil
	}

	for _, fm := range LinuxFileManagers {
		if _, err := exec.LookPath(fm); err == nil {
			return exec.Command(fm, dir).Run()
		}
	}

	return fmt.Errorf("no suitable file manager found")
}

// OpenFileWithDefaultApp opens the file with the default system application
func OpenFileWithDefaultApp(filePath string) error {
	foundPath, err := FindFileWithFallback(filePath)
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(foundPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	switch runtime.GOOS {
	case OSDarwin:
		return exec.Command(OpenCommand, absPath).Run()
	case OSWindows:
		return exec.Command(CmdCommand, WindowsCmdFlag, StartCommand, "", absPath).Run()
	case OSLinux:
		return exec.Command(XDGOpenCommand, absPath).Run()
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// GetHomeDownloadsDir returns the standard Downloads directory for the user
func GetHomeDownloadsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, "Downloads"), nil
}

// SafeTitle reduces a title to letters, digits, spaces and "._()" so it can be
// used as a file name on every platform.
func SafeTitle(title string) string {
	title = norm.NFC.String(title)
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(" ._()", r) {
			b.WriteRune(r)
		}
	}
	safe := strings.Trim(strings.TrimSpace(b.String()), ".")
	if safe == "" {
		return DefaultTitle
	}
	return safe
}

// OutputTemplate returns the downloader output template for a title
func OutputTemplate(dir, title string) string {
	return filepath.Join(dir, SafeTitle(title)+".%(ext)s")
}

// ExpectedOutputPath is where a finished download with the given extension lands
func ExpectedOutputPath(dir, title, ext string) string {
	return filepath.Join(dir, SafeTitle(title)+"."+ext)
}

// ExistingDownload returns the path of a finished file for title if one exists
func ExistingDownload(dir, title, ext string) (string, bool) {
	path := ExpectedOutputPath(dir, title, ext)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return "", false
	}
	return path, true
}

// RemovePartialFiles deletes the downloader leftovers of title in dir and
// returns the removed paths. Finished files are never touched.
func RemovePartialFiles(dir, title string) ([]string, error) {
	base := SafeTitle(title)
	pattern := filepath.Join(globEscape(dir), globEscape(base)+".*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob partial files: %w", err)
	}

	var removed []string
	var errs []error
	for _, m := range matches {
		if !isPartialFile(m) {
			continue
		}
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, m)
	}
	return removed, errors.Join(errs...)
}

// isPartialFile matches "<name>.part", "<name>.ytdl" and fragment files like
// "<name>.f137.mp4.part" or "<name>.part-Frag12".
func isPartialFile(path string) bool {
	name := filepath.Base(path)
	if slices.Contains(SkippedExtensions, filepath.Ext(name)) {
		return true
	}
	return strings.Contains(name, ".part-Frag")
}

// FindFileWithFallback returns filePath if it exists, otherwise a sibling file
// with the same base name and a different extension. Containers change after
// remux or audio extraction, so the recorded path can be stale.
func FindFileWithFallback(filePath string) (string, error) {
	if filePath == "" {
		return "", fmt.Errorf("%w: empty path", ErrFileNotFound)
	}
	if strings.HasPrefix(filePath, "http") {
		return "", fmt.Errorf("file path appears to be a URL: %s", filePath)
	}

	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil
	}

	dir := filepath.Dir(filePath)
	baseName := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if slices.Contains(SkippedExtensions, ext) {
			continue
		}
		if strings.TrimSuffix(name, ext) == baseName {
			return filepath.Join(dir, name), nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
}

func globEscape(s string) string {
	if runtime.GOOS == OSWindows {
		return strings.NewReplacer("[", "[[]", "*", "[*]", "?", "[?]").Replace(s)
	}
	return strings.NewReplacer(`\`, `\\`, "[", `\[`, "*", `\*`, "?", `\?`).Replace(s)
}
