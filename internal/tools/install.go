package tools

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/ulikunitz/xz"
)

// Release locations of the tools
const (
	DownloaderReleaseBase = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/"
	ConverterWindowsURL   = "https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.zip"
	ConverterDarwinURL    = "https://evermeet.cx/ffmpeg/getrelease/zip"
	ConverterLinuxURL     = "https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-%s-static.tar.xz"
)

var (
	zipMagic = []byte("PK\x03\x04")
	xzMagic  = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
)

// ErrUnsupportedPlatform is returned when no release exists for this OS/arch
var ErrUnsupportedPlatform = errors.New("no release available for this platform")

// ReleaseURL returns the download URL of a tool for goos/goarch
func ReleaseURL(name, goos, goarch string) (string, error) {
	switch name {
	case Downloader:
		switch goos {
		case "windows":
			return DownloaderReleaseBase + "yt-dlp.exe", nil
		case "darwin":
			return DownloaderReleaseBase + "yt-dlp_macos", nil
		case "linux":
			if goarch == "arm64" {
				return DownloaderReleaseBase + "yt-dlp_linux_aarch64", nil
			}
			return DownloaderReleaseBase + "yt-dlp_linux", nil
		}
	case Converter:
		switch goos {
		case "windows":
			return ConverterWindowsURL, nil
		case "darwin":
			return ConverterDarwinURL, nil
		case "linux":
			switch goarch {
			case "amd64", "arm64":
				return fmt.Sprintf(ConverterLinuxURL, goarch), nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s on %s/%s", ErrUnsupportedPlatform, name, goos, goarch)
}

// Install fetches a tool into the install directory
func (l *Locator) Install(ctx context.Context, name string) error {
	if l.opts.InstallDir == "" {
		return errors.New("install directory not configured")
	}
	if err := os.MkdirAll(l.opts.InstallDir, 0o755); err != nil {
		return fmt.Errorf("create install directory: %w", err)
	}

	url, err := l.releaseURL(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(l.opts.InstallDir, "."+name+"-*.download")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := l.fetch(ctx, name, url, tmp); err != nil {
		return err
	}

	switch name {
	case Downloader:
		if err := tmp.Close(); err != nil {
			return err
		}
		dest := filepath.Join(l.opts.InstallDir, executableName(name))
		if err := os.Chmod(tmp.Name(), 0o755); err != nil {
			return fmt.Errorf("chmod %s: %w", name, err)
		}
		if err := os.Rename(tmp.Name(), dest); err != nil {
			return fmt.Errorf("install %s: %w", name, err)
		}
		l.logger.Info("tool installed", "tool", name, "path", dest)
		return nil
	case Converter:
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return err
		}
		wanted := []string{executableName(Converter), executableName(Prober)}
		n, err := extractBinaries(tmp, l.opts.InstallDir, wanted)
		if err != nil {
			return fmt.Errorf("extract %s: %w", name, err)
		}
		if n == 0 {
			return fmt.Errorf("extract %s: archive does not contain %s", name, executableName(Converter))
		}
		l.logger.Info("tool installed", "tool", name, "dir", l.opts.InstallDir, "files", n)
		return nil
	default:
		return fmt.Errorf("unknown tool %q", name)
	}
}

func (l *Locator) releaseURL(name string) (string, error) {
	switch {
	case name == Downloader && l.opts.DownloaderURL != "":
		return l.opts.DownloaderURL, nil
	case name == Converter && l.opts.ConverterURL != "":
		return l.opts.ConverterURL, nil
	}
	return ReleaseURL(name, runtime.GOOS, runtime.GOARCH)
}

func (l *Locator) fetch(ctx context.Context, name, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := l.opts.Client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}
	if l.opts.Progress != nil {
		if pw := l.opts.Progress(name, resp.ContentLength); pw != nil {
			w = io.MultiWriter(w, pw)
		}
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	return nil
}

// extractBinaries copies the archive members whose base name is in wanted
// into dir and returns how many were written. The format is sniffed from the
// leading bytes since release URLs do not always carry an extension.
func extractBinaries(f *os.File, dir string, wanted []string) (int, error) {
	head := make([]byte, len(xzMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, err
	}
	head = head[:n]
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	switch {
	case bytes.HasPrefix(head, zipMagic):
		info, err := f.Stat()
		if err != nil {
			return 0, err
		}
		return extractZip(f, info.Size(), dir, wanted)
	case bytes.HasPrefix(head, xzMagic):
		xr, err := xz.NewReader(f)
		if err != nil {
			return 0, err
		}
		return extractTar(xr, dir, wanted)
	default:
		return 0, errors.New("unknown archive format")
	}
}

func extractZip(r io.ReaderAt, size int64, dir string, wanted []string) (int, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, zf := range zr.File {
		base, ok := wantedBase(zf.Name, wanted)
		if zf.FileInfo().IsDir() || !ok {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return count, err
		}
		err = writeExecutable(filepath.Join(dir, base), rc)
		rc.Close()
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func extractTar(r io.Reader, dir string, wanted []string) (int, error) {
	tr := tar.NewReader(r)
	count := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		base, ok := wantedBase(hdr.Name, wanted)
		if hdr.Typeflag != tar.TypeReg || !ok {
			continue
		}
		if err := writeExecutable(filepath.Join(dir, base), tr); err != nil {
			return count, err
		}
		count++
	}
}

func wantedBase(name string, wanted []string) (string, bool) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return base, slices.Contains(wanted, base)
}

func writeExecutable(dest string, r io.Reader) error {
	tmp := dest + ".partial"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}
