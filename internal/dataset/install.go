// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package dataset

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/time/rate"

	"github.com/tomtom215/mediabridge/internal/logging"
)

const (
	// archiveRoot is the top-level directory of the published archive.
	archiveRoot = "download"

	// trainingArchive is the rating-file tarball nested inside the archive.
	trainingArchive = "training_set.tar"

	archiveName = "nf_prize_dataset.tar.gz"
)

// ErrUnsafeArchivePath is returned for tar entries that would land outside
// the extraction directory.
var ErrUnsafeArchivePath = errors.New("archive entry escapes destination")

// Installed reports whether netflixDir already holds an extracted dataset.
func Installed(netflixDir string) bool {
	info, err := os.Stat(filepath.Join(netflixDir, "movie_titles.txt"))
	return err == nil && info.Mode().IsRegular()
}

// Install downloads url and unpacks it into netflixDir, including the nested
// training_set.tar. It returns false without touching the network when the
// dataset is already installed.
func Install(ctx context.Context, client *http.Client, url, netflixDir string) (bool, error) {
	if Installed(netflixDir) {
		return false, nil
	}

	dataDir := filepath.Dir(netflixDir)
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return false, fmt.Errorf("create data directory: %w", err)
	}

	archive := filepath.Join(dataDir, archiveName)
	if err := Download(ctx, client, url, archive); err != nil {
		return false, err
	}
	if err := Unpack(archive, netflixDir); err != nil {
		return false, err
	}
	if err := os.Remove(archive); err != nil {
		logging.Warn().Err(err).Str("path", archive).Msg("Failed to remove dataset archive")
	}
	return true, nil
}

// Download streams url to dest. The body is written to dest.partial and
// renamed on success so an interrupted download never looks complete.
func Download(ctx context.Context, client *http.Client, url, dest string) (err error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	partial := dest + ".partial"
	//nolint:gosec // G304: dest is built from configured paths
	f, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("create %s: %w", partial, err)
	}
	defer func() {
		if err != nil {
			f.Close() //nolint:errcheck // already failing
			os.Remove(partial) //nolint:errcheck // best effort cleanup
		}
	}()

	pw := &progressWriter{
		total:     resp.ContentLength,
		sometimes: rate.Sometimes{Interval: 5 * time.Second},
	}
	logging.Info().Str("url", url).Int64("bytes", resp.ContentLength).Msg("Downloading dataset")

	n, err := io.Copy(f, io.TeeReader(resp.Body, pw))
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return fmt.Errorf("download %s: got %d of %d bytes", url, n, resp.ContentLength)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", partial, err)
	}
	if err = os.Rename(partial, dest); err != nil {
		return fmt.Errorf("rename %s: %w", partial, err)
	}

	logging.Info().Int64("bytes", n).Str("path", dest).Msg("Dataset downloaded")
	return nil
}

type progressWriter struct {
	total     int64
	written   int64
	sometimes rate.Sometimes
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	p.sometimes.Do(func() {
		ev := logging.Info().Int64("bytes", p.written)
		if p.total > 0 {
			ev = ev.Float64("percent", float64(p.written)/float64(p.total)*100)
		}
		ev.Msg("Download progress")
	})
	return len(b), nil
}

// Unpack extracts archive into netflixDir. The archive's download/ root,
// when present, becomes netflixDir itself.
func Unpack(archive, netflixDir string) error {
	staging := netflixDir + ".unpack"
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("clear %s: %w", staging, err)
	}
	defer os.RemoveAll(staging) //nolint:errcheck // best effort cleanup

	files, err := ExtractTar(archive, staging)
	if err != nil {
		return err
	}

	root := staging
	if info, err := os.Stat(filepath.Join(staging, archiveRoot)); err == nil && info.IsDir() {
		root = filepath.Join(staging, archiveRoot)
	}

	nested := filepath.Join(root, trainingArchive)
	if _, err := os.Stat(nested); err == nil {
		n, err := ExtractTar(nested, filepath.Join(root, "training_set"))
		if err != nil {
			return err
		}
		if err := os.Remove(nested); err != nil {
			return fmt.Errorf("remove %s: %w", nested, err)
		}
		files += n - 1
	}

	// a half-extracted directory from an earlier attempt
	if err := os.RemoveAll(netflixDir); err != nil {
		return fmt.Errorf("clear %s: %w", netflixDir, err)
	}
	if err := os.Rename(root, netflixDir); err != nil {
		return fmt.Errorf("move dataset into place: %w", err)
	}

	logging.Info().Int("files", files).Str("path", netflixDir).Msg("Dataset extracted")
	return nil
}

// ExtractTar extracts the regular files and directories of a .tar or
// .tar.gz into dest and returns the number of files written. Other entry
// types are skipped.
func ExtractTar(archive, dest string) (int, error) {
	//nolint:gosec // G304: archive path is built from configured paths
	f, err := os.Open(archive)
	if err != nil {
		return 0, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(archive, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return 0, fmt.Errorf("open gzip stream %s: %w", archive, err)
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	files := 0
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return files, fmt.Errorf("read %s: %w", archive, err)
		}

		target, err := destPath(dest, header.Name)
		if err != nil {
			return files, err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o750); err != nil {
				return files, fmt.Errorf("create %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeEntry(tr, target, header.Size); err != nil {
				return files, fmt.Errorf("extract %s: %w", header.Name, err)
			}
			files++
		}
	}
}

func destPath(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchivePath, name)
	}
	return target, nil
}

func writeEntry(r io.Reader, target string, size int64) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}
	//nolint:gosec // G304: target validated by destPath
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}
	if _, err := io.CopyN(out, r, size); err != nil {
		out.Close() //nolint:errcheck // already failing
		return err
	}
	return out.Close()
}
