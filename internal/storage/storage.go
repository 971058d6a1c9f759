// Package storage keeps feedback attachments and report files on the local
// filesystem.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	AttachmentDir = "feedback_attachments"
	ReportDir     = "reports"

	DefaultMaxSize int64 = 5 << 20
)

var (
	ErrUnsupportedType = errors.New("unsupported attachment type")
	ErrTooLarge        = errors.New("attachment too large")
	ErrInvalidPath     = errors.New("invalid attachment path")

	allowedExtensions = map[string]bool{
		".pdf":  true,
		".jpg":  true,
		".jpeg": true,
		".png":  true,
	}
)

// Upload is a file received from a client.
type Upload interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

type multipartUpload struct {
	fh *multipart.FileHeader
}

func FromMultipart(fh *multipart.FileHeader) Upload {
	return multipartUpload{fh: fh}
}

func (u multipartUpload) Name() string { return u.fh.Filename }
func (u multipartUpload) Size() int64  { return u.fh.Size }
func (u multipartUpload) Open() (io.ReadCloser, error) {
	return u.fh.Open()
}

type Store struct {
	root    string
	maxSize int64
	now     func() time.Time
}

func NewStore(root string, maxSize int64) (*Store, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	for _, dir := range []string{AttachmentDir, ReportDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}
	return &Store{root: root, maxSize: maxSize, now: time.Now}, nil
}

// Validate checks extension and size without touching the disk.
func (s *Store) Validate(u Upload) error {
	ext := strings.ToLower(filepath.Ext(u.Name()))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %s (allowed: .pdf, .jpg, .jpeg, .png)", ErrUnsupportedType, u.Name())
	}
	if u.Size() > s.maxSize {
		return fmt.Errorf("%w: %s exceeds %d MB", ErrTooLarge, u.Name(), s.maxSize>>20)
	}
	return nil
}

// Save writes every upload for the feedback and returns their relative paths.
// Either all files are written or none remain.
func (s *Store) Save(feedbackID uuid.UUID, uploads []Upload) ([]string, error) {
	stamp := s.now().Format("20060102_150405")
	saved := make([]string, 0, len(uploads))

	for i, u := range uploads {
		if err := s.Validate(u); err != nil {
			s.Remove(saved)
			return nil, err
		}

		ext := strings.ToLower(filepath.Ext(u.Name()))
		rel := filepath.ToSlash(filepath.Join(AttachmentDir,
			fmt.Sprintf("feedback_%s_%s_%d%s", feedbackID, stamp, i, ext)))

		if err := s.write(rel, u); err != nil {
			s.Remove(saved)
			return nil, err
		}
		saved = append(saved, rel)
	}
	return saved, nil
}

// SaveReportFile writes a report's file under reports/YYYY/MM and returns its
// relative path.
func (s *Store) SaveReportFile(reportID uuid.UUID, u Upload) (string, error) {
	if err := s.Validate(u); err != nil {
		return "", err
	}

	now := s.now()
	dir := filepath.Join(ReportDir, now.Format("2006"), now.Format("01"))
	if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	ext := strings.ToLower(filepath.Ext(u.Name()))
	rel := filepath.ToSlash(filepath.Join(dir,
		fmt.Sprintf("report_%s_%s%s", reportID, now.Format("20060102_150405"), ext)))
	if err := s.write(rel, u); err != nil {
		return "", err
	}
	return rel, nil
}

func (s *Store) write(rel string, u Upload) error {
	src, err := u.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload %s: %w", u.Name(), err)
	}
	defer src.Close()

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	dst, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", rel, err)
	}

	// LimitReader guards against a client lying about the declared size.
	n, err := io.Copy(dst, io.LimitReader(src, s.maxSize+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxSize {
		err = fmt.Errorf("%w: %s", ErrTooLarge, u.Name())
	}
	if err != nil {
		os.Remove(full)
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// Remove deletes the given relative paths. Failures are logged and returned
// but never stop the remaining removals.
func (s *Store) Remove(paths []string) []error {
	var errs []error
	for _, rel := range paths {
		full, err := s.Path(rel)
		if err == nil {
			err = os.Remove(full)
			if errors.Is(err, os.ErrNotExist) {
				err = nil
			}
		}
		if err != nil {
			log.Warn().Err(err).Str("path", rel).Msg("failed to remove attachment")
			errs = append(errs, err)
		}
	}
	return errs
}

// Path resolves a stored relative path to a file under the attachment or
// report directory.
func (s *Store) Path(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, rel)
	}
	full := filepath.Join(s.root, clean)
	for _, dir := range []string{AttachmentDir, ReportDir} {
		if strings.HasPrefix(full, filepath.Join(s.root, dir)+string(filepath.Separator)) {
			return full, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidPath, rel)
}
