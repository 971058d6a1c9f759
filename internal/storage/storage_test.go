package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUpload struct {
	name    string
	data    []byte
	size    int64
	openErr error
}

func (u memUpload) Name() string { return u.name }
func (u memUpload) Size() int64 {
	if u.size > 0 {
		return u.size
	}
	return int64(len(u.data))
}
func (u memUpload) Open() (io.ReadCloser, error) {
	if u.openErr != nil {
		return nil, u.openErr
	}
	return io.NopCloser(bytes.NewReader(u.data)), nil
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := NewStore(root, 1024)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC) }
	return s, root
}

func TestValidate(t *testing.T) {
	s, _ := newTestStore(t)

	assert.NoError(t, s.Validate(memUpload{name: "scan.PDF", data: []byte("x")}))
	assert.NoError(t, s.Validate(memUpload{name: "photo.jpeg", data: []byte("x")}))
	assert.ErrorIs(t, s.Validate(memUpload{name: "virus.exe", data: []byte("x")}), ErrUnsupportedType)
	assert.ErrorIs(t, s.Validate(memUpload{name: "noext", data: []byte("x")}), ErrUnsupportedType)
	assert.ErrorIs(t, s.Validate(memUpload{name: "big.png", size: 2048}), ErrTooLarge)
}

func TestSave(t *testing.T) {
	s, root := newTestStore(t)
	id := uuid.New()

	paths, err := s.Save(id, []Upload{
		memUpload{name: "a.pdf", data: []byte("pdf")},
		memUpload{name: "b.PNG", data: []byte("png")},
	})
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Equal(t, "feedback_attachments/feedback_"+id.String()+"_20261016_093000_0.pdf", paths[0])
	assert.Equal(t, "feedback_attachments/feedback_"+id.String()+"_20261016_093000_1.png", paths[1])

	data, err := os.ReadFile(filepath.Join(root, paths[1]))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestSave_FailureRemovesEarlierFiles(t *testing.T) {
	s, root := newTestStore(t)

	_, err := s.Save(uuid.New(), []Upload{
		memUpload{name: "a.pdf", data: []byte("pdf")},
		memUpload{name: "b.pdf", openErr: errors.New("disk gone")},
	})
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(root, AttachmentDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSave_RejectsUnderstatedSize(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Save(uuid.New(), []Upload{
		memUpload{name: "a.pdf", data: []byte(strings.Repeat("x", 2048)), size: 10},
	})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestRemove(t *testing.T) {
	s, root := newTestStore(t)
	paths, err := s.Save(uuid.New(), []Upload{memUpload{name: "a.jpg", data: []byte("x")}})
	require.NoError(t, err)

	errs := s.Remove(append(paths, "feedback_attachments/missing.pdf", "../../etc/passwd"))
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrInvalidPath)

	_, err = os.Stat(filepath.Join(root, paths[0]))
	assert.True(t, os.IsNotExist(err))
}

func TestPath_RejectsTraversal(t *testing.T) {
	s, _ := newTestStore(t)

	for _, p := range []string{"../secret", "/etc/passwd", "feedback_attachments/../../x", "other/file.pdf"} {
		_, err := s.Path(p)
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
	_, err := s.Path("feedback_attachments/ok.pdf")
	assert.NoError(t, err)
	_, err = s.Path("reports/2026/10/ok.pdf")
	assert.NoError(t, err)
	_, err = s.Path("reports")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestSaveReportFile(t *testing.T) {
	s, root := newTestStore(t)
	id := uuid.New()

	rel, err := s.SaveReportFile(id, memUpload{name: "Summary.PDF", data: []byte("report")})
	require.NoError(t, err)
	assert.Equal(t, "reports/2026/10/report_"+id.String()+"_20261016_093000.pdf", rel)

	full, err := s.Path(rel)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, rel), full)
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "report", string(data))

	_, err = s.SaveReportFile(id, memUpload{name: "notes.txt", data: []byte("x")})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
