package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/docserver-api/internal/models"
	"github.com/noah-isme/docserver-api/pkg/ocr"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Department{}, &models.DocType{}, &models.RequiredField{}, &models.Deadline{},
		&models.Student{}, &models.Admin{},
		&models.Submission{}, &models.SubmissionFile{}, &models.SubmissionFieldValue{},
		&models.SubmissionHistory{}, &models.ReviewResult{},
	))
	return db
}

func seedMembers(t *testing.T, db *gorm.DB) (models.Student, models.Admin, models.DocType) {
	t.Helper()
	department := models.Department{Name: "Computer Science " + t.Name()}
	require.NoError(t, db.Create(&department).Error)
	student := models.Student{StudentNo: "20250001", Name: "Alice Kim", Email: "alice@example.com"}
	require.NoError(t, db.Create(&student).Error)
	admin := models.Admin{DepartmentID: department.ID, Name: "Prof. Park", Email: "park@example.com"}
	require.NoError(t, db.Create(&admin).Error)
	docType := models.DocType{DepartmentID: department.ID, Title: "Enrollment Certificate"}
	require.NoError(t, db.Create(&docType).Error)
	return student, admin, docType
}

// fakeStore keeps file bytes in memory, keyed by a synthetic URL.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	deleted []string
	getErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(ctx context.Context, scope, filename string, reader io.Reader) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	url := fmt.Sprintf("mem://%s/%d_%s", scope, f.puts, filename)
	f.objects[url] = data
	return url, nil
}

func (f *fakeStore) Get(ctx context.Context, objectURL string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[objectURL]
	if !ok {
		return nil, fmt.Errorf("object %s not found", objectURL)
	}
	return data, nil
}

func (f *fakeStore) Delete(ctx context.Context, objectURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objectURL)
	f.deleted = append(f.deleted, objectURL)
	return nil
}

// stubReviewClient returns a fixed verdict for every call.
type stubReviewClient struct {
	verdict ocr.Verdict
	calls   int
}

func (s *stubReviewClient) Review(ctx context.Context, fileBytes []byte, filename string) ocr.Verdict {
	s.calls++
	return s.verdict
}

// captureScheduler records scheduled submission IDs instead of running
// reviews.
type captureScheduler struct {
	mu  sync.Mutex
	ids []uint
}

func (c *captureScheduler) Schedule(submissionID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, submissionID)
}

func (c *captureScheduler) scheduled() []uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint(nil), c.ids...)
}

// fileHeader builds a real multipart.FileHeader the way Fiber hands it to
// the service.
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(buf.Len()) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func newTestValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func nopEvents() *EventPublisher {
	return NewEventPublisher(nil, "", zerolog.Nop())
}

func pdfBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< >>\n%%EOF")
}

func deadlineOn(t *testing.T, db *gorm.DB, docTypeID uint, day time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.Deadline{DocTypeID: docTypeID, Deadline: day}).Error)
}
