package photo

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"photobooth/internal/domain"
	"photobooth/internal/repository/asset"
	repoPhoto "photobooth/internal/repository/photo"

	"github.com/wb-go/wbf/zlog"
)

type fakeRepo struct {
	mu      sync.Mutex
	photos  map[string]*domain.PhotoRecord
	saveErr error
	limit   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{photos: make(map[string]*domain.PhotoRecord)}
}

func (r *fakeRepo) Save(_ context.Context, p *domain.PhotoRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	cp := *p
	r.photos[p.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.PhotoRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.photos[id]
	if !ok || p.IsDeleted {
		return nil, repoPhoto.ErrPhotoNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) ListRecent(_ context.Context, limit int) ([]domain.PhotoRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limit = limit
	var out []domain.PhotoRecord
	for _, p := range r.photos {
		if !p.IsDeleted {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.photos[id]
	if !ok || p.IsDeleted {
		return repoPhoto.ErrPhotoNotFound
	}
	p.IsDeleted = true
	return nil
}

func (r *fakeRepo) MarkEdited(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.photos[id]
	if !ok || p.IsDeleted {
		return repoPhoto.ErrPhotoNotFound
	}
	p.IsEdited = true
	return nil
}

func (r *fakeRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.photos {
		if !p.IsDeleted {
			n++
		}
	}
	return n, nil
}

type fakeFiles struct {
	objects   map[string][]byte
	uploadErr error
	deleted   []string
}

func (f *fakeFiles) Upload(_ context.Context, name string, data []byte, _ string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[name] = data
	return "https://cdn.test/booth/" + name, nil
}

func (f *fakeFiles) Get(_ context.Context, name string) (io.ReadCloser, error) {
	data, ok := f.objects[name]
	if !ok {
		return nil, repoPhoto.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeFiles) Delete(_ context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	delete(f.objects, name)
	return nil
}

type fakeProducer struct {
	events []domain.PhotoEvent
}

func (p *fakeProducer) Publish(_ context.Context, e domain.PhotoEvent) error {
	p.events = append(p.events, e)
	return nil
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fixture struct {
	uc       *PhotoUsecase
	repo     *fakeRepo
	files    *fakeFiles
	producer *fakeProducer
	spool    *asset.Spool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newFakeRepo(),
		files:    &fakeFiles{},
		producer: &fakeProducer{},
		spool:    asset.NewSpool(t.TempDir()),
	}
	f.uc = NewPhotoUsecase(f.repo, f.files, f.producer, f.spool, &zlog.Logger, 0)
	f.uc.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return f
}

func TestUploadStoresRecordAndPublishes(t *testing.T) {
	f := newFixture(t)

	rec, err := f.uc.Upload(context.Background(), jpegBytes(t, 64, 48), "edited_IMG_1.jpg", true)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if rec.Width != 64 || rec.Height != 48 || rec.MimeType != "image/jpeg" || !rec.IsEdited {
		t.Errorf("record = %+v", rec)
	}
	if !strings.HasPrefix(rec.FilePath, "edited/2026/03/14/") || !strings.HasSuffix(rec.FilePath, ".jpg") {
		t.Errorf("object path = %s", rec.FilePath)
	}
	if rec.URL != "https://cdn.test/booth/"+rec.FilePath {
		t.Errorf("url = %s", rec.URL)
	}
	if _, err := f.repo.GetByID(context.Background(), rec.ID); err != nil {
		t.Errorf("record not saved: %v", err)
	}
	if len(f.producer.events) != 1 || f.producer.events[0].Type != domain.EventPhotoUploaded {
		t.Errorf("events = %+v", f.producer.events)
	}
}

func TestUploadRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	f.uc.maxUpload = 10

	if _, err := f.uc.Upload(context.Background(), nil, "a.jpg", false); !errors.Is(err, ErrEmptyPhoto) {
		t.Errorf("empty err = %v", err)
	}
	if _, err := f.uc.Upload(context.Background(), bytes.Repeat([]byte("x"), 11), "a.jpg", false); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("large err = %v", err)
	}
	f.uc.maxUpload = 1 << 20
	if _, err := f.uc.Upload(context.Background(), []byte("not an image"), "a.jpg", false); !errors.Is(err, ErrInvalidFileFormat) {
		t.Errorf("format err = %v", err)
	}
	if pending, _ := f.spool.List(); len(pending) != 0 {
		t.Errorf("invalid input was spooled: %+v", pending)
	}
}

func TestUploadFailureKeepsPhotoForRetry(t *testing.T) {
	f := newFixture(t)
	f.files.uploadErr = errors.New("connection refused")
	data := jpegBytes(t, 8, 8)

	if _, err := f.uc.Upload(context.Background(), data, "edited_a.jpg", true); !errors.Is(err, ErrStorageError) {
		t.Fatalf("err = %v, want ErrStorageError", err)
	}

	pending, err := f.uc.Pending()
	if err != nil || len(pending) != 1 {
		t.Fatalf("Pending = %v, %v", pending, err)
	}

	report, err := f.uc.RetryPending(context.Background())
	if err != nil {
		t.Fatalf("RetryPending: %v", err)
	}
	if report.Uploaded != 0 || report.Failed != 1 || len(report.Remaining) != 1 {
		t.Errorf("report while storage down = %+v", report)
	}

	f.files.uploadErr = nil
	report, err = f.uc.RetryPending(context.Background())
	if err != nil {
		t.Fatalf("RetryPending: %v", err)
	}
	if report.Uploaded != 1 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}
	if pending, _ := f.uc.Pending(); len(pending) != 0 {
		t.Errorf("spool not emptied: %v", pending)
	}

	photos, _ := f.repo.ListRecent(context.Background(), 10)
	if len(photos) != 1 || photos[0].Filename != "edited_a.jpg" || !photos[0].IsEdited {
		t.Errorf("photos = %+v", photos)
	}
}

func TestUploadDatabaseFailureRemovesObject(t *testing.T) {
	f := newFixture(t)
	f.repo.saveErr = errors.New("db down")

	if _, err := f.uc.Upload(context.Background(), jpegBytes(t, 8, 8), "a.jpg", false); !errors.Is(err, ErrDatabaseError) {
		t.Fatalf("err = %v, want ErrDatabaseError", err)
	}
	if len(f.files.deleted) != 1 || len(f.files.objects) != 0 {
		t.Errorf("orphaned object left: deleted=%v objects=%d", f.files.deleted, len(f.files.objects))
	}
	if pending, _ := f.spool.List(); len(pending) != 1 {
		t.Errorf("photo not spooled after db failure")
	}
}

func TestListRecentClampsLimit(t *testing.T) {
	f := newFixture(t)
	tests := map[int]int{0: domain.DefaultGallerySize, -3: domain.DefaultGallerySize, 5: 5, 1000: domain.DefaultPhotoListMax}
	for in, want := range tests {
		if _, err := f.uc.ListRecent(context.Background(), in); err != nil {
			t.Fatalf("ListRecent: %v", err)
		}
		if f.repo.limit != want {
			t.Errorf("ListRecent(%d) used limit %d, want %d", in, f.repo.limit, want)
		}
	}
}

func TestDeleteAndMarkEdited(t *testing.T) {
	f := newFixture(t)
	rec, err := f.uc.Upload(context.Background(), jpegBytes(t, 8, 8), "a.jpg", false)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.uc.MarkEdited(context.Background(), rec.ID); err != nil {
		t.Fatalf("MarkEdited: %v", err)
	}
	got, _ := f.uc.GetPhoto(context.Background(), rec.ID)
	if !got.IsEdited {
		t.Error("photo not marked edited")
	}

	if err := f.uc.Delete(context.Background(), rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.uc.GetPhoto(context.Background(), rec.ID); !errors.Is(err, repoPhoto.ErrPhotoNotFound) {
		t.Errorf("deleted photo still visible: %v", err)
	}
	if len(f.files.deleted) != 0 {
		t.Error("soft delete removed the stored object")
	}
	last := f.producer.events[len(f.producer.events)-1]
	if last.Type != domain.EventPhotoDeleted || last.PhotoID != rec.ID {
		t.Errorf("last event = %+v", last)
	}

	if err := f.uc.Delete(context.Background(), rec.ID); !errors.Is(err, repoPhoto.ErrPhotoNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if err := f.uc.MarkEdited(context.Background(), "missing"); !errors.Is(err, repoPhoto.ErrPhotoNotFound) {
		t.Errorf("mark missing err = %v", err)
	}
}

func TestOpenAndCount(t *testing.T) {
	f := newFixture(t)
	data := jpegBytes(t, 8, 8)
	rec, err := f.uc.Upload(context.Background(), data, "a.jpg", false)
	if err != nil {
		t.Fatal(err)
	}

	body, got, err := f.uc.Open(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	stored, _ := io.ReadAll(body)
	body.Close()
	if !bytes.Equal(stored, data) || got.MimeType != "image/jpeg" {
		t.Errorf("opened %d bytes, mime %s", len(stored), got.MimeType)
	}

	if n, err := f.uc.Count(context.Background()); err != nil || n != 1 {
		t.Errorf("Count = %d, %v", n, err)
	}

	delete(f.files.objects, rec.FilePath)
	if _, _, err := f.uc.Open(context.Background(), rec.ID); !errors.Is(err, repoPhoto.ErrObjectNotFound) {
		t.Errorf("missing object err = %v", err)
	}
	if _, _, err := f.uc.Open(context.Background(), "missing"); !errors.Is(err, repoPhoto.ErrPhotoNotFound) {
		t.Errorf("missing record err = %v", err)
	}
}
