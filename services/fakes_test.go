package services

import (
	"bytes"
	"context"
	"coursehub/apperror"
	"coursehub/database"
	"coursehub/models"
	"coursehub/repository"
	"coursehub/services/events"
	"coursehub/services/media"
	"coursehub/services/payment"
	"errors"
	"fmt"
	"image/color"
	"io"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUploader struct {
	mu       sync.Mutex
	failOn   string
	uploaded []string
	stored   []string
	deleted  []string
}

func (f *fakeUploader) Upload(ctx context.Context, obj media.Object, kind media.ResourceKind) (*models.FileRef, error) {
	if obj.Filename == f.failOn {
		return nil, apperror.Upload("Failed to upload "+obj.Filename, errors.New("store unavailable"))
	}
	n, _ := io.Copy(io.Discard, obj.Body)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, obj.Filename)
	id := fmt.Sprintf("%s/%d-%s", kind.Folder(), len(f.uploaded), obj.Filename)
	f.stored = append(f.stored, id)
	return &models.FileRef{PublicID: id, URL: "http://media.test/" + id, Size: n, Format: "bin"}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, publicID)
	return nil
}

// storedSince returns the ids stored after the first n uploads.
func (f *fakeUploader) storedSince(n int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stored[n:]...)
}

func (f *fakeUploader) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *fakeUploader) uploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploaded)
}

type fakeProcessor struct {
	mu          sync.Mutex
	intents     int
	statusCalls int
	states      map[string]string
}

func (f *fakeProcessor) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Authorization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents++
	return &payment.Authorization{OrderID: req.OrderID, ClientSecret: "secret-" + req.OrderID}, nil
}

func (f *fakeProcessor) Status(ctx context.Context, orderID string) (*payment.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	state := f.states[orderID]
	if state == "" {
		state = "pending"
	}
	return &payment.Status{OrderID: orderID, State: state, Settled: payment.IsSettled(state, "")}, nil
}

func (f *fakeProcessor) settle(orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.states == nil {
		f.states = make(map[string]string)
	}
	f.states[orderID] = "settlement"
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type recordingNotifier struct {
	receipts []string
}

func (n *recordingNotifier) PurchaseCompleted(ctx context.Context, user *models.User, course *models.Course, order *models.Order) error {
	n.receipts = append(n.receipts, user.Email+":"+course.Title)
	return nil
}

type harness struct {
	users     *repository.UserRepository
	courses   *repository.CourseRepository
	purchases *repository.PurchaseRepository
	orders    *repository.OrderRepository

	uploader  *fakeUploader
	processor *fakeProcessor
	publisher *recordingPublisher
	notifier  *recordingNotifier

	identity *IdentityService
	course   *CourseService
	purchase *PurchaseService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	h := &harness{
		users:     repository.NewUserRepository(db),
		courses:   repository.NewCourseRepository(db),
		purchases: repository.NewPurchaseRepository(db),
		orders:    repository.NewOrderRepository(db),
		uploader:  &fakeUploader{},
		processor: &fakeProcessor{},
		publisher: &recordingPublisher{},
		notifier:  &recordingNotifier{},
	}
	h.identity = NewIdentityService(h.users, map[string][]byte{
		models.RoleAdmin: []byte("admin-secret"),
		models.RoleUser:  []byte("user-secret"),
	}, bcrypt.MinCost)
	h.course = NewCourseService(h.courses, h.purchases, h.uploader, h.publisher, 2, 1600)
	h.purchase = NewPurchaseService(h.courses, h.purchases, h.orders, h.users, h.processor, h.notifier, h.publisher, "IDR")
	return h
}

func (h *harness) account(t *testing.T, role, email string) *models.User {
	t.Helper()
	user, err := h.identity.Signup(context.Background(), role, SignupInput{
		FirstName: "Test",
		LastName:  "Account",
		Email:     email,
		Password:  "secret123",
	})
	require.NoError(t, err)
	return user
}

type filePart struct {
	field       string
	name        string
	contentType string
	body        []byte
}

// parts encodes the files as a multipart form and returns the parsed headers per field.
func parts(t *testing.T, files ...filePart) map[string][]*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(f.body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(32, 16, color.NRGBA{B: 255, A: 255}), imaging.PNG))
	return buf.Bytes()
}

var pdfBytes = []byte("%PDF-1.4\n%%EOF\n")

func ptr[T any](v T) *T { return &v }

// createCourse stores a course with one video and one document owned by owner.
func (h *harness) createCourse(t *testing.T, owner uuid.UUID, title string) *models.Course {
	t.Helper()
	files := parts(t,
		filePart{"image", "cover.png", "image/png", pngBytes(t)},
		filePart{"content", "intro.mp4", "video/mp4", []byte("video-bytes")},
		filePart{"content", "notes.pdf", "application/pdf", pdfBytes},
	)
	course, err := h.course.Create(context.Background(), owner, CourseInput{
		Title:       ptr(title),
		Description: ptr("Learn things"),
		Price:       ptr(int64(499)),
		Image:       files["image"][0],
		Content:     files["content"],
		Metadata:    []string{`{"title":"Intro"}`, `{"title":"Notes"}`},
	})
	require.NoError(t, err)
	return course
}
