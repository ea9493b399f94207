package main

import (
	"bytes"
	"context"
	"coursehub/config"
	"coursehub/database"
	"coursehub/middleware"
	"coursehub/services/events"
	"coursehub/services/media"
	"coursehub/services/payment"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type autoSettleProcessor struct {
	mu      sync.Mutex
	intents int
}

func (p *autoSettleProcessor) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Authorization, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intents++
	return &payment.Authorization{OrderID: req.OrderID, ClientSecret: "snap-" + req.OrderID}, nil
}

func (p *autoSettleProcessor) Status(ctx context.Context, orderID string) (*payment.Status, error) {
	return &payment.Status{OrderID: orderID, State: "settlement", Settled: true}, nil
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t         *testing.T
	app       *fiber.App
	processor *autoSettleProcessor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	cfg := &config.Config{
		Env:               "test",
		JWTAdminKey:       "admin-secret",
		JWTUserKey:        "user-secret",
		SaltRound:         4,
		AllowedOrigins:    []string{"http://localhost:5173"},
		BodyLimitMB:       64,
		MediaDriver:       "local",
		MediaLocalDir:     t.TempDir(),
		UploadConcurrency: 2,
		CoverMaxDimension: 1600,
		PaymentCurrency:   "IDR",
	}
	processor := &autoSettleProcessor{}
	app, _ := newApp(Dependencies{
		Config:    cfg,
		DB:        db,
		Uploader:  media.NewLocalUploader(cfg.MediaLocalDir, ""),
		Processor: processor,
		Publisher: events.NopPublisher{},
	})
	return &testServer{t: t, app: app, processor: processor}
}

func (s *testServer) do(req *http.Request) (*http.Response, envelope) {
	s.t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var env envelope
	body, _ := io.ReadAll(resp.Body)
	require.NoError(s.t, json.Unmarshal(body, &env), string(body))
	return resp, env
}

func (s *testServer) json(method, path, token string, payload interface{}) (*http.Response, envelope) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(s.t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

// login signs up and logs in, returning the bearer token and the session cookie.
func (s *testServer) login(area, email string) (string, *http.Cookie) {
	s.t.Helper()
	creds := map[string]string{"firstName": "Test", "lastName": "Person", "email": email, "password": "secret123"}
	resp, _ := s.json(http.MethodPost, "/api/v1/"+area+"/signup", "", creds)
	require.Equal(s.t, http.StatusCreated, resp.StatusCode)

	resp, env := s.json(http.MethodPost, "/api/v1/"+area+"/login", "", map[string]string{"email": email, "password": "secret123"})
	require.Equal(s.t, http.StatusOK, resp.StatusCode)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.CookieName {
			cookie = c
		}
	}
	require.NotNil(s.t, cookie)
	assert.True(s.t, cookie.HttpOnly)
	assert.Equal(s.t, http.SameSiteStrictMode, cookie.SameSite)
	return data.Token, cookie
}

type formFile struct {
	field, name, contentType string
	body                     []byte
}

func multipartRequest(t *testing.T, method, path, token string, fields map[string][]string, files ...formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(key, v))
		}
	}
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

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func coverPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(64, 36, color.NRGBA{G: 128, A: 255}), imaging.PNG))
	return buf.Bytes()
}

type courseView struct {
	ID      string `json:"_id"`
	Title   string `json:"title"`
	Price   int64  `json:"price"`
	Content []struct {
		Kind  string `json:"type"`
		Title string `json:"title"`
		File  *struct {
			URL string `json:"url"`
		} `json:"file"`
	} `json:"content"`
	Creator *struct {
		FirstName string `json:"firstName"`
	} `json:"creator"`
}

func (s *testServer) createCourse(token string) courseView {
	s.t.Helper()
	req := multipartRequest(s.t, http.MethodPost, "/api/v1/course/create", token,
		map[string][]string{
			"title":           {"Algo 101"},
			"description":     {"Algorithms from scratch"},
			"price":           {"499"},
			"contentMetadata": {`{"title":"Intro","description":"Welcome"}`, `{"title":"Notes"}`},
		},
		formFile{"image", "img1.png", "image/png", coverPNG(s.t)},
		formFile{"content", "video1.mp4", "video/mp4", bytes.Repeat([]byte{0x42}, 2048)},
		formFile{"content", "notes.pdf", "application/pdf", []byte("%PDF-1.4\n%%EOF\n")},
	)
	resp, env := s.do(req)
	require.Equal(s.t, http.StatusCreated, resp.StatusCode, env.Message)

	var course courseView
	require.NoError(s.t, json.Unmarshal(env.Data, &course))
	return course
}

func TestCourseMarketplaceScenario(t *testing.T) {
	s := newTestServer(t)
	adminA, _ := s.login("admin", "a@example.com")
	adminB, _ := s.login("admin", "b@example.com")

	course := s.createCourse(adminA)
	assert.Equal(t, "Algo 101", course.Title)
	assert.Equal(t, int64(499), course.Price)
	require.Len(t, course.Content, 2)
	assert.Equal(t, "video", course.Content[0].Kind)
	assert.Equal(t, "Intro", course.Content[0].Title)
	assert.Equal(t, "document", course.Content[1].Kind)
	assert.Equal(t, "Notes", course.Content[1].Title)

	// another admin cannot delete it, and learns nothing about its existence
	resp, env := s.json(http.MethodDelete, "/api/v1/course/delete/"+course.ID, adminB, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Status)

	resp, env = s.json(http.MethodGet, "/api/v1/course/"+course.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var public courseView
	require.NoError(t, json.Unmarshal(env.Data, &public))
	require.Len(t, public.Content, 2)
	assert.Nil(t, public.Content[0].File)
	require.NotNil(t, public.Creator)
	assert.Equal(t, "Test", public.Creator.FirstName)

	// learner authenticates with the session cookie only
	_, cookie := s.login("user", "u@example.com")
	buy := func() (*http.Response, envelope) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/course/buy/"+course.ID, nil)
		req.AddCookie(cookie)
		return s.do(req)
	}

	resp, env = buy()
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var intent struct {
		OrderID      string `json:"orderId"`
		ClientSecret string `json:"clientSecret"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &intent))
	assert.Equal(t, "snap-"+intent.OrderID, intent.ClientSecret)

	raw, _ := json.Marshal(map[string]string{"orderId": intent.OrderID})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/order/confirm", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	resp, env = s.do(req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)

	resp, env = buy()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User has already purchased this course", env.Message)
	assert.Equal(t, 1, s.processor.intents)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/course/"+course.ID+"/content", nil)
	req.AddCookie(cookie)
	resp, env = s.do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var content courseView
	require.NoError(t, json.Unmarshal(env.Data, &content))
	require.NotNil(t, content.Content[0].File)
	assert.True(t, strings.HasPrefix(content.Content[0].File.URL, "/uploads/course_videos/"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/user/purchases", nil)
	req.AddCookie(cookie)
	resp, env = s.do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var purchased []courseView
	require.NoError(t, json.Unmarshal(env.Data, &purchased))
	require.Len(t, purchased, 1)
	assert.Equal(t, course.ID, purchased[0].ID)

	// the owner can still delete it
	resp, _ = s.json(http.MethodDelete, "/api/v1/course/delete/"+course.ID, adminA, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateCourseMissingFields(t *testing.T) {
	s := newTestServer(t)
	admin, _ := s.login("admin", "a@example.com")

	req := multipartRequest(t, http.MethodPost, "/api/v1/course/create", admin,
		map[string][]string{"title": {"Algo 101"}},
	)
	resp, env := s.do(req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var details map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &details))
	assert.Contains(t, details, "description")
	assert.Contains(t, details, "price")
	assert.Contains(t, details, "image")

	resp, env = s.json(http.MethodGet, "/api/v1/course/courses", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestUpdateByNonOwnerIsForbidden(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.login("admin", "a@example.com")
	other, _ := s.login("admin", "b@example.com")
	course := s.createCourse(owner)

	req := multipartRequest(t, http.MethodPut, "/api/v1/course/update/"+course.ID, other,
		map[string][]string{"title": {"Hijacked"}},
	)
	resp, _ := s.do(req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = multipartRequest(t, http.MethodPut, "/api/v1/course/update/"+course.ID, owner,
		map[string][]string{"title": {"Algo 102"}},
		formFile{"content", "extra.pdf", "application/pdf", []byte("%PDF-1.4\n%%EOF\n")},
	)
	resp, env := s.do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	var updated courseView
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Algo 102", updated.Title)
	require.Len(t, updated.Content, 3)
	assert.Equal(t, "Lecture 3", updated.Content[2].Title)
}

func TestLoginErrorsLookTheSame(t *testing.T) {
	s := newTestServer(t)
	s.login("admin", "a@example.com")

	wrong, wrongEnv := s.json(http.MethodPost, "/api/v1/admin/login", "", map[string]string{"email": "a@example.com", "password": "bad-password"})
	unknown, unknownEnv := s.json(http.MethodPost, "/api/v1/admin/login", "", map[string]string{"email": "z@example.com", "password": "secret123"})

	assert.Equal(t, http.StatusUnauthorized, wrong.StatusCode)
	assert.Equal(t, wrong.StatusCode, unknown.StatusCode)
	assert.Equal(t, wrongEnv, unknownEnv)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	learner, _ := s.login("user", "u@example.com")

	resp, _ := s.json(http.MethodGet, "/api/v1/admin/courses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// a learner token is not an admin token
	resp, _ = s.json(http.MethodGet, "/api/v1/admin/courses", learner, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := s.json(http.MethodGet, "/api/v1/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Route not found", env.Message)
}
