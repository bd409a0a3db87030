package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/domain"
	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/repository"
	"github.com/amalkrishna0123/Chinju-StoreOrg/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type testEnv struct {
	router   *gin.Engine
	store    *repository.MemoryDocumentStore
	sessions *usecase.SessionRegistry
}

type apiResponse struct {
	Status  string          `json:"Status"`
	Message string          `json:"Message"`
	Data    json.RawMessage `json:"Data"`
}

type sessionBody struct {
	SessionID string `json:"sessionId"`
	usecase.FormView
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ctx := context.Background()
	store := repository.NewMemoryDocumentStore(logger)
	require.NoError(t, store.Put(ctx, domain.ProductsCollection, "p1", map[string]interface{}{
		"name":            "Milk",
		"imageBase64":     "data:image/png;base64,AAA",
		"subImagesBase64": []string{"data:image/png;base64,S0"},
		"originalPrice":   "50",
		"offer":           "0",
		"salePrice":       "50.00",
		"organic":         "Yes",
	}))
	require.NoError(t, store.Put(ctx, domain.CategoriesCollection, "m1", map[string]interface{}{"name": "Dairy", "type": "main"}))
	require.NoError(t, store.Put(ctx, domain.CategoriesCollection, "s1", map[string]interface{}{"name": "Milk", "type": "sub", "parentId": "m1"}))

	productRepo := repository.NewDocumentProductRepository(store, logger)
	categoryRepo := repository.NewDocumentCategoryRepository(store, logger)
	editUC := usecase.NewProductEditUseCase(productRepo, categoryRepo, usecase.EditOptions{
		RedirectDelay: 20 * time.Millisecond,
	}, logger)
	catalogUC := usecase.NewCatalogUseCase(productRepo, categoryRepo, logger)
	sessions := usecase.NewSessionRegistry(editUC, time.Minute, logger)
	t.Cleanup(sessions.CloseAll)

	router := gin.New()
	router.Use(RequestLogger(logger))
	NewEditHandler(sessions, editUC, logger).RegisterRoutes(router)
	NewCategoryHandler(catalogUC, logger).RegisterRoutes(router)
	NewProductHandler(catalogUC, logger).RegisterRoutes(router)

	return &testEnv{router: router, store: store, sessions: sessions}
}

func (e *testEnv) do(t *testing.T, req *http.Request) (int, apiResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body interface{}) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req)
}

func (e *testEnv) doUpload(t *testing.T, method, path, field string, files ...[]byte) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i, data := range files {
		part, err := mw.CreateFormFile(field, fmt.Sprintf("image%d.png", i))
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(t, req)
}

func decodeSession(t *testing.T, resp apiResponse) sessionBody {
	t.Helper()
	var body sessionBody
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	return body
}

func (e *testEnv) openSession(t *testing.T, productID string) sessionBody {
	t.Helper()
	code, resp := e.doJSON(t, http.MethodPost, "/products/"+productID+"/edit-sessions", nil)
	require.Equal(t, http.StatusCreated, code, resp.Message)
	return decodeSession(t, resp)
}

func TestOpenSession(t *testing.T) {
	env := newTestEnv(t)
	body := env.openSession(t, "p1")

	assert.NotEmpty(t, body.SessionID)
	require.NotNil(t, body.Product)
	assert.Equal(t, "Milk", body.Product.Name)
	assert.True(t, body.Product.Organic)
	assert.Equal(t, "data:image/png;base64,AAA", body.Preview)
	assert.Equal(t, []domain.SelectableCategory{{ID: "s1", Name: "Milk", Label: "Dairy → Milk"}}, body.Categories)
	assert.False(t, body.Loading)
}

func TestOpenSessionMissingProduct(t *testing.T) {
	env := newTestEnv(t)
	code, resp := env.doJSON(t, http.MethodPost, "/products/nope/edit-sessions", nil)

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, domain.MsgProductNotFound, resp.Message)
	body := decodeSession(t, resp)
	assert.Nil(t, body.Product)
	assert.True(t, body.Disabled)
	assert.Equal(t, 1, env.sessions.Len())
}

func TestUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	code, resp := env.doJSON(t, http.MethodGet, "/edit-sessions/unknown", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Fail", resp.Status)
}

func TestUpdateFieldRecomputesSalePrice(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openSession(t, "p1").SessionID

	code, resp := env.doJSON(t, http.MethodPatch, "/edit-sessions/"+sid+"/fields", map[string]interface{}{"name": "offer", "value": "10"})
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Equal(t, "45.00", decodeSession(t, resp).Product.SalePrice)

	code, resp = env.doJSON(t, http.MethodPatch, "/edit-sessions/"+sid+"/fields", map[string]interface{}{"name": "organic", "value": false})
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.False(t, decodeSession(t, resp).Product.Organic)
}

func TestUpdateFieldRejected(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openSession(t, "p1").SessionID

	code, _ := env.doJSON(t, http.MethodPatch, "/edit-sessions/"+sid+"/fields", map[string]interface{}{"name": "salePrice", "value": "1.00"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.doJSON(t, http.MethodPatch, "/edit-sessions/"+sid+"/fields", map[string]interface{}{"value": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestImages(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openSession(t, "p1").SessionID

	code, resp := env.doUpload(t, http.MethodPut, "/edit-sessions/"+sid+"/image", "image", pngBytes)
	require.Equal(t, http.StatusOK, code, resp.Message)
	body := decodeSession(t, resp)
	assert.True(t, strings.HasPrefix(body.Preview, "data:image/png;base64,"))
	assert.Equal(t, body.Preview, body.Product.ImageBase64)

	code, resp = env.doUpload(t, http.MethodPost, "/edit-sessions/"+sid+"/sub-images", "images", pngBytes, pngBytes)
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Len(t, decodeSession(t, resp).Product.SubImagesBase64, 3)

	code, resp = env.doJSON(t, http.MethodDelete, "/edit-sessions/"+sid+"/sub-images/0", nil)
	require.Equal(t, http.StatusOK, code)
	subs := decodeSession(t, resp).Product.SubImagesBase64
	require.Len(t, subs, 2)
	assert.NotEqual(t, "data:image/png;base64,S0", subs[0])

	code, resp = env.doJSON(t, http.MethodDelete, "/edit-sessions/"+sid+"/sub-images/9", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decodeSession(t, resp).Product.SubImagesBase64, 2)

	code, _ = env.doJSON(t, http.MethodDelete, "/edit-sessions/"+sid+"/sub-images/first", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.doUpload(t, http.MethodPut, "/edit-sessions/"+sid+"/image", "image", []byte("not an image"))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.doUpload(t, http.MethodPost, "/edit-sessions/"+sid+"/sub-images", "images")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSubmit(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openSession(t, "p1").SessionID

	_, _ = env.doJSON(t, http.MethodPatch, "/edit-sessions/"+sid+"/fields", map[string]interface{}{"name": "offer", "value": "10"})
	code, resp := env.doJSON(t, http.MethodPost, "/edit-sessions/"+sid+"/submit", nil)
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Equal(t, domain.MsgProductUpdated, resp.Message)

	doc, err := env.store.GetDocument(context.Background(), domain.ProductsCollection, "p1")
	require.NoError(t, err)
	assert.Equal(t, "45.00", doc.Fields["salePrice"])
	assert.Equal(t, true, doc.Fields["organic"])

	assert.Eventually(t, func() bool { return env.sessions.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSubmitRequiredFields(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openSession(t, "p1").SessionID

	_, _ = env.doJSON(t, http.MethodPatch, "/edit-sessions/"+sid+"/fields", map[string]interface{}{"name": "name", "value": ""})
	code, resp := env.doJSON(t, http.MethodPost, "/edit-sessions/"+sid+"/submit", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, domain.MsgRequiredFields, resp.Message)

	doc, err := env.store.GetDocument(context.Background(), domain.ProductsCollection, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Milk", doc.Fields["name"])
}

func TestCloseSession(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openSession(t, "p1").SessionID

	code, _ := env.doJSON(t, http.MethodDelete, "/edit-sessions/"+sid, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = env.doJSON(t, http.MethodDelete, "/edit-sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCatalogRoutes(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.doJSON(t, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, code)
	var categories []domain.SelectableCategory
	require.NoError(t, json.Unmarshal(resp.Data, &categories))
	assert.Equal(t, []domain.SelectableCategory{{ID: "s1", Name: "Milk", Label: "Dairy → Milk"}}, categories)

	code, resp = env.doJSON(t, http.MethodGet, "/products/p1", nil)
	require.Equal(t, http.StatusOK, code)
	var product domain.Product
	require.NoError(t, json.Unmarshal(resp.Data, &product))
	assert.Equal(t, "p1", product.ID)
	assert.True(t, product.Organic)

	code, _ = env.doJSON(t, http.MethodGet, "/products/p9", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestEventsStream(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openSession(t, "p1").SessionID

	server := httptest.NewServer(env.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/edit-sessions/" + sid + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The subscription is registered after the upgrade; give it a moment.
	time.Sleep(20 * time.Millisecond)
	code, _ := env.doJSON(t, http.MethodPost, "/edit-sessions/"+sid+"/submit", nil)
	require.Equal(t, http.StatusOK, code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev usecase.FormEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, usecase.FormEvent{Type: usecase.EventMessage, Success: domain.MsgProductUpdated}, ev)

	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, usecase.EventNavigate, ev.Type)
	assert.Equal(t, usecase.DefaultRedirectPath, ev.Target)

	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.True(t, errors.As(err, &closeErr), "%v", err)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
}

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("product p1: %w", domain.ErrNotFound), want: http.StatusNotFound},
		{err: domain.NewValidationError("name", "bad"), want: http.StatusBadRequest},
		{err: usecase.ErrFormNotLoaded, want: http.StatusConflict},
		{err: usecase.ErrSaveInProgress, want: http.StatusConflict},
		{err: usecase.ErrFormClosed, want: http.StatusGone},
		{err: &domain.FetchError{Resource: domain.ProductsCollection, Err: errors.New("x")}, want: http.StatusBadGateway},
		{err: &domain.UpdateError{Err: errors.New("x")}, want: http.StatusBadGateway},
		{err: errors.New("other"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapErrorToStatus(tt.err), tt.err.Error())
	}
}
