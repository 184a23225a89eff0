package handler_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"catalog/internal/config"
	"catalog/internal/domain/model"
	"catalog/internal/handler"
	"catalog/internal/infra/storage"
	repo "catalog/internal/repository"
	"catalog/internal/usecase"
	"catalog/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
)

// =====================
// テスト用の部品
// =====================

// ProductRepositoryのメモリ実装
type memProductRepo struct {
	seq  int64
	rows map[int64]model.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{rows: map[int64]model.Product{}}
}

func (r *memProductRepo) List(ctx context.Context) ([]model.Product, error) {
	items := make([]model.Product, 0, len(r.rows))
	for _, p := range r.rows {
		items = append(items, p)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return items, nil
}

func (r *memProductRepo) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.rows[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *memProductRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	r.seq++
	p.ID = r.seq
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.rows[p.ID] = p
	return p, nil
}

func (r *memProductRepo) Update(ctx context.Context, p model.Product, replaceImage bool) error {
	current, ok := r.rows[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	current.Name = p.Name
	current.Description = p.Description
	current.Price = p.Price
	if replaceImage {
		current.FeaturedImage = p.FeaturedImage
		current.FeaturedImageOriginalName = p.FeaturedImageOriginalName
	}
	current.UpdatedAt = time.Now()
	r.rows[p.ID] = current
	return nil
}

func (r *memProductRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.rows[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type testApp struct {
	e           *echo.Echo
	repo        *memProductRepo
	storageRoot string
}

// 本番と同じ構成（MethodOverride・レンダラ・実validator・実FileStore）を組む
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	storageRoot := t.TempDir()
	cfg := config.Config{
		Port:              "8080",
		StorageRoot:       storageRoot,
		PublicStorageBase: "/storage",
		SessionSecret:     "test-secret",
		GoEnv:             "test",
	}

	renderer, err := handler.NewRenderer("../../web/template/*.html")
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	e := echo.New()
	e.Renderer = renderer
	// ルーティング前の上書きなので本番（server.New）と同じく Pre に積む
	e.Pre(middleware.MethodOverrideWithConfig(middleware.MethodOverrideConfig{
		Getter: middleware.MethodFromForm("_method"),
	}))

	pRepo := newMemProductRepo()
	fileStore := storage.NewLocalFileStore(storageRoot)
	uc := usecase.NewProductUsecase(pRepo, fileStore, validator.NewProductValidator(), e.Logger)

	h := handler.NewProductHandler(uc, cfg)
	h.RegisterRoutes(e)

	return &testApp{e: e, repo: pRepo, storageRoot: storageRoot}
}

// multipart/form-dataのリクエストボディを組み立てる
func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField failed: %v", err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("featured_image", filename)
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write part failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer failed: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// =====================
// 一覧・表示
// =====================

func TestProductHandler_List(t *testing.T) {
	app := newTestApp(t)
	app.repo.Create(context.Background(), model.Product{Name: "Widget", Description: "A small widget", Price: 9.99})

	rec := app.do(httptest.NewRequest(http.MethodGet, "/products", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Widget")
	assert.Contains(t, body, "9.99")
}

func TestProductHandler_List_Empty(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/products", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No products found.")
}

func TestProductHandler_Detail_MissingRedirects(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(httptest.NewRequest(http.MethodGet, "/products/999", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/products", rec.Header().Get("Location"))
	//flashはcookieで次のページへ渡す
	assert.NotEmpty(t, rec.Header().Get("Set-Cookie"))
}

// =====================
// 作成
// =====================

func TestProductHandler_Create_Valid(t *testing.T) {
	app := newTestApp(t)

	body, contentType := multipartBody(t, map[string]string{
		"name":        "Widget",
		"description": "A small widget",
		"price":       "9.99",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := app.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/products", rec.Header().Get("Location"))

	items, _ := app.repo.List(context.Background())
	assert.Len(t, items, 1)
	assert.Equal(t, "Widget", items[0].Name)
	assert.Nil(t, items[0].FeaturedImage)
}

func TestProductHandler_Create_WithImage(t *testing.T) {
	app := newTestApp(t)

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3, 4, 5, 6}
	body, contentType := multipartBody(t, map[string]string{
		"name":        "Widget",
		"description": "A small widget",
		"price":       "9.99",
	}, "photo.jpg", jpeg)

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := app.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)

	items, _ := app.repo.List(context.Background())
	assert.Len(t, items, 1)
	if assert.NotNil(t, items[0].FeaturedImage) {
		//保存ファイルはアップロードとバイト単位で一致
		written, err := os.ReadFile(filepath.Join(app.storageRoot, filepath.FromSlash(*items[0].FeaturedImage)))
		assert.NoError(t, err)
		assert.Equal(t, jpeg, written)
	}
	if assert.NotNil(t, items[0].FeaturedImageOriginalName) {
		assert.Equal(t, "photo.jpg", *items[0].FeaturedImageOriginalName)
	}
}

func TestProductHandler_Create_ValidationError(t *testing.T) {
	app := newTestApp(t)

	body, contentType := multipartBody(t, map[string]string{
		"name":        "",
		"description": "A small widget",
		"price":       "9.99",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := app.do(req)

	//フォーム再表示：エラー文言と入力値が残る
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter the product name.")
	assert.Contains(t, rec.Body.String(), "A small widget")

	items, _ := app.repo.List(context.Background())
	assert.Len(t, items, 0)
}

// =====================
// 更新・削除（_method上書き経由）
// =====================

func TestProductHandler_Update_MethodOverride(t *testing.T) {
	app := newTestApp(t)
	created, _ := app.repo.Create(context.Background(), model.Product{Name: "Widget", Description: "A small widget", Price: 9.99})

	body, contentType := multipartBody(t, map[string]string{
		"_method":     "PUT",
		"name":        "Widget",
		"description": "A small widget",
		"price":       "12.50",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/products/1", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := app.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/products", rec.Header().Get("Location"))

	got, err := app.repo.FindByID(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.Equal(t, 12.50, got.Price)
}

func TestProductHandler_Update_ValidationError(t *testing.T) {
	app := newTestApp(t)
	app.repo.Create(context.Background(), model.Product{Name: "Widget", Description: "A small widget", Price: 9.99})

	body, contentType := multipartBody(t, map[string]string{
		"_method":     "PUT",
		"name":        "Widget",
		"description": "A small widget",
		"price":       "-1",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/products/1", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := app.do(req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "The product price must be at least 0.")

	//値は書き換わっていない
	got, _ := app.repo.FindByID(context.Background(), 1)
	assert.Equal(t, 9.99, got.Price)
}

func TestProductHandler_Update_ValidationErrorKeepsImage(t *testing.T) {
	app := newTestApp(t)

	imagePath := "products/current.jpg"
	originalName := "photo.jpg"
	app.repo.Create(context.Background(), model.Product{
		Name:                      "Widget",
		Description:               "A small widget",
		Price:                     9.99,
		FeaturedImage:             &imagePath,
		FeaturedImageOriginalName: &originalName,
	})

	body, contentType := multipartBody(t, map[string]string{
		"_method":     "PUT",
		"name":        "Widget",
		"description": "A small widget",
		"price":       "-1",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/products/1", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := app.do(req)

	//再表示フォームにも現在の画像が出たまま
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "/storage/products/current.jpg")
	assert.Contains(t, rec.Body.String(), "photo.jpg")
	assert.NotContains(t, rec.Body.String(), "No featured image available")
}

func TestProductHandler_Delete(t *testing.T) {
	app := newTestApp(t)
	app.repo.Create(context.Background(), model.Product{Name: "Widget", Description: "A small widget", Price: 9.99})

	body, contentType := multipartBody(t, map[string]string{"_method": "DELETE"}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/products/1", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := app.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/products", rec.Header().Get("Location"))

	items, _ := app.repo.List(context.Background())
	assert.Len(t, items, 0)
}

func TestProductHandler_Delete_Missing(t *testing.T) {
	app := newTestApp(t)

	body, contentType := multipartBody(t, map[string]string{"_method": "DELETE"}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/products/999", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := app.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/products", rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Header().Get("Set-Cookie"))
}

// flashは一度表示したら消える
func TestProductHandler_FlashShownOnce(t *testing.T) {
	app := newTestApp(t)

	body, contentType := multipartBody(t, map[string]string{
		"name":        "Widget",
		"description": "A small widget",
		"price":       "9.99",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := app.do(req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	cookies := rec.Result().Cookies()

	//1回目はバナーが出る
	req = httptest.NewRequest(http.MethodGet, "/products", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec = app.do(req)
	assert.Contains(t, rec.Body.String(), "Product created successfully.")

	//2回目は出ない
	req = httptest.NewRequest(http.MethodGet, "/products", nil)
	for _, ck := range rec.Result().Cookies() {
		req.AddCookie(ck)
	}
	rec = app.do(req)
	assert.NotContains(t, rec.Body.String(), "Product created successfully.")
}
