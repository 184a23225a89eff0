package handler

import (
	"errors"
	"net/http"
	"strconv"

	"catalog/internal/config"
	"catalog/internal/infra/storage"
	"catalog/internal/repository"
	"catalog/internal/usecase"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

// ユーザーに見せるメッセージ。生のエラー文は絶対に出さない
const (
	msgCreated = "Product created successfully."
	msgUpdated = "Product updated successfully."
	msgDeleted = "Product deleted successfully."

	msgUnexpected   = "An unexpected error occurred. Please try again."
	msgCreateFailed = "Failed to create product. Please try again."
	msgUpdateUnable = "Unable to update product. Please try again!"
	msgDeleteUnable = "Unable to delete product. Please try again!"
	msgFindUnable   = "Unable to find product. Please try again!"
)

// 内部エラーの種別
type failureKind int

const (
	failNotFound failureKind = iota
	failStorage
	failStore
	failUnknown
)

func classifyFailure(err error) failureKind {
	var storageErr *storage.StorageError
	var storeErr *usecase.StoreFailure
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return failNotFound
	case errors.As(err, &storageErr):
		return failStorage
	case errors.As(err, &storeErr):
		return failStore
	default:
		return failUnknown
	}
}

// action×エラー種別→ユーザー向けメッセージの対応表
var failureMessages = map[string]map[failureKind]string{
	"create": {
		failNotFound: msgUnexpected,
		failStorage:  msgUnexpected,
		failStore:    msgCreateFailed,
		failUnknown:  msgUnexpected,
	},
	"update": {
		failNotFound: msgUpdateUnable,
		failStorage:  msgUnexpected,
		failStore:    msgUnexpected,
		failUnknown:  msgUnexpected,
	},
	"delete": {
		failNotFound: msgDeleteUnable,
		failStorage:  msgUnexpected,
		failStore:    msgUnexpected,
		failUnknown:  msgUnexpected,
	},
	"find": {
		failNotFound: msgFindUnable,
		failStorage:  msgUnexpected,
		failStore:    msgUnexpected,
		failUnknown:  msgUnexpected,
	},
}

// /products の画面とフォーム処理
type ProductHandler struct {
	uc       *usecase.ProductUsecase
	cfg      config.Config
	sessions *sessions.CookieStore
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase, cfg config.Config) *ProductHandler {
	return &ProductHandler{
		uc:       uc,
		cfg:      cfg,
		sessions: newSessionStore(cfg.SessionSecret),
	}
}

// 商品CRUDのルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/products")
	})

	e.GET("/products", h.list)
	e.GET("/products/create", h.createForm)
	e.POST("/products", h.create)
	e.GET("/products/:id", h.detail)
	e.GET("/products/:id/edit", h.editForm)
	e.PUT("/products/:id", h.update)
	e.DELETE("/products/:id", h.deleteProduct)
}

// エラーをログに残し、対応表のメッセージをflashに積む
func (h *ProductHandler) flashFailure(c echo.Context, action string, err error) {
	kind := classifyFailure(err)
	if kind != failNotFound {
		c.Logger().Errorf("%s product failed: %v", action, err)
	}
	h.setFlash(c, flashError, failureMessages[action][kind])
}

// multipartフォームから入力DTOを組み立てる
func bindProductForm(c echo.Context) usecase.ProductFormInput {
	in := usecase.ProductFormInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       c.FormValue("price"),
	}
	// ファイル未選択はエラーではない
	if file, err := c.FormFile("featured_image"); err == nil {
		in.FeaturedImage = file
	}
	return in
}

// GET /products
func (h *ProductHandler) list(c echo.Context) error {
	success, errMsg := h.popFlash(c)

	products, err := h.uc.ListProducts(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("list products failed: %v", err)
		return c.Render(http.StatusInternalServerError, "products_index.html", IndexView{
			Products: []ProductView{},
			Error:    msgUnexpected,
		})
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, toProductView(p, h.cfg.PublicStorageBase))
	}

	return c.Render(http.StatusOK, "products_index.html", IndexView{
		Products: views,
		Success:  success,
		Error:    errMsg,
	})
}

// GET /products/create
func (h *ProductHandler) createForm(c echo.Context) error {
	success, errMsg := h.popFlash(c)
	return c.Render(http.StatusOK, "product_form.html", FormView{
		Mode:    ModeCreate,
		Errors:  map[string]string{},
		Success: success,
		Error:   errMsg,
	})
}

// POST /products
func (h *ProductHandler) create(c echo.Context) error {
	in := bindProductForm(c)

	_, err := h.uc.CreateProduct(c.Request().Context(), in)
	if err != nil {
		// 検証NG：入力値とフィールド別エラーを載せてフォームを再表示
		if vf, ok := usecase.AsValidationFailure(err); ok {
			return c.Render(http.StatusUnprocessableEntity, "product_form.html", FormView{
				Mode:   ModeCreate,
				Values: FormValues{Name: in.Name, Description: in.Description, Price: in.Price},
				Errors: vf.Fields,
			})
		}
		h.flashFailure(c, "create", err)
		return c.Redirect(http.StatusSeeOther, "/products/create")
	}

	h.setFlash(c, flashSuccess, msgCreated)
	return c.Redirect(http.StatusSeeOther, "/products")
}

// GET /products/:id
func (h *ProductHandler) detail(c echo.Context) error {
	return h.renderProductForm(c, ModeView)
}

// GET /products/:id/edit
func (h *ProductHandler) editForm(c echo.Context) error {
	return h.renderProductForm(c, ModeEdit)
}

func (h *ProductHandler) renderProductForm(c echo.Context, mode FormMode) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.setFlash(c, flashError, msgFindUnable)
		return c.Redirect(http.StatusSeeOther, "/products")
	}

	p, err := h.uc.GetProduct(c.Request().Context(), id)
	if err != nil {
		h.flashFailure(c, "find", err)
		return c.Redirect(http.StatusSeeOther, "/products")
	}

	success, errMsg := h.popFlash(c)
	view := toProductView(p, h.cfg.PublicStorageBase)

	return c.Render(http.StatusOK, "product_form.html", FormView{
		Mode:                      mode,
		ID:                        p.ID,
		Values:                    FormValues{Name: p.Name, Description: p.Description, Price: view.Price},
		FeaturedImageURL:          view.FeaturedImageURL,
		FeaturedImageOriginalName: view.FeaturedImageOriginalName,
		Errors:                    map[string]string{},
		Success:                   success,
		Error:                     errMsg,
	})
}

// PUT /products/:id
func (h *ProductHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.setFlash(c, flashError, msgUpdateUnable)
		return c.Redirect(http.StatusSeeOther, "/products")
	}

	in := bindProductForm(c)

	if err := h.uc.UpdateProduct(c.Request().Context(), id, in); err != nil {
		if vf, ok := usecase.AsValidationFailure(err); ok {
			view := FormView{
				Mode:   ModeEdit,
				ID:     id,
				Values: FormValues{Name: in.Name, Description: in.Description, Price: in.Price},
				Errors: vf.Fields,
			}
			// 再表示でも現在の画像は出し続ける
			if p, getErr := h.uc.GetProduct(c.Request().Context(), id); getErr == nil {
				pv := toProductView(p, h.cfg.PublicStorageBase)
				view.FeaturedImageURL = pv.FeaturedImageURL
				view.FeaturedImageOriginalName = pv.FeaturedImageOriginalName
			}
			return c.Render(http.StatusUnprocessableEntity, "product_form.html", view)
		}

		h.flashFailure(c, "update", err)
		if classifyFailure(err) == failNotFound {
			return c.Redirect(http.StatusSeeOther, "/products")
		}
		return c.Redirect(http.StatusSeeOther, "/products/"+c.Param("id")+"/edit")
	}

	h.setFlash(c, flashSuccess, msgUpdated)
	return c.Redirect(http.StatusSeeOther, "/products")
}

// DELETE /products/:id
func (h *ProductHandler) deleteProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.setFlash(c, flashError, msgDeleteUnable)
		return c.Redirect(http.StatusSeeOther, "/products")
	}

	if err := h.uc.DeleteProduct(c.Request().Context(), id); err != nil {
		h.flashFailure(c, "delete", err)
		return c.Redirect(http.StatusSeeOther, "/products")
	}

	h.setFlash(c, flashSuccess, msgDeleted)
	return c.Redirect(http.StatusSeeOther, "/products")
}
