package server

import (
	"catalog/internal/config"
	"catalog/internal/handler"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// フォーム画面用テンプレートの場所
const templateGlob = "web/template/*.html"

// Newはミドルウェア・レンダラ・静的配信を設定したechoを返す。
func New(cfg config.Config) (*echo.Echo, error) {
	renderer, err := handler.NewRenderer(templateGlob)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	// HTMLフォームは PUT/DELETE を送れないので _method で上書きする。
	// ルーティング前に効かせる必要があるので Pre に積む
	e.Pre(middleware.MethodOverrideWithConfig(middleware.MethodOverrideConfig{
		Getter: middleware.MethodFromForm("_method"),
	}))

	e.Renderer = renderer

	// 保存済み画像の公開。URLは PublicStorageBase + 相対パス
	e.Static(cfg.PublicStorageBase, cfg.StorageRoot)

	return e, nil
}
