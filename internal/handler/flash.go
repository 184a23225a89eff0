package handler

import (
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

// flash用cookieセッション。successかerrorの一方を一度だけ表示する
const (
	sessionName  = "catalog_session"
	flashSuccess = "success"
	flashError   = "error"
)

func newSessionStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
	}
	return store
}

func (h *ProductHandler) setFlash(c echo.Context, key string, msg string) {
	sess, _ := h.sessions.Get(c.Request(), sessionName)
	sess.AddFlash(msg, key)
	_ = sess.Save(c.Request(), c.Response())
}

// 読み出すと消える（次のレンダリングにだけ出す）
func (h *ProductHandler) popFlash(c echo.Context) (string, string) {
	sess, _ := h.sessions.Get(c.Request(), sessionName)

	var success, errMsg string
	if f := sess.Flashes(flashSuccess); len(f) > 0 {
		success, _ = f[0].(string)
	}
	if f := sess.Flashes(flashError); len(f) > 0 {
		errMsg, _ = f[0].(string)
	}
	_ = sess.Save(c.Request(), c.Response())

	return success, errMsg
}
