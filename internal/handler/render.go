package handler

import (
	"html/template"
	"io"
	"strconv"
	"strings"

	"catalog/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// html/templateをechoのRendererとして使う
type Renderer struct {
	templates *template.Template
}

func NewRenderer(glob string) (*Renderer, error) {
	t, err := template.ParseGlob(glob)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: t}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// 一覧の1行分の表示モデル
type ProductView struct {
	ID                        int64
	Name                      string
	Description               string
	Price                     string
	FeaturedImageURL          string // 空なら画像なし
	FeaturedImageOriginalName string
	CreatedAt                 string
}

// 一覧ページ
type IndexView struct {
	Products []ProductView
	Success  string
	Error    string
}

// フォームの3態
type FormMode string

const (
	ModeCreate FormMode = "create"
	ModeEdit   FormMode = "edit"
	ModeView   FormMode = "view"
)

// 再表示用のスカラー値（ファイルは保持しない）
type FormValues struct {
	Name        string
	Description string
	Price       string
}

// 作成/編集/閲覧フォームページ
type FormView struct {
	Mode                      FormMode
	ID                        int64
	Values                    FormValues
	FeaturedImageURL          string
	FeaturedImageOriginalName string
	Errors                    map[string]string
	Success                   string
	Error                     string
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', 2, 64)
}

// 保存パス→公開URL。パスの組み立てはここ（読み出し側）だけでやる
func imageURL(base string, relPath *string) string {
	if relPath == nil || *relPath == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + *relPath
}

func toProductView(p model.Product, publicBase string) ProductView {
	v := ProductView{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		Price:            formatPrice(p.Price),
		FeaturedImageURL: imageURL(publicBase, p.FeaturedImage),
		CreatedAt:        p.CreatedAt.Format("02-01-2006"),
	}
	if p.FeaturedImageOriginalName != nil {
		v.FeaturedImageOriginalName = *p.FeaturedImageOriginalName
	}
	return v
}
