package validator

import (
	"math"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"catalog/internal/usecase"

	"github.com/gabriel-vasile/mimetype"
	playground "github.com/go-playground/validator/v10"
)

// 画像の上限サイズ（KB）
const maxImageKB = 2048

// 受け付ける画像形式
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// 構造体フィールド名→フォームのフィールド名
var formKeys = map[string]string{
	"Name":        "name",
	"Description": "description",
}

// フィールド×ルールごとのユーザー向けメッセージ対応表
var fieldMessages = map[string]map[string]string{
	"name": {
		"required": "Please enter the product name.",
		"max":      "The product name may not be greater than 255 characters.",
	},
	"description": {
		"required": "Please enter the product description.",
		"max":      "The product description may not be greater than 1000 characters.",
	},
}

const (
	msgPriceRequired = "Please enter the product price."
	msgPriceNumeric  = "The product price must be a number."
	msgPriceMin      = "The product price must be at least 0."
	msgImageDecode   = "The featured image must be an image file."
	msgImageSize     = "The featured image size may not be greater than 2 MB."
	msgImageMimes    = "The featured image must be a file of type: jpg, jpeg, png, gif."
)

// タグの並び順がルールの評価順。フィールドごとに最初の違反だけ報告する。
type scalarFields struct {
	Name        string `validate:"required,max=255"`
	Description string `validate:"required,max=1000"`
}

type productValidator struct {
	validate *playground.Validate
}

// Usecaseには interface を依存注入
func NewProductValidator() usecase.ProductFormValidator {
	return &productValidator{validate: playground.New()}
}

// フォーム入力を検証し、パース済みの価格とフィールド別エラーを返す。副作用なし。
func (v *productValidator) ValidateProductForm(in usecase.ProductFormInput) (float64, map[string]string) {
	fieldErrors := map[string]string{}

	//name / description
	scalars := scalarFields{
		Name:        in.Name,
		Description: in.Description,
	}
	if err := v.validate.Struct(scalars); err != nil {
		if errs, ok := err.(playground.ValidationErrors); ok {
			for _, fe := range errs {
				key := formKeys[fe.StructField()]
				if _, dup := fieldErrors[key]; dup {
					continue
				}
				fieldErrors[key] = fieldMessages[key][fe.Tag()]
			}
		}
	}

	//price（required → numeric → min:0 の順）
	price, priceMsg := validatePrice(in.Price)
	if priceMsg != "" {
		fieldErrors["price"] = priceMsg
	}

	//featured_image は任意
	if in.FeaturedImage != nil {
		if msg := validateImage(in.FeaturedImage); msg != "" {
			fieldErrors["featured_image"] = msg
		}
	}

	if len(fieldErrors) > 0 {
		return 0, fieldErrors
	}
	return price, nil
}

func validatePrice(raw string) (float64, string) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, msgPriceRequired
	}
	f, err := strconv.ParseFloat(s, 64)
	// ParseFloatは "NaN" や "+Inf" も通すので有限数だけ受け付ける
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, msgPriceNumeric
	}
	if f < 0 {
		return 0, msgPriceMin
	}
	// DBはnumeric(10,2)。小数2桁に丸めて以降の比較を安定させる
	return math.Round(f*100) / 100, ""
}

// image（中身がデコード可能か） → max:2048KB → mimes の順で評価
func validateImage(file *multipart.FileHeader) string {
	src, err := file.Open()
	if err != nil {
		return msgImageDecode
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil || !strings.HasPrefix(mtype.String(), "image/") {
		return msgImageDecode
	}

	if file.Size > maxImageKB*1024 {
		return msgImageSize
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		return msgImageMimes
	}

	//拡張子と中身の食い違い（.pngを名乗るjpeg等）も弾く
	switch {
	case mtype.Is("image/jpeg"), mtype.Is("image/png"), mtype.Is("image/gif"):
		return ""
	default:
		return msgImageMimes
	}
}
