package usecase

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"catalog/internal/domain/model"
	repo "catalog/internal/repository"
)

// フォーム検証に失敗。Fieldsはフォームのフィールド名→メッセージ
type ValidationFailure struct {
	Fields map[string]string
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

func AsValidationFailure(err error) (*ValidationFailure, bool) {
	var vf *ValidationFailure
	ok := errors.As(err, &vf)
	return vf, ok
}

// DB書き込み・読み出しの失敗。詳細はログ用で、利用者には見せない
type StoreFailure struct {
	Err error
}

func (e *StoreFailure) Error() string {
	return fmt.Sprintf("store: %v", e.Err)
}

func (e *StoreFailure) Unwrap() error {
	return e.Err
}

// POST/PUTのフォーム入力。Priceは未パースの生文字列のまま受け取る
type ProductFormInput struct {
	Name          string
	Description   string
	Price         string
	FeaturedImage *multipart.FileHeader // 任意
}

// フォーム検証。合格ならパース済み価格、違反ならフィールド別メッセージを返す
type ProductFormValidator interface {
	ValidateProductForm(in ProductFormInput) (float64, map[string]string)
}

// リクエストを失敗させないエラー（旧画像の削除失敗など）の記録先
type Logger interface {
	Errorf(format string, args ...interface{})
}

type ProductUsecase struct {
	productRepo repo.ProductRepository
	fileStore   repo.FileStore
	validator   ProductFormValidator
	logger      Logger
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	fileStore repo.FileStore,
	validator ProductFormValidator,
	logger Logger,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		fileStore:   fileStore,
		validator:   validator,
		logger:      logger,
	}
}

// 全商品を新しい順で返す
func (u *ProductUsecase) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := u.productRepo.List(ctx)
	if err != nil {
		return nil, &StoreFailure{Err: err}
	}
	return products, nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, &StoreFailure{Err: err}
	}
	return p, nil
}

// 検証 → （あれば）画像保存 → 行の作成
func (u *ProductUsecase) CreateProduct(ctx context.Context, in ProductFormInput) (model.Product, error) {
	price, fieldErrors := u.validator.ValidateProductForm(in)
	if len(fieldErrors) > 0 {
		return model.Product{}, &ValidationFailure{Fields: fieldErrors}
	}

	var imagePath *string
	var originalName *string
	if in.FeaturedImage != nil {
		path, err := u.fileStore.Save(in.FeaturedImage)
		if err != nil {
			return model.Product{}, err
		}
		imagePath = &path
		name := in.FeaturedImage.Filename
		originalName = &name
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Name:                      in.Name,
		Description:               in.Description,
		Price:                     price,
		FeaturedImage:             imagePath,
		FeaturedImageOriginalName: originalName,
	})
	if err != nil {
		return model.Product{}, &StoreFailure{Err: err}
	}
	return p, nil
}

// 検証 → 既存行の取得 → （あれば）新画像保存 → 行の更新 → 旧画像の削除
func (u *ProductUsecase) UpdateProduct(ctx context.Context, id int64, in ProductFormInput) error {
	price, fieldErrors := u.validator.ValidateProductForm(in)
	if len(fieldErrors) > 0 {
		return &ValidationFailure{Fields: fieldErrors}
	}

	current, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return repo.ErrNotFound
	}
	if err != nil {
		return &StoreFailure{Err: err}
	}

	updated := model.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       price,
	}

	replaceImage := in.FeaturedImage != nil
	if replaceImage {
		path, err := u.fileStore.Save(in.FeaturedImage)
		if err != nil {
			return err
		}
		name := in.FeaturedImage.Filename
		updated.FeaturedImage = &path
		updated.FeaturedImageOriginalName = &name
	}

	if err := u.productRepo.Update(ctx, updated, replaceImage); err != nil {
		if err == repo.ErrNotFound {
			return repo.ErrNotFound
		}
		return &StoreFailure{Err: err}
	}

	// 差し替えに成功したら旧画像を消す。失敗してもリクエストは成功のまま
	if replaceImage && current.FeaturedImage != nil {
		if err := u.fileStore.Remove(*current.FeaturedImage); err != nil {
			u.logger.Errorf("orphan image cleanup failed: %v", err)
		}
	}

	return nil
}

// 行の削除。保存済み画像は残す（パスだけ孤児になる）
func (u *ProductUsecase) DeleteProduct(ctx context.Context, id int64) error {
	err := u.productRepo.Delete(ctx, id)
	if err == repo.ErrNotFound {
		return repo.ErrNotFound
	}
	if err != nil {
		return &StoreFailure{Err: err}
	}
	return nil
}
