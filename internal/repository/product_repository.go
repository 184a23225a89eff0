package repository

import (
	"catalog/internal/domain/model"
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	// 新しい順（created_at desc, id desc）で全件返す
	List(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	// replaceImage=true のときだけ画像パスのペアも書き換える
	Update(ctx context.Context, p model.Product, replaceImage bool) error
	Delete(ctx context.Context, id int64) error
}
