package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// 商品画像の保存先サブディレクトリ
const productDir = "products"

// 書き込み失敗をラップする。メッセージはログ用で、利用者にはそのまま見せない。
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ローカルディスクのFileStore実装。root配下に書く。
type LocalFileStore struct {
	root string
}

// DI
func NewLocalFileStore(root string) *LocalFileStore {
	return &LocalFileStore{root: root}
}

// Saveはアップロードを products/<uuid><ext> に書き込み、相対パスを返す。
// 拡張子はクライアントのファイル名から引き継ぐ（中身の検証はvalidatorの仕事）。
func (s *LocalFileStore) Save(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	name := uuid.NewString() + ext
	relPath := filepath.ToSlash(filepath.Join(productDir, name))

	dir := filepath.Join(s.root, productDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &StorageError{Op: "mkdir " + dir, Err: err}
	}

	src, err := file.Open()
	if err != nil {
		return "", &StorageError{Op: "open upload " + file.Filename, Err: err}
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", &StorageError{Op: "create " + relPath, Err: err}
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", &StorageError{Op: "write " + relPath, Err: err}
	}

	return relPath, nil
}

// Removeは保存済みファイルを削除する。差し替えで不要になった旧画像に使う。
func (s *LocalFileStore) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(relPath))); err != nil {
		return &StorageError{Op: "remove " + relPath, Err: err}
	}
	return nil
}
