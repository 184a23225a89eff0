package repository

import "mime/multipart"

// アップロード画像の保存・削除だけを約束。URLはここでは作らない。
type FileStore interface {
	// 一意な名前で書き込み、保存ルートからの相対パスを返す
	Save(file *multipart.FileHeader) (string, error)
	// 保存済みファイルを削除（画像差し替え時の旧ファイル用）
	Remove(relPath string) error
}
