package main

import (
	"catalog/internal/config"
	"catalog/internal/domain/model"
	"catalog/internal/handler"
	"catalog/internal/infra/db"
	infraRepo "catalog/internal/infra/repository"
	"catalog/internal/infra/storage"
	"catalog/internal/server"
	"catalog/internal/usecase"
	"catalog/internal/validator"

	"github.com/joho/godotenv"
)

func main() {
	// .envが無ければ環境変数だけで動かす
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(&model.Product{}); err != nil {
		panic(err)
	}

	//Server（ミドルウェア・レンダラ）
	e, err := server.New(cfg)
	if err != nil {
		panic(err)
	}

	//Repository（GORM実装）とFileStore生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	fileStore := storage.NewLocalFileStore(cfg.StorageRoot)

	//Usecase生成
	uc := usecase.NewProductUsecase(productRepo, fileStore, validator.NewProductValidator(), e.Logger)

	//Handler生成
	productH := handler.NewProductHandler(uc, cfg)
	server.RegisterRoutes(e, productH)

	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	if err := e.Start(addr); err != nil {
		panic(err)
	}
}
