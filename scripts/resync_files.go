// 手动同步Gemini文件状态脚本
//
// 上传轮询在进程崩溃或超时后可能留下PROCESSING状态的记录，
// 此脚本逐条查询远端真实状态并回写数据库。
//
// 用法: go run scripts/resync_files.go

package main

import (
	"context"
	"log"

	"studyflow_backend/internal/config"
	"studyflow_backend/internal/model"
	"studyflow_backend/internal/service"
	"studyflow_backend/pkg/database"
	"studyflow_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	gemini := service.NewGeminiService(cfg.Gemini)
	ctx := context.Background()

	var files []model.UploadedFile
	if err := db.Where("gemini_state = ? AND is_deleted = ?", model.GeminiStateProcessing, false).Find(&files).Error; err != nil {
		log.Fatalf("查询待同步文件失败: %v", err)
	}

	log.Printf("待同步文件数: %d", len(files))

	for _, f := range files {
		remote, err := gemini.GetFile(ctx, f.GeminiResourceName)
		if err != nil {
			log.Printf("查询 %s 失败: %v", f.GeminiResourceName, err)
			continue
		}
		if remote.State == f.GeminiState {
			continue
		}
		if err := db.Model(&model.UploadedFile{}).Where("id = ?", f.ID).
			Update("gemini_state", remote.State).Error; err != nil {
			log.Printf("更新 %d 失败: %v", f.ID, err)
			continue
		}
		log.Printf("文件 %d: %s -> %s", f.ID, f.GeminiState, remote.State)
	}

	log.Println("同步完成")
}
