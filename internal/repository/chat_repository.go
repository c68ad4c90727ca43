package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"studyflow_backend/internal/model"
	"studyflow_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const chatCacheTTL = 10 * time.Minute

type ChatRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewChatRepository(db *gorm.DB, rdb *redis.Client) *ChatRepository {
	return &ChatRepository{DB: db, Redis: rdb}
}

func chatCacheKey(userID, courseID uint) string {
	return fmt.Sprintf("chat:recent:%d:%d", userID, courseID)
}

func (r *ChatRepository) Create(ctx context.Context, msg *model.ChatMessage) error {
	if err := r.DB.Create(msg).Error; err != nil {
		return err
	}
	if r.Redis != nil {
		// 新消息写入后使缓存失效
		if err := r.Redis.Del(ctx, chatCacheKey(msg.UserID, msg.CourseID)).Err(); err != nil {
			logger.Log.Warn("Failed to invalidate chat cache", zap.Error(err))
		}
	}
	return nil
}

// Recent 取课程内最近limit条消息，时间升序，优先读Redis缓存
func (r *ChatRepository) Recent(ctx context.Context, userID, courseID uint, limit int) ([]model.ChatMessage, error) {
	key := chatCacheKey(userID, courseID)

	if r.Redis != nil {
		cached, err := r.Redis.Get(ctx, key).Result()
		if err == nil {
			var msgs []model.ChatMessage
			if jsonErr := json.Unmarshal([]byte(cached), &msgs); jsonErr == nil {
				return msgs, nil
			}
		}
	}

	var msgs []model.ChatMessage
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}

	// 倒序查询结果翻转为时间升序
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	if r.Redis != nil {
		if data, jsonErr := json.Marshal(msgs); jsonErr == nil {
			if err := r.Redis.Set(ctx, key, data, chatCacheTTL).Err(); err != nil {
				logger.Log.Warn("Failed to cache chat history", zap.Error(err))
			}
		}
	}

	return msgs, nil
}

// RecentUserMessages 课程内最近limit条用户提问，时间升序
func (r *ChatRepository) RecentUserMessages(userID, courseID uint, limit int) ([]string, error) {
	var contents []string
	err := r.DB.Model(&model.ChatMessage{}).
		Where("user_id = ? AND course_id = ? AND role = ?", userID, courseID, model.RoleUser).
		Order("id DESC").
		Limit(limit).
		Pluck("content", &contents).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(contents)-1; i < j; i, j = i+1, j-1 {
		contents[i], contents[j] = contents[j], contents[i]
	}
	return contents, nil
}

// CountUserTurns 统计用户在课程内发出的提问条数
func (r *ChatRepository) CountUserTurns(userID, courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ChatMessage{}).
		Where("user_id = ? AND course_id = ? AND role = ?", userID, courseID, model.RoleUser).
		Count(&count).Error
	return count, err
}
