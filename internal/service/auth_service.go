package service

import (
	"context"
	"errors"
	"time"

	"studyflow_backend/internal/config"
	"studyflow_backend/internal/model"
	"studyflow_backend/internal/repository"
	"studyflow_backend/internal/util"
	"studyflow_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const blacklistPrefix = "jwt:blacklist:"

type AuthService struct {
	UserRepo    *repository.UserRepository
	ProfileRepo *repository.ProfileRepository
	StatsRepo   *repository.StatsRepository
	Avatar      *AvatarService
	Redis       *redis.Client
	JWTConfig   config.JWTConfig
}

func NewAuthService(
	userRepo *repository.UserRepository,
	profileRepo *repository.ProfileRepository,
	statsRepo *repository.StatsRepository,
	avatar *AvatarService,
	rdb *redis.Client,
	jwtConfig config.JWTConfig,
) *AuthService {
	return &AuthService{
		UserRepo:    userRepo,
		ProfileRepo: profileRepo,
		StatsRepo:   statsRepo,
		Avatar:      avatar,
		Redis:       rdb,
		JWTConfig:   jwtConfig,
	}
}

const minPasswordLen = 8

type RegisterInput struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
	College         string `json:"college"`
	Branch          string `json:"branch"`
	Semester        int    `json:"semester"`
	RollNo          string `json:"rollNo"`
}

// Register 创建用户、学籍档案和统计记录，三者在同一事务内
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, string, error) {
	if len(input.Password) < minPasswordLen {
		return nil, "", util.ErrPasswordTooShort
	}
	if input.Password != input.PasswordConfirm {
		return nil, "", util.ErrPasswordMismatch
	}

	exists, err := s.UserRepo.ExistsByEmail(input.Email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", util.ErrEmailRegistered
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hashed),
		Avatar:   s.Avatar.Generate(ctx, input.Name),
	}

	err = s.UserRepo.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.UserRepo.Create(tx, user); err != nil {
			return err
		}
		semester := input.Semester
		if semester <= 0 {
			semester = 1
		}
		profile := &model.StudentProfile{
			UserID:   user.ID,
			College:  input.College,
			Branch:   input.Branch,
			Semester: semester,
			RollNo:   input.RollNo,
		}
		if err := s.ProfileRepo.Create(tx, profile); err != nil {
			return err
		}
		return s.StatsRepo.Create(tx, &model.UserStats{UserID: user.ID})
	})
	if err != nil {
		return nil, "", err
	}

	token, err := util.GenerateJWT(user, s.JWTConfig.Secret, s.JWTConfig.ExpireTime)
	if err != nil {
		return nil, "", err
	}

	logger.Log.Info("User registered", zap.Uint("userID", user.ID), zap.String("email", user.Email))
	return user, token, nil
}

func (s *AuthService) Login(email, password string) (*model.User, string, error) {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", util.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", util.ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.UserRepo.Update(user); err != nil {
		logger.Log.Warn("Failed to record last login", zap.Error(err))
	}

	token, err := util.GenerateJWT(user, s.JWTConfig.Secret, s.JWTConfig.ExpireTime)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Logout 将token的jti拉黑至过期时刻，Redis不可用时登出按成功处理
func (s *AuthService) Logout(ctx context.Context, claims *util.Claims) error {
	if s.Redis == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.Redis.Set(ctx, blacklistPrefix+claims.ID, 1, ttl).Err(); err != nil {
		logger.Log.Warn("Failed to blacklist token", zap.Error(err))
		return nil
	}
	return nil
}

func (s *AuthService) IsBlacklisted(ctx context.Context, jti string) bool {
	if s.Redis == nil || jti == "" {
		return false
	}
	n, err := s.Redis.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false
	}
	return n > 0
}
