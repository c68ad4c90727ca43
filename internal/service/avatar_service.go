package service

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image/png"
	"strings"
	"unicode"

	"studyflow_backend/pkg/logger"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"
)

const avatarSize = 200

// 头像背景色盘，按用户名哈希选取，同名用户颜色稳定
var avatarPalette = []string{
	"#0891B2",
	"#0E7490",
	"#06B6D4",
	"#155E75",
	"#22D3EE",
}

// AvatarService 注册时生成姓名首字母头像
type AvatarService struct {
	Storage *StorageService
}

func NewAvatarService(storage *StorageService) *AvatarService {
	return &AvatarService{Storage: storage}
}

// Generate 渲染首字母PNG并上传，失败时返回空串不阻断注册
func (s *AvatarService) Generate(ctx context.Context, name string) string {
	initials := extractInitials(name)

	dc := gg.NewContext(avatarSize, avatarSize)
	dc.SetHexColor(pickColor(name))
	dc.Clear()

	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		logger.Log.Warn("Failed to parse avatar font", zap.Error(err))
		return ""
	}
	face := truetype.NewFace(font, &truetype.Options{Size: 80})
	dc.SetFontFace(face)
	dc.SetHexColor("#FFFFFF")
	dc.DrawStringAnchored(initials, avatarSize/2, avatarSize/2, 0.5, 0.5)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		logger.Log.Warn("Failed to encode avatar", zap.Error(err))
		return ""
	}

	filename := fmt.Sprintf("avatars/%s.png", uuid.NewString())
	url, err := s.Storage.Upload(ctx, filename, &buf, int64(buf.Len()), "image/png")
	if err != nil {
		logger.Log.Warn("Failed to store avatar", zap.Error(err))
		return ""
	}
	return url
}

// extractInitials 取前两个词的首字母，空名退化为"?"
func extractInitials(name string) string {
	fields := strings.Fields(name)
	var sb strings.Builder
	for i, f := range fields {
		if i >= 2 {
			break
		}
		r := []rune(f)[0]
		sb.WriteRune(unicode.ToUpper(r))
	}
	if sb.Len() == 0 {
		return "?"
	}
	return sb.String()
}

func pickColor(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return avatarPalette[int(h.Sum32())%len(avatarPalette)]
}
