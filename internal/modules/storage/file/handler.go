package file

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	appcfg "github.com/memloc/core/internal/config"
	"github.com/memloc/core/internal/middleware"
	"github.com/memloc/core/internal/models"
	"github.com/memloc/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Uploads larger than this are rejected before touching disk.
const maxUploadBytes = 32 << 20

// Handler manages asset upload, retrieval, and deletion. Assets are stored
// on local disk and optionally mirrored to S3 for CDN delivery.
type Handler struct {
	db        *gorm.DB
	staticDir string
	mirror    *s3Mirror
	log       *zap.Logger
}

func NewHandler(db *gorm.DB, cfg *appcfg.AppConfig, log *zap.Logger) *Handler {
	h := &Handler{
		db:        db,
		staticDir: cfg.StaticDir,
		log:       log,
	}
	if cfg.S3.Enable {
		mirror, err := newS3Mirror(cfg.S3)
		if err != nil {
			log.Warn("s3 mirror disabled", zap.Error(err))
		} else {
			h.mirror = mirror
		}
	}
	return h
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/files")

	g.POST("/upload", authMW, h.upload)
	g.GET("/:name", h.get)
	g.DELETE("/:name", authMW, h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.BadRequest(c, "file is too large")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer src.Close()
	payload, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if int64(len(payload)) > maxUploadBytes {
		response.BadRequest(c, "file is too large")
		return
	}

	filename := buildFileName(fileHeader.Filename)
	if err := os.MkdirAll(h.staticDir, 0o755); err != nil {
		response.InternalError(c, err)
		return
	}
	if err := os.WriteFile(filepath.Join(h.staticDir, filename), payload, 0o644); err != nil {
		response.InternalError(c, err)
		return
	}

	asset := models.AssetModel{
		UploaderID:   middleware.CurrentUserID(c),
		FileName:     filename,
		OriginalName: filepath.Base(strings.TrimSpace(fileHeader.Filename)),
		MimeType:     detectContentType(fileHeader.Filename, payload, fileHeader.Header.Get("Content-Type")),
		SizeBytes:    int64(len(payload)),
	}

	// Mirror failures leave the asset local-only rather than failing the upload.
	if h.mirror != nil {
		remoteURL, err := h.mirror.Upload(c.Request.Context(), assetObjectKey(filename), payload, asset.MimeType)
		if err != nil {
			h.log.Warn("s3 mirror upload failed", zap.String("file", filename), zap.Error(err))
		} else {
			asset.RemoteURL = remoteURL
		}
	}

	if err := h.db.Create(&asset).Error; err != nil {
		_ = os.Remove(filepath.Join(h.staticDir, filename))
		response.InternalError(c, err)
		return
	}

	response.Created(c, gin.H{
		"id":         asset.ID,
		"name":       asset.FileName,
		"url":        h.assetURL(c, &asset),
		"mime_type":  asset.MimeType,
		"size_bytes": asset.SizeBytes,
	})
}

func (h *Handler) get(c *gin.Context) {
	name := safeName(c.Param("name"))
	if name == "" {
		response.NotFound(c)
		return
	}

	var asset models.AssetModel
	if err := h.db.Where("file_name = ?", name).First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}

	path := filepath.Join(h.staticDir, name)
	if _, err := os.Stat(path); err != nil {
		if asset.RemoteURL != "" {
			c.Redirect(302, asset.RemoteURL)
			return
		}
		response.NotFound(c)
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000")
	if asset.MimeType != "" {
		c.Header("Content-Type", asset.MimeType)
	}
	c.File(path)
}

func (h *Handler) delete(c *gin.Context) {
	name := safeName(c.Param("name"))
	if name == "" {
		response.NotFound(c)
		return
	}

	var asset models.AssetModel
	if err := h.db.Where("file_name = ?", name).First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	if asset.UploaderID != middleware.CurrentUserID(c) {
		response.Forbidden(c)
		return
	}

	_ = os.Remove(filepath.Join(h.staticDir, name))
	if err := h.db.Delete(&asset).Error; err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

// assetURL prefers the CDN URL when the asset was mirrored.
func (h *Handler) assetURL(c *gin.Context, asset *models.AssetModel) string {
	if asset.RemoteURL != "" {
		return asset.RemoteURL
	}
	p := c.Request.URL.Path
	if idx := strings.Index(p, "/files/"); idx >= 0 {
		return p[:idx] + "/files/" + asset.FileName
	}
	return "/files/" + asset.FileName
}
