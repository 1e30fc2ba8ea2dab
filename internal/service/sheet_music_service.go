package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
	"github.com/noah-isme/music-lessons-api/pkg/storage"
)

// SheetMusicConfig governs accepted uploads.
type SheetMusicConfig struct {
	MaxBytes          int64
	AllowedExtensions []string
}

// SheetMusicUpload is an uploaded file as received from the client.
type SheetMusicUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// StoredSheetMusic records where an accepted upload was placed.
type StoredSheetMusic struct {
	OriginalName string
	Path         string
}

// SheetMusicService validates and stores sheet music under generated names.
type SheetMusicService struct {
	store      storage.FileStore
	logger     *zap.Logger
	maxSize    int64
	extensions []string
	allowed    map[string]struct{}
}

// NewSheetMusicService constructs a SheetMusicService.
func NewSheetMusicService(store storage.FileStore, logger *zap.Logger, cfg SheetMusicConfig) *SheetMusicService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{"pdf", "jpg", "jpeg", "png", "doc", "docx"}
	}
	svc := &SheetMusicService{store: store, logger: logger, maxSize: cfg.MaxBytes, allowed: make(map[string]struct{})}
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if _, dup := svc.allowed[ext]; dup || ext == "" {
			continue
		}
		svc.allowed[ext] = struct{}{}
		svc.extensions = append(svc.extensions, ext)
	}
	return svc
}

// Store validates the upload and writes it as <uuid>.<ext>.
func (s *SheetMusicService) Store(ctx context.Context, upload SheetMusicUpload) (*StoredSheetMusic, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(upload.Filename), "."))
	if _, ok := s.allowed[ext]; !ok {
		return nil, validationError(fmt.Sprintf("sheet music must be one of: %s", strings.Join(s.extensions, ", ")))
	}
	if upload.Size > s.maxSize {
		return nil, validationError(fmt.Sprintf("sheet music exceeds %d MB", s.maxSize>>20))
	}

	// The declared size is advisory; cap what is actually read.
	limited := &io.LimitedReader{R: upload.Content, N: s.maxSize + 1}
	path, err := s.store.Save(ctx, uuid.NewString()+"."+ext, limited)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store sheet music")
	}
	if limited.N <= 0 {
		s.Remove(ctx, path)
		return nil, validationError(fmt.Sprintf("sheet music exceeds %d MB", s.maxSize>>20))
	}

	return &StoredSheetMusic{OriginalName: filepath.Base(upload.Filename), Path: path}, nil
}

// Remove deletes a stored upload. Failures are logged and otherwise ignored.
func (s *SheetMusicService) Remove(ctx context.Context, path string) {
	if s == nil || path == "" {
		return
	}
	if err := s.store.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to remove sheet music", zap.String("path", path), zap.Error(err))
	}
}
