package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/ecumap/internal/config"
	"github.com/JonMunkholm/ecumap/internal/ecumap"
)

// StatusUploaded is the status reported for a freshly stored image.
const StatusUploaded = "uploaded"

// ErrBatchTooLarge is returned when a batch names more maps than allowed.
var ErrBatchTooLarge = errors.New("too many maps in batch")

// Options tunes the Service. Zero values fall back to config defaults.
type Options struct {
	MaxFileSize     int64
	FirmwareTTL     time.Duration
	MaxStoredImages int
	MaxConcurrent   int
	MaxWait         time.Duration
	Parallelism     int
	MaxBatchMaps    int
}

// OptionsFromConfig extracts the service settings from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxFileSize:     cfg.Upload.MaxFileSize,
		FirmwareTTL:     cfg.Upload.FirmwareTTL,
		MaxStoredImages: cfg.Upload.MaxStoredImages,
		MaxConcurrent:   cfg.Upload.MaxConcurrent,
		MaxWait:         cfg.Upload.MaxWaitTime,
		Parallelism:     cfg.Extract.Parallelism,
		MaxBatchMaps:    cfg.Extract.MaxBatchMaps,
	}
}

func (o Options) withDefaults() Options {
	d := OptionsFromConfig(config.Defaults())
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = d.MaxFileSize
	}
	if o.FirmwareTTL <= 0 {
		o.FirmwareTTL = d.FirmwareTTL
	}
	if o.MaxStoredImages <= 0 {
		o.MaxStoredImages = d.MaxStoredImages
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = d.MaxConcurrent
	}
	if o.MaxWait <= 0 {
		o.MaxWait = d.MaxWait
	}
	if o.Parallelism <= 0 {
		o.Parallelism = d.Parallelism
	}
	if o.MaxBatchMaps <= 0 {
		o.MaxBatchMaps = d.MaxBatchMaps
	}
	return o
}

// Service stores firmware images and extracts maps from them.
type Service struct {
	opts    Options
	history HistoryStore
	limiter *SlotLimiter
	now     func() time.Time

	mu     sync.RWMutex
	images map[string]*firmware
}

// NewService creates a Service. history may be nil, in which case uploads
// are not recorded.
func NewService(opts Options, history HistoryStore) *Service {
	opts = opts.withDefaults()
	return &Service{
		opts:    opts,
		history: history,
		limiter: NewSlotLimiter(opts.MaxConcurrent, opts.MaxWait),
		now:     time.Now,
		images:  make(map[string]*firmware),
	}
}

// HistoryEnabled reports whether uploads are being recorded.
func (s *Service) HistoryEnabled() bool {
	return s.history != nil
}

// StoreFirmware validates and stores an uploaded image. The data is copied;
// the caller may reuse its buffer.
func (s *Service) StoreFirmware(ctx context.Context, fileName string, data []byte) (FirmwareInfo, error) {
	if err := ValidateFileName(fileName); err != nil {
		return FirmwareInfo{}, err
	}
	if len(data) == 0 {
		return FirmwareInfo{}, ErrEmptyFile
	}
	if int64(len(data)) > s.opts.MaxFileSize {
		return FirmwareInfo{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(data), s.opts.MaxFileSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return FirmwareInfo{}, err
	}
	defer s.limiter.Release()

	image := make([]byte, len(data))
	copy(image, data)

	now := s.now()
	fw := &firmware{
		info: FirmwareInfo{
			ID:            uuid.New().String(),
			FileName:      fileName,
			Size:          len(image),
			BLAKE3:        Fingerprint(image),
			Status:        StatusUploaded,
			ChecksumValid: VerifyChecksum(image),
			UploadedAt:    now,
			ExpiresAt:     now.Add(s.opts.FirmwareTTL),
		},
		data: image,
	}

	s.mu.Lock()
	s.evictLocked(now)
	s.images[fw.info.ID] = fw
	s.mu.Unlock()

	slog.Info("firmware stored",
		"firmware_id", fw.info.ID,
		"filename", fileName,
		"size", fw.info.Size,
		"blake3", fw.info.BLAKE3,
	)

	s.recordUpload(ctx, fw.info)

	return fw.info, nil
}

// recordUpload writes the upload to history. Failures are logged only.
func (s *Service) recordUpload(ctx context.Context, info FirmwareInfo) {
	if s.history == nil {
		return
	}
	rec := UploadRecord{
		ID:            info.ID,
		FileName:      info.FileName,
		SizeBytes:     int64(info.Size),
		BLAKE3:        info.BLAKE3,
		ChecksumValid: info.ChecksumValid,
		IPAddress:     GetIPAddressFromContext(ctx),
		UserAgent:     GetUserAgentFromContext(ctx),
		UploadedAt:    info.UploadedAt,
	}
	if err := s.history.Record(ctx, rec); err != nil {
		slog.Error("failed to record upload history", "firmware_id", info.ID, "error", err)
	}
}

// Firmware returns the metadata of a stored image.
func (s *Service) Firmware(id string) (FirmwareInfo, error) {
	fw, err := s.lookup(id)
	if err != nil {
		return FirmwareInfo{}, err
	}
	return fw.info, nil
}

// ListFirmware returns the stored images, newest first.
func (s *Service) ListFirmware() []FirmwareInfo {
	now := s.now()

	s.mu.RLock()
	infos := make([]FirmwareInfo, 0, len(s.images))
	for _, fw := range s.images {
		if !fw.expired(now) {
			infos = append(infos, fw.info)
		}
	}
	s.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UploadedAt.After(infos[j].UploadedAt)
	})
	return infos
}

func (s *Service) lookup(id string) (*firmware, error) {
	s.mu.RLock()
	fw, ok := s.images[id]
	s.mu.RUnlock()

	if !ok || fw.expired(s.now()) {
		return nil, fmt.Errorf("%w: %s", ErrFirmwareNotFound, id)
	}
	return fw, nil
}

// ExtractFromFirmware extracts one map from a stored image.
func (s *Service) ExtractFromFirmware(ctx context.Context, id string, payload ecumap.DefinitionPayload) (*Extraction, error) {
	fw, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	ext, err := s.extract(ctx, fw.data, payload)
	if err != nil {
		return nil, err
	}
	ext.FirmwareID = id
	return ext, nil
}

// ExtractBytes extracts one map from an image that is not stored.
func (s *Service) ExtractBytes(ctx context.Context, data []byte, payload ecumap.DefinitionPayload) (*Extraction, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(data), s.opts.MaxFileSize)
	}
	return s.extract(ctx, data, payload)
}

func (s *Service) extract(ctx context.Context, image []byte, payload ecumap.DefinitionPayload) (*Extraction, error) {
	def, err := ecumap.NewDefinition(payload)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	grid, err := ecumap.Extract(image, def)
	if err != nil {
		slog.Warn("map extraction failed", "map", def.Name(), "error", err)
		return nil, err
	}

	ext := &Extraction{
		Definition: def,
		Grid:       grid,
		Duration:   time.Since(start),
	}
	slog.Debug("map extracted",
		"map", def.Name(),
		"encoding", def.Encoding().String(),
		"rows", def.Rows(),
		"columns", def.Columns(),
		"duration_us", ext.Duration.Microseconds(),
	)
	return ext, nil
}

// ExtractBatch extracts every map of lib from a stored image. Failures of
// individual maps are reported in their MapResult.
func (s *Service) ExtractBatch(ctx context.Context, id string, lib *ecumap.Library) ([]MapResult, error) {
	if lib.Len() > s.opts.MaxBatchMaps {
		return nil, fmt.Errorf("%w: %d maps exceeds %d", ErrBatchTooLarge, lib.Len(), s.opts.MaxBatchMaps)
	}

	fw, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	results, err := ecumap.ExtractAll(ctx, fw.data, lib.Definitions(), s.opts.Parallelism)
	if err != nil {
		return nil, err
	}

	out := make([]MapResult, len(results))
	failed := 0
	for i, r := range results {
		out[i] = MapResult{Name: r.Definition.Name(), Grid: r.Grid, Err: r.Err}
		if r.Err != nil {
			failed++
		}
	}

	slog.Info("batch extraction completed",
		"firmware_id", id,
		"maps", len(out),
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// RecentUploads returns up to limit upload history records, newest first.
// It returns an empty list when history is disabled.
func (s *Service) RecentUploads(ctx context.Context, limit int) ([]UploadRecord, error) {
	if s.history == nil {
		return []UploadRecord{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return s.history.Recent(ctx, limit)
}

// EvictExpired removes expired images and returns how many were removed.
func (s *Service) EvictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, fw := range s.images {
		if fw.expired(now) {
			delete(s.images, id)
			removed++
		}
	}
	return removed
}

// evictLocked drops expired images and, if the store is still full, the
// oldest ones until there is room for one more. s.mu must be held.
func (s *Service) evictLocked(now time.Time) {
	for id, fw := range s.images {
		if fw.expired(now) {
			delete(s.images, id)
		}
	}

	for len(s.images) >= s.opts.MaxStoredImages {
		var oldestID string
		var oldest time.Time
		for id, fw := range s.images {
			if oldestID == "" || fw.info.UploadedAt.Before(oldest) {
				oldestID, oldest = id, fw.info.UploadedAt
			}
		}
		slog.Debug("evicting oldest firmware", "firmware_id", oldestID)
		delete(s.images, oldestID)
	}
}

// StoredCount returns the number of images currently held.
func (s *Service) StoredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}

// LimiterStatus returns the current slot limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForSlots blocks until in-flight uploads and extractions finish or ctx
// is done.
func (s *Service) WaitForSlots(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
