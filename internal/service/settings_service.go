package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campusops/submission-restrict-api/internal/mod"
	"github.com/campusops/submission-restrict-api/internal/models"
	"github.com/campusops/submission-restrict-api/internal/timecalc"
	appErrors "github.com/campusops/submission-restrict-api/pkg/errors"
)

type settingStore interface {
	Get(ctx context.Context, name string) (*models.Setting, error)
	ListByNames(ctx context.Context, names []string) ([]models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// SettingsService stores and serves the per-adapter configuration. Only
// setting names registered by an adapter are readable or writable; everything
// else is rejected. Parsed adapter configuration is cached in Redis.
type SettingsService struct {
	settings settingStore
	audits   auditWriter
	cache    *redis.Client
	ttl      time.Duration
	metrics  *MetricsService
	logger   *zap.Logger

	// Registration happens during startup wiring, before any request is
	// served, so the maps are read-only afterwards.
	allowed map[string]struct{}
	names   []string
	byMod   map[string][]string
}

// NewSettingsService constructs the service. cache may be nil, which
// disables configuration caching.
func NewSettingsService(settings settingStore, audits auditWriter, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{
		settings: settings,
		audits:   audits,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
		allowed:  make(map[string]struct{}),
		byMod:    make(map[string][]string),
	}
}

// AttachMetrics enables cache lookup instrumentation.
func (s *SettingsService) AttachMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// RegisterAdapter adds an adapter's setting names to the allow-list.
func (s *SettingsService) RegisterAdapter(modName string, settingNames []string) {
	for _, name := range settingNames {
		if _, exists := s.allowed[name]; exists {
			continue
		}
		s.allowed[name] = struct{}{}
		s.names = append(s.names, name)
		s.byMod[modName] = append(s.byMod[modName], name)
	}
}

// cachedModConfig is the Redis representation of a parsed adapter
// configuration.
type cachedModConfig struct {
	RestoreEnabled bool     `json:"restore_enabled"`
	RestoreHour    int      `json:"restore_hour"`
	RestoreMinute  int      `json:"restore_minute"`
	Timeslots      []string `json:"timeslots"`
	Reasons        []string `json:"reasons"`
}

func (c cachedModConfig) toConfig() mod.Config {
	return mod.Config{
		RestoreEnabled: c.RestoreEnabled,
		RestoreTime:    timecalc.New(c.RestoreHour, c.RestoreMinute),
		Timeslots:      c.Timeslots,
		Reasons:        c.Reasons,
	}
}

// ModConfig loads and parses the configuration of one adapter. Unregistered
// adapters get an empty, non-functional configuration.
func (s *SettingsService) ModConfig(ctx context.Context, modName string) (mod.Config, error) {
	names := s.byMod[modName]
	if len(names) == 0 {
		return mod.Config{}, nil
	}

	key := s.cacheKey(modName)
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key).Bytes()
		if err == nil {
			var cached cachedModConfig
			if err := json.Unmarshal(raw, &cached); err == nil {
				s.metrics.ObserveCacheLookup(true)
				return cached.toConfig(), nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("settings cache read failed", zap.String("mod", modName), zap.Error(err))
		}
		s.metrics.ObserveCacheLookup(false)
	}

	rows, err := s.settings.ListByNames(ctx, names)
	if err != nil {
		return mod.Config{}, fmt.Errorf("load settings for mod %s: %w", modName, err)
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Name] = row.Value
	}

	cached := cachedModConfig{
		RestoreEnabled: parseSettingBool(values[modName+"_restore_enabled"]),
		RestoreHour:    parseSettingInt(values[modName+"_restore_hour"]),
		RestoreMinute:  parseSettingInt(values[modName+"_restore_minute"]),
		Timeslots:      parseTimeslots(values[modName+"_timeslots"]),
		Reasons:        parseSettingLines(values[modName+"_reasons"]),
	}

	if s.cache != nil {
		if raw, err := json.Marshal(cached); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				s.logger.Warn("settings cache write failed", zap.String("mod", modName), zap.Error(err))
			}
		}
	}

	return cached.toConfig(), nil
}

// List returns every registered setting that has a stored value.
func (s *SettingsService) List(ctx context.Context) ([]models.Setting, error) {
	rows, err := s.settings.ListByNames(ctx, s.names)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return rows, nil
}

// Update validates and stores one setting value, then invalidates the cached
// configuration of the owning adapter.
func (s *SettingsService) Update(ctx context.Context, name, value string, actorID int64, ip, userAgent string) (*models.Setting, error) {
	if _, ok := s.allowed[name]; !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown setting")
	}
	if err := validateSettingValue(name, value); err != nil {
		return nil, err
	}

	var oldValue string
	if old, err := s.settings.Get(ctx, name); err == nil {
		oldValue = old.Value
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load setting %s: %w", name, err)
	}

	setting := &models.Setting{Name: name, Value: value, UpdatedBy: &actorID}
	if err := s.settings.Upsert(ctx, setting); err != nil {
		return nil, fmt.Errorf("save setting %s: %w", name, err)
	}

	s.invalidate(ctx, name)
	s.audit(ctx, actorID, name, oldValue, value, ip, userAgent)

	return setting, nil
}

func (s *SettingsService) invalidate(ctx context.Context, name string) {
	if s.cache == nil {
		return
	}
	for modName, names := range s.byMod {
		for _, n := range names {
			if n == name {
				if err := s.cache.Del(ctx, s.cacheKey(modName)).Err(); err != nil {
					s.logger.Warn("settings cache invalidation failed", zap.String("mod", modName), zap.Error(err))
				}
				return
			}
		}
	}
}

func (s *SettingsService) audit(ctx context.Context, actorID int64, name, oldValue, newValue, ip, userAgent string) {
	oldJSON, _ := json.Marshal(map[string]string{"value": oldValue})
	newJSON, _ := json.Marshal(map[string]string{"value": newValue})
	log := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionSettingUpdate,
		Resource:   "setting",
		ResourceID: &name,
		OldValues:  oldJSON,
		NewValues:  newJSON,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	if err := s.audits.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

func (s *SettingsService) cacheKey(modName string) string {
	return "modcfg:" + modName
}

func validateSettingValue(name, value string) error {
	switch {
	case strings.HasSuffix(name, "_restore_enabled"):
		switch value {
		case "0", "1", "true", "false":
			return nil
		}
		return appErrors.FieldErrors(map[string]string{name: "must be 0, 1, true or false"})

	case strings.HasSuffix(name, "_restore_hour"):
		if n, err := strconv.Atoi(value); err != nil || n < 0 || n > 23 {
			return appErrors.FieldErrors(map[string]string{name: "must be an hour between 0 and 23"})
		}

	case strings.HasSuffix(name, "_restore_minute"):
		if n, err := strconv.Atoi(value); err != nil || n < 0 || n > 59 {
			return appErrors.FieldErrors(map[string]string{name: "must be a minute between 0 and 59"})
		}

	case strings.HasSuffix(name, "_timeslots"):
		for _, line := range strings.Split(value, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if _, err := timecalc.Parse(line); err != nil {
				return appErrors.FieldErrors(map[string]string{name: fmt.Sprintf("invalid timeslot %q, expected HH:MM", line)})
			}
		}
	}
	return nil
}

func parseSettingBool(raw string) bool {
	return raw == "1" || raw == "true"
}

func parseSettingInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

// parseSettingLines splits a newline-delimited value, dropping blanks.
func parseSettingLines(raw string) []string {
	var result []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}

// parseTimeslots keeps only lines that parse as HH:MM so a stray edit cannot
// break the whole form.
func parseTimeslots(raw string) []string {
	var result []string
	for _, line := range parseSettingLines(raw) {
		if _, err := timecalc.Parse(line); err == nil {
			result = append(result, line)
		}
	}
	return result
}
