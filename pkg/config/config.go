package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Log       LogConfig
	Timetable TimetableConfig
	Export    ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig controls bearer-token validation on the API surface.
type AuthConfig struct {
	Enabled bool
	Secret  string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TimetableConfig carries the schedule-template options the board and the
// conflict detector honour. Mirrors the generation settings of the admin UI.
type TimetableConfig struct {
	WorkingDays               []int
	PeriodsPerDay             int
	BreakPeriods              []int
	LunchPeriod               int
	MaxConsecutivePeriods     int
	MinBreakBetweenSubjects   int
	RespectTeacherPreferences bool
	AvoidConflicts            bool
	AllowRoomSharing          bool
	DefaultSlotMinutes        int
	ConflictCacheTTL          time.Duration
}

// ExportConfig gates board export endpoints.
type ExportConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{
		Enabled: v.GetBool("AUTH_ENABLED"),
		Secret:  v.GetString("JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Timetable = TimetableConfig{
		WorkingDays:               splitInts(v.GetString("TIMETABLE_WORKING_DAYS")),
		PeriodsPerDay:             v.GetInt("TIMETABLE_PERIODS_PER_DAY"),
		BreakPeriods:              splitInts(v.GetString("TIMETABLE_BREAK_PERIODS")),
		LunchPeriod:               v.GetInt("TIMETABLE_LUNCH_PERIOD"),
		MaxConsecutivePeriods:     v.GetInt("TIMETABLE_MAX_CONSECUTIVE_PERIODS"),
		MinBreakBetweenSubjects:   v.GetInt("TIMETABLE_MIN_BREAK_BETWEEN_SUBJECTS"),
		RespectTeacherPreferences: v.GetBool("TIMETABLE_RESPECT_TEACHER_PREFERENCES"),
		AvoidConflicts:            v.GetBool("TIMETABLE_AVOID_CONFLICTS"),
		AllowRoomSharing:          v.GetBool("TIMETABLE_ALLOW_ROOM_SHARING"),
		DefaultSlotMinutes:        v.GetInt("TIMETABLE_DEFAULT_SLOT_MINUTES"),
		ConflictCacheTTL:          parseDuration(v.GetString("TIMETABLE_CONFLICT_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Export = ExportConfig{
		Enabled: v.GetBool("ENABLE_EXPORT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sma_timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TIMETABLE_WORKING_DAYS", "1,2,3,4,5")
	v.SetDefault("TIMETABLE_PERIODS_PER_DAY", 8)
	v.SetDefault("TIMETABLE_BREAK_PERIODS", "")
	v.SetDefault("TIMETABLE_LUNCH_PERIOD", 0)
	v.SetDefault("TIMETABLE_MAX_CONSECUTIVE_PERIODS", 0)
	v.SetDefault("TIMETABLE_MIN_BREAK_BETWEEN_SUBJECTS", 0)
	v.SetDefault("TIMETABLE_RESPECT_TEACHER_PREFERENCES", true)
	v.SetDefault("TIMETABLE_AVOID_CONFLICTS", true)
	v.SetDefault("TIMETABLE_ALLOW_ROOM_SHARING", false)
	v.SetDefault("TIMETABLE_DEFAULT_SLOT_MINUTES", 45)
	v.SetDefault("TIMETABLE_CONFLICT_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_EXPORT", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func splitInts(raw string) []int {
	var result []int
	for _, part := range splitAndTrim(raw) {
		value, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		result = append(result, value)
	}
	return result
}
