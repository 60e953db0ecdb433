package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	RedisUrl      string
	Port          string
	MetricsAddr   string
	TypesenseHost string
	TypesenseKey  string
	LogLevel      string
	LogFormat     string
	ExtDB         ExtDBConfig
	Moodle        MoodleConfig
	Sync          SyncConfig
}

// ExtDBConfig describes the student records database and the two tables read from it.
type ExtDBConfig struct {
	Type                    string
	Host                    string
	Name                    string
	Encoding                string
	SetupSQL                string
	SybaseQuoting           bool
	Debug                   bool
	User                    string
	Password                string
	AssessmentsTable        string
	StudentAssessmentsTable string
}

type MoodleConfig struct {
	Type        string
	DSN         string
	TablePrefix string
}

type SyncConfig struct {
	Timezone     string
	CohortMarker string
	Schedule     string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	return &Config{
		RedisUrl:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
		Port:          getEnv("PORT", "8080"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		TypesenseHost: getEnv("TYPESENSE_HOST"),
		TypesenseKey:  getEnv("TYPESENSE_API_KEY"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		ExtDB: ExtDBConfig{
			Type:                    getEnv("EXTDB_TYPE"),
			Host:                    getEnv("EXTDB_HOST"),
			Name:                    getEnv("EXTDB_NAME"),
			Encoding:                getEnv("EXTDB_ENCODING", "utf-8"),
			SetupSQL:                getEnv("EXTDB_SETUP_SQL"),
			SybaseQuoting:           getEnvBool("EXTDB_SYBASE_QUOTING", false),
			Debug:                   getEnvBool("EXTDB_DEBUG", false),
			User:                    getEnv("EXTDB_USER"),
			Password:                getEnv("EXTDB_PASS"),
			AssessmentsTable:        getEnv("EXTDB_ASSESSMENTS_TABLE", "usr_data_assessments"),
			StudentAssessmentsTable: getEnv("EXTDB_STUDENT_ASSESSMENTS_TABLE", "usr_data_student_assessments"),
		},
		Moodle: MoodleConfig{
			Type:        getEnv("MOODLE_DB_TYPE", "postgres"),
			DSN:         getEnv("MOODLE_DB_DSN"),
			TablePrefix: getEnv("MOODLE_TABLE_PREFIX", "mdl_"),
		},
		Sync: SyncConfig{
			Timezone:     getEnv("SYNC_TIMEZONE", "Europe/London"),
			CohortMarker: getEnv("SYNC_COHORT_MARKER", "18/19"),
			Schedule:     getEnv("SYNC_SCHEDULE", "0 * * * *"),
		},
	}
}

// Validate checks the settings every binary depends on. Missing source
// database settings are not an error here: the sync job reports them as its
// own misconfiguration outcome.
func (c *Config) Validate() error {
	if c.Moodle.DSN == "" {
		return fmt.Errorf("MOODLE_DB_DSN is required")
	}
	switch c.Moodle.Type {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("MOODLE_DB_TYPE %q is not supported", c.Moodle.Type)
	}
	if _, err := cron.ParseStandard(c.Sync.Schedule); err != nil {
		return fmt.Errorf("SYNC_SCHEDULE %q: %w", c.Sync.Schedule, err)
	}
	return nil
}

func getEnv(key string, defaultValue ...string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func getEnvBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
