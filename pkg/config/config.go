package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env
// y opcionalmente archivo .env).
type Config struct {
	App      AppConfig
	DB       DBConfig
	Saphety  SaphetyConfig
	Schedule ScheduleConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env     string // development, staging, production
	Name    string
	LogFile string
}

// DBConfig configuración de PostgreSQL donde vive la base Sage X3.
// Si DatabaseURL no está vacío se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	Schema      string // esquema de la instalación X3 (ej. "SEED")
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DatabaseURL si está definido,
// si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para
// caracteres especiales en la contraseña.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// SaphetyConfig parámetros de la Saphety Invoice Network.
type SaphetyConfig struct {
	Server          string // host base, ej. "dcn-solution.saphety.com"
	User            string
	Password        string
	OutputDirectory string // carpeta donde se guardan los XML generados
	PDFDirectory    string // carpeta donde el ERP deja los PDF de factura
	CustomerProfile string // perfil de mapeo por cliente: DEFAULT, MOP, ...
}

// ScheduleConfig ventana y frecuencia de los jobs del servicio.
// Los tres jobs (generación, envío, verificación) comparten la ventana
// horaria; cada uno tiene su propio intervalo.
type ScheduleConfig struct {
	Enabled              bool
	StartTime            string // "HH:MM"
	EndTime              string // "HH:MM"; la ventana puede cruzar medianoche
	GenerateEveryMinutes int
	SendEveryMinutes     int
	CheckEveryMinutes    int
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde
// un archivo .env en el directorio de trabajo). Las env vars tienen prioridad.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:     getString(v, "APP_ENV", "development"),
			Name:    getString(v, "APP_NAME", "saphety-bridge"),
			LogFile: getString(v, "APP_LOG_FILE", ""),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "x3"),
			Schema:      getString(v, "DB_SCHEMA", "SEED"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		Saphety: SaphetyConfig{
			Server:          getString(v, "SAPHETY_SERVER", ""),
			User:            getString(v, "SAPHETY_USER", ""),
			Password:        getString(v, "SAPHETY_PASSWORD", ""),
			OutputDirectory: getString(v, "OUTPUT_DIRECTORY", "output"),
			PDFDirectory:    getString(v, "PDF_DIRECTORY", ""),
			CustomerProfile: getString(v, "CUSTOMER_PROFILE", "DEFAULT"),
		},
		Schedule: ScheduleConfig{
			Enabled:              getBool(v, "SCHEDULE_ENABLED", true),
			StartTime:            getString(v, "SCHEDULE_START_TIME", "08:00"),
			EndTime:              getString(v, "SCHEDULE_END_TIME", "18:00"),
			GenerateEveryMinutes: getInt(v, "SCHEDULE_GENERATE_MINUTES", 60),
			SendEveryMinutes:     getInt(v, "SCHEDULE_SEND_MINUTES", 60),
			CheckEveryMinutes:    getInt(v, "SCHEDULE_CHECK_MINUTES", 120),
		},
	}

	if cfg.Saphety.Server == "" {
		return nil, fmt.Errorf("config: SAPHETY_SERVER es obligatorio")
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		return v.GetInt(key)
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
