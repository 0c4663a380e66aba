package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf holds the app configuration; loaded once at startup.
var Conf *Config

type (
	ServerConfig struct {
		Host                      string
		Port                      string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		ShutdownTimeout           time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	MediaConfig struct {
		Root    string
		BaseURL string
	}

	Config struct {
		Debug     bool
		TestMode  bool
		Env       string // DEV (default), TEST, QA, PROD
		AppName   string
		SecretKey string
		Build     string
		WorkDir   string

		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		// SingleOwner enforces the at-most-one-owner policy at bootstrap time.
		SingleOwner bool

		Server   ServerConfig
		Database DatabaseConfig
		Media    MediaConfig
	}
)

func (c DatabaseConfig) Address() string { return c.Host + ":" + c.Port }

func (c ServerConfig) Address() string { return c.Host + ":" + c.Port }

func init() {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Pariksha")
	v.SetDefault("secretKey", "km)9#a5bvpo2(r7!s8^ej&3_x4+yqh0u%cd1wf6tz@ngl*im$")
	v.SetDefault("build", "dev")
	v.SetDefault("frontendBaseUrl", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("singleOwner", true)
	v.SetDefault("serverHost", "")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("jwtExpirationDelta", 3*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 30*time.Minute)
	v.SetDefault("shutdownTimeout", 5*time.Second)
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "pariksha")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbDisableTls", true)
	v.SetDefault("mediaRoot", filepath.Join(os.TempDir(), "pariksha", "media"))
	v.SetDefault("mediaBaseUrl", "http://localhost:8000/media")

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	Conf = &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		Build:            v.GetString("build"),
		WorkDir:          wd,
		FrontendBaseURL:  v.GetString("frontendBaseUrl"),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		SingleOwner:      v.GetBool("singleOwner"),
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Port:                      v.GetString("serverPort"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
			ShutdownTimeout:           v.GetDuration("shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			DisableTLS:    v.GetBool("dbDisableTls"),
		},
		Media: MediaConfig{
			Root:    v.GetString("mediaRoot"),
			BaseURL: strings.TrimRight(v.GetString("mediaBaseUrl"), "/"),
		},
	}
}
