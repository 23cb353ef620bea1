package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *Config

type (
	// Config holds all application settings. It is loaded once at start-up
	// from defaults, an optional config/.env.<env> file and environment variables.
	Config struct {
		AppName         string
		Env             string // DEV (local; default), TEST, QA, PROD
		Debug           bool
		TestMode        bool
		SecretKey       string
		FrontendBaseURL string
		RollbarToken    string
		MediaRoot       string
		WorkDir         string

		Server   ServerConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      int
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
		Port          int
		DisableTLS    bool
	}
)

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func init() {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "EduLearn")
	v.SetDefault("debug", true)
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseUrl", "http://localhost:5173")
	v.SetDefault("mediaRoot", filepath.Join(Getwd(), "media"))
	v.SetDefault("jwtExpirationDelta", 4*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 7*24*time.Hour)
	v.SetDefault("shutdownTimeout", 5*time.Second)
	v.SetDefault("serverHost", "")
	v.SetDefault("serverPort", 8000)
	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseName", "edulearn")
	v.SetDefault("databaseUser", "edulearn")
	v.SetDefault("databasePassword", "")
	v.SetDefault("databaseAdminUser", "")
	v.SetDefault("databaseAdminPassword", "")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", 5432)
	v.SetDefault("databaseDisableTls", true)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatal(fmt.Errorf("config.godotenv(%s): %v", dotEnvPath, err))
		}
	} else if !os.IsNotExist(err) {
		log.Fatal(fmt.Errorf("config.os.Stat(%s): %v", dotEnvPath, err))
	}
	v.AutomaticEnv()

	Conf = &Config{
		AppName:         v.GetString("appName"),
		Env:             env,
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: v.GetString("frontendBaseUrl"),
		RollbarToken:    v.GetString("rollbarToken"),
		MediaRoot:       v.GetString("mediaRoot"),
		WorkDir:         Getwd(),
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Port:                      v.GetInt("serverPort"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
			ShutdownTimeout:           v.GetDuration("shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("databaseEngine"),
			Name:          v.GetString("databaseName"),
			User:          v.GetString("databaseUser"),
			Password:      v.GetString("databasePassword"),
			AdminUser:     v.GetString("databaseAdminUser"),
			AdminPassword: v.GetString("databaseAdminPassword"),
			Host:          v.GetString("databaseHost"),
			Port:          v.GetInt("databasePort"),
			DisableTLS:    v.GetBool("databaseDisableTls"),
		},
	}
}
