package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type Log struct {
	Level string
	JSON  bool
}

// JWT 签名密钥与两类 token 的有效期，全部显式注入，不走包级全局
type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
	RefreshTokenTTLDay int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	Seed               bool
	LogLevel           string
}

// RateLimit 对齐原有的三档限流：API 每 IP 每分钟、认证端点每 IP 每分钟、每用户每小时
type RateLimit struct {
	RPS           int
	Burst         int
	APIPerMinute  int
	AuthPerMinute int
	UserPerHour   int
}

// Bootstrap 首次启动的引导管理员账号（仅当库里没有 admin 用户时创建）
type Bootstrap struct {
	AdminEmail    string
	AdminPassword string
}

type Config struct {
	App       App
	Log       Log
	JWT       JWT
	DB        DB
	Redis     Redis     `mapstructure:"redis"`
	RateLimit RateLimit `mapstructure:"ratelimit"`
	Bootstrap Bootstrap `mapstructure:"bootstrap"`
}

func Load(path string) *Config {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("read config: %v", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	return &c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.issuer", "go-auth-api")
	v.SetDefault("jwt.accesstokenttlmin", 15)
	v.SetDefault("jwt.refreshtokenttlday", 7)
	v.SetDefault("db.maxopenconns", 50)
	v.SetDefault("db.maxidleconns", 10)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.seed", true)
	v.SetDefault("db.loglevel", "warn")
	v.SetDefault("ratelimit.rps", 200)
	v.SetDefault("ratelimit.burst", 400)
	v.SetDefault("ratelimit.apiperminute", 100)
	v.SetDefault("ratelimit.authperminute", 10)
	v.SetDefault("ratelimit.userperhour", 1000)
}
