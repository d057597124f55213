package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
	MongoURI string `mapstructure:"mongo_uri"`
}

func (d DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Name)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	CookieName string        `mapstructure:"cookie_name"`
}

type SpeechConfig struct {
	Provider   string `mapstructure:"provider"`
	Key        string `mapstructure:"key"`
	Region     string `mapstructure:"region"`
	Language   string `mapstructure:"language"`
	WhisperURL string `mapstructure:"whisper_url"`
}

type VoiceConfig struct {
	Provider    string `mapstructure:"provider"`
	Name        string `mapstructure:"name"`
	PiperURL    string `mapstructure:"piper_url"`
	OpenAIModel string `mapstructure:"openai_model"`
}

type CompletionConfig struct {
	Provider    string   `mapstructure:"provider"`
	Endpoint    string   `mapstructure:"endpoint"`
	APIKey      string   `mapstructure:"api_key"`
	APIVersion  string   `mapstructure:"api_version"`
	Deployment  string   `mapstructure:"deployment"`
	Temperature float64  `mapstructure:"temperature"`
	MaxTokens   int      `mapstructure:"max_tokens"`
	Fallback    string   `mapstructure:"fallback"`
	OllamaURLs  []string `mapstructure:"ollama_urls"`
}

type VisionConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	Key          string        `mapstructure:"key"`
	PollAttempts int           `mapstructure:"poll_attempts"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type TranscoderConfig struct {
	FFmpegPath string `mapstructure:"ffmpeg_path"`
}

type TalkConfig struct {
	Persona            string        `mapstructure:"persona"`
	PersonaText        string        `mapstructure:"persona_text"`
	TempDir            string        `mapstructure:"temp_dir"`
	Probe              bool          `mapstructure:"probe"`
	MaxUploadBytes     int64         `mapstructure:"max_upload_bytes"`
	ConversionTimeout  time.Duration `mapstructure:"conversion_timeout"`
	RecognitionTimeout time.Duration `mapstructure:"recognition_timeout"`
	CompletionTimeout  time.Duration `mapstructure:"completion_timeout"`
	SynthesisTimeout   time.Duration `mapstructure:"synthesis_timeout"`
}

type ClassroomConfig struct {
	Backend   string `mapstructure:"backend"`
	Dir       string `mapstructure:"dir"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type Settings struct {
	Env        string           `mapstructure:"env"`
	Debug      bool             `mapstructure:"debug"`
	Server     ServerConfig     `mapstructure:"server"`
	DB         DBConfig         `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	Voice      VoiceConfig      `mapstructure:"voice"`
	Completion CompletionConfig `mapstructure:"completion"`
	Vision     VisionConfig     `mapstructure:"vision"`
	Transcoder TranscoderConfig `mapstructure:"transcoder"`
	Talk       TalkConfig       `mapstructure:"talk"`
	Classroom  ClassroomConfig  `mapstructure:"classroom"`
}

// IsProduction reports whether cookies should be issued with the Secure flag.
func (s *Settings) IsProduction() bool {
	return s.Env == "production" || s.Env == "prod"
}

var ErrMissingJWTSecret = errors.New("auth.jwt_secret (JWT_SECRET) is not set")

func (s *Settings) Validate() error {
	if s.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if s.Completion.Temperature < 0 || s.Completion.Temperature > 2 {
		return fmt.Errorf("completion.temperature out of range: %v", s.Completion.Temperature)
	}
	if s.Completion.MaxTokens <= 0 {
		return fmt.Errorf("completion.max_tokens must be positive, got %d", s.Completion.MaxTokens)
	}
	return nil
}

// envBindings maps config keys onto the variable names deployments already use.
var envBindings = map[string][]string{
	"env":                    {"ENV", "NODE_ENV"},
	"server.port":            {"PORT"},
	"database.mongo_uri":     {"MONGODB_URI"},
	"auth.jwt_secret":        {"JWT_SECRET"},
	"speech.key":             {"SPEECH_KEY", "NEXT_PUBLIC_SPEECH_KEY"},
	"speech.region":          {"SPEECH_REGION", "NEXT_PUBLIC_SPEECH_REGION"},
	"completion.endpoint":    {"AZURE_OPENAI_ENDPOINT", "NEXT_PUBLIC_AZURE_OPENAI_ENDPOINT"},
	"completion.api_key":     {"AZURE_OPENAI_KEY", "NEXT_PUBLIC_AZURE_OPENAI_KEY"},
	"completion.deployment":  {"AZURE_OPENAI_DEPLOYMENT", "NEXT_PUBLIC_AZURE_OPENAI_DEPLOYMENT"},
	"completion.api_version": {"AZURE_OPENAI_API_VERSION"},
	"vision.endpoint":        {"VISION_ENDPOINT", "NEXT_PUBLIC_VISION_ENDPOINT"},
	"vision.key":             {"VISION_KEY", "NEXT_PUBLIC_VISION_KEY"},
	"transcoder.ffmpeg_path": {"FFMPEG_PATH"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("debug", false)

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.name", "cumulus")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("talk.persona_text", "")
	v.SetDefault("talk.temp_dir", "")
	v.SetDefault("completion.ollama_urls", []string{"http://localhost:11434"})

	v.SetDefault("auth.token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.cookie_name", "token")

	v.SetDefault("speech.provider", "azure")
	v.SetDefault("speech.language", "en-US")
	v.SetDefault("speech.whisper_url", "http://localhost:9000")

	v.SetDefault("voice.provider", "azure")
	v.SetDefault("voice.name", "id-ID-ArdiNeural")
	v.SetDefault("voice.piper_url", "http://localhost:5000")
	v.SetDefault("voice.openai_model", "tts-1")

	v.SetDefault("completion.provider", "azure")
	v.SetDefault("completion.api_version", "2023-07-01-preview")
	v.SetDefault("completion.temperature", 0.7)
	v.SetDefault("completion.max_tokens", 500)
	v.SetDefault("completion.fallback", "No response generated.")

	v.SetDefault("vision.poll_attempts", 10)
	v.SetDefault("vision.poll_interval", time.Second)

	v.SetDefault("talk.persona", "id")
	v.SetDefault("talk.probe", true)
	v.SetDefault("talk.max_upload_bytes", int64(25<<20))
	v.SetDefault("talk.conversion_timeout", 60*time.Second)
	v.SetDefault("talk.recognition_timeout", 30*time.Second)
	v.SetDefault("talk.completion_timeout", 60*time.Second)
	v.SetDefault("talk.synthesis_timeout", 60*time.Second)

	v.SetDefault("classroom.backend", "file")
	v.SetDefault("classroom.dir", "public")
	v.SetDefault("classroom.key_prefix", "cumulus")
}

// Loader owns the viper instance so the same source can be re-read and watched.
type Loader struct {
	v *viper.Viper
}

func NewLoader(paths ...string) *Loader {
	// .env is optional; real environment variables always win.
	_ = godotenv.Load()

	if len(paths) == 0 {
		paths = []string{".", "./configs"}
	}

	v := viper.New()
	v.SetConfigName("config_" + genEnv())
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	return &Loader{v: v}
}

func (l *Loader) Load() (*Settings, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings Settings
	if err := l.v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &settings, nil
}

// Watch reports config file changes. Running components keep the settings
// they were built with; a restart applies the new values.
func (l *Loader) Watch(onChange func(path string)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if e.Has(fsnotify.Write) || e.Has(fsnotify.Create) {
			onChange(e.Name)
		}
	})
	l.v.WatchConfig()
}

func Load() (*Settings, error) {
	return NewLoader().Load()
}

func genEnv() string {
	for _, name := range []string{"ENV", "CUMULUS_ENV"} {
		if env := os.Getenv(name); env != "" {
			return env
		}
	}
	return "dev"
}
