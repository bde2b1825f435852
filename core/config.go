package core

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"prod"`
	TelegramApiKey  string `yaml:"telegram_api_key" env:"TELEGRAM_API_KEY" env-default:""`
	OpenAIApiKey    string `yaml:"openai_api_key" env:"OPENAI_API_KEY" env-default:""`
	OpenAIBaseURL   string `yaml:"openai_base_url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1"`
	ReplicateApiKey string `yaml:"replicate_api_key" env:"REPLICATE_API_KEY" env-default:""`
	Username        string `yaml:"username" env:"BOT_USERNAME" env-default:""`
	Model           string `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	ImageModel      string `yaml:"image_model" env-default:"dall-e-2"`
	ImageSize       string `yaml:"image_size" env-default:"512x512"`
	WhisperModel    string `yaml:"whisper_model" env-default:"whisper-1"`
	Storage         struct {
		Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	} `yaml:"storage"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:"admin"`
		Password string `yaml:"password" env-default:"pass"`
		Database string `yaml:"database" env-default:"chatbot"`
	} `yaml:"mongo"`
	SQLite struct {
		Path string `yaml:"path" env-default:"data/sessions.db"`
	} `yaml:"sqlite"`
	Prediction struct {
		BaseURL      string        `yaml:"base_url" env-default:"https://api.replicate.com/v1"`
		PollInterval time.Duration `yaml:"poll_interval" env-default:"500ms"`
		Timeout      time.Duration `yaml:"timeout" env-default:"3m"`
	} `yaml:"prediction"`
	URL struct {
		MaxBytes int64 `yaml:"max_bytes" env-default:"2097152"`
		MaxChars int   `yaml:"max_chars" env-default:"12000"`
	} `yaml:"url"`
	Services []ServiceConfig `yaml:"services"`
}

// ServiceConfig declares one catalog entry. Answer names the answer
// capability for conversational types ("chat", "agents", "url").
type ServiceConfig struct {
	Id          string        `yaml:"id"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Type        string        `yaml:"type"`
	Version     string        `yaml:"version"`
	Output      string        `yaml:"output"`
	Answer      string        `yaml:"answer"`
	Params      []ParamConfig `yaml:"params"`
}

type ParamConfig struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Options []string `yaml:"options"`
}

var instance *Config
var once sync.Once

func GetConfig(path string) (*Config, error) {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
		}
	})
	return instance, err
}

func MustLoad(path string) *Config {
	conf, err := GetConfig(path)
	if err != nil {
		log.Fatal(err)
	}
	return conf
}
