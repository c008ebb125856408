package config

import (
	_ "embed"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName     = "config.yaml"
	TOMLConfigurationName = "config.toml"
)

const (
	LineEditorAuto     = "auto"
	LineEditorReadline = "readline"
	LineEditorPlain    = "plain"

	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Configuration struct {
	configFs afero.Fs

	Prompt string `json:"prompt" toml:"prompt"`
	Banner bool   `json:"banner" toml:"banner"`
	Home   string `json:"home" toml:"home"`

	LineEditor   string `json:"line_editor" toml:"line_editor" validate:"oneof=auto readline plain"`
	Color        string `json:"color" toml:"color" validate:"oneof=auto always never"`
	HistoryLimit int    `json:"history_limit" toml:"history_limit" validate:"gte=0"`

	MaxArgs         int `json:"max_args" toml:"max_args" validate:"gte=1"`
	MaxWordLength   int `json:"max_word_length" toml:"max_word_length" validate:"gte=1"`
	InputBufferSize int `json:"input_buffer_size" toml:"input_buffer_size" validate:"gte=16"`
	JobCapacity     int `json:"job_capacity" toml:"job_capacity" validate:"gte=1"`

	EventLog string `json:"event_log" toml:"event_log"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		return afero.NewOsFs()
	}
	return c.configFs
}

// HomeDir returns the directory a bare cd changes to.
func (c *Configuration) HomeDir() string {
	if c.Home != "" {
		return c.Home
	}
	return os.Getenv("HOME")
}

// OpenEventLog opens the event log in an append only state. It returns nil
// if event logging is disabled.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	if c.EventLog == "" {
		return nil, nil
	}
	return c.fs().OpenFile(c.EventLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	return c.fs().OpenFile(c.EventLog, os.O_RDONLY, 0600)
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Default returns the built-in configuration rooted at dir.
func Default(dir string) *Configuration {
	out := defaultConfig()
	out.configFs = afero.NewBasePathFs(afero.NewOsFs(), dir)
	return out
}
