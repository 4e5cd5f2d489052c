// Package config loads the reviewer's settings from defaults, an optional
// YAML file and ANNOTATION_REVIEW_* environment variables, in increasing
// order of precedence. Command line flags bound by the CLI win over all three.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/ironsheep/annotation-review/internal/imaging"
)

// EnvPrefix is prepended to every environment variable the tool reads,
// e.g. ANNOTATION_REVIEW_LOG_LEVEL or ANNOTATION_REVIEW_ZOOM_BASE.
const EnvPrefix = "ANNOTATION_REVIEW"

// Zoom bases.
const (
	ZoomBaseOriginal = "original"
	ZoomBaseFitted   = "fitted"
)

// Settings holds every tunable of the review tool.
type Settings struct {
	LogLevel string `mapstructure:"log_level"`

	// Classes is the closed vocabulary offered to the reviewer.
	Classes []string `mapstructure:"classes"`

	// AnnotationsFile and ImagesFolder, when set, are opened at start-up.
	AnnotationsFile string `mapstructure:"annotations_file"`
	ImagesFolder    string `mapstructure:"images_folder"`

	Display DisplaySettings `mapstructure:"display"`
	Zoom    ZoomSettings    `mapstructure:"zoom"`
	Outline OutlineSettings `mapstructure:"outline"`
	Status  StatusSettings  `mapstructure:"status"`
	Server  ServerSettings  `mapstructure:"server"`
}

// DisplaySettings is the box a freshly shown image is fitted into.
type DisplaySettings struct {
	MaxWidth  int `mapstructure:"max_width"`
	MaxHeight int `mapstructure:"max_height"`
}

// ZoomSettings bounds and steps the wheel zoom. Base selects whether zoom
// multiplies the original bitmap size or the fitted size.
type ZoomSettings struct {
	Min  float64 `mapstructure:"min"`
	Max  float64 `mapstructure:"max"`
	In   float64 `mapstructure:"in"`
	Out  float64 `mapstructure:"out"`
	Base string  `mapstructure:"base"`
}

// OutlineSettings are the annotation stroke colors ("#RRGGBB") and width.
type OutlineSettings struct {
	Unselected string  `mapstructure:"unselected"`
	Selected   string  `mapstructure:"selected"`
	Width      float64 `mapstructure:"width"`
}

// StatusSettings control the transient status line.
type StatusSettings struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	KeepStaleTimer bool          `mapstructure:"keep_stale_timer"`
}

// ServerSettings configure the HTTP front-end.
type ServerSettings struct {
	Listen string `mapstructure:"listen"`
	Debug  bool   `mapstructure:"debug"`

	// AllowOrigins enables CORS for the listed origins. Empty disables it.
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("classes", []string{"acne", "scar", "freckle", "mole"})
	v.SetDefault("annotations_file", "")
	v.SetDefault("images_folder", "")

	v.SetDefault("display.max_width", 800)
	v.SetDefault("display.max_height", 600)

	v.SetDefault("zoom.min", 0.1)
	v.SetDefault("zoom.max", 5.0)
	v.SetDefault("zoom.in", 1.1)
	v.SetDefault("zoom.out", 0.9)
	v.SetDefault("zoom.base", ZoomBaseOriginal)

	v.SetDefault("outline.unselected", "#FF0000")
	v.SetDefault("outline.selected", "#00FF00")
	v.SetDefault("outline.width", 2.0)

	v.SetDefault("status.timeout", 3*time.Second)
	v.SetDefault("status.keep_stale_timer", false)

	v.SetDefault("server.listen", "127.0.0.1:8080")
	v.SetDefault("server.debug", false)
	v.SetDefault("server.allow_origins", []string{})
}

// DefaultConfigPaths lists where annotation-review.yaml is looked for when no
// explicit file is given.
func DefaultConfigPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "annotation-review"))
	}
	return paths
}

// Load reads configFile (or annotation-review.yaml from the default paths
// when configFile is empty) into v and returns validated settings. A missing
// default config file is not an error.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("annotation-review")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.WithField("file", v.ConfigFileUsed()).Debug("Config file loaded")
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return settings, nil
}

// Default returns the built-in settings, ignoring files and environment.
func Default() *Settings {
	v := viper.New()
	setDefaults(v)
	settings := &Settings{}
	// defaults always decode
	_ = v.Unmarshal(settings)
	return settings
}

// Validate checks ranges and formats.
func (s *Settings) Validate() error {
	if len(s.Classes) == 0 {
		return errors.New("classes must not be empty")
	}
	seen := make(map[string]bool, len(s.Classes))
	for _, c := range s.Classes {
		if c == "" {
			return errors.New("classes must not contain an empty name")
		}
		if seen[c] {
			return fmt.Errorf("duplicate class %q", c)
		}
		seen[c] = true
	}

	if s.Display.MaxWidth <= 0 || s.Display.MaxHeight <= 0 {
		return fmt.Errorf("display box must be positive, got %dx%d", s.Display.MaxWidth, s.Display.MaxHeight)
	}

	if s.Zoom.Min <= 0 || s.Zoom.Min > s.Zoom.Max {
		return fmt.Errorf("zoom range [%v, %v] is invalid", s.Zoom.Min, s.Zoom.Max)
	}
	if s.Zoom.In <= 1 || s.Zoom.Out <= 0 || s.Zoom.Out >= 1 {
		return fmt.Errorf("zoom steps must satisfy in > 1 and 0 < out < 1, got in=%v out=%v", s.Zoom.In, s.Zoom.Out)
	}
	if s.Zoom.Base != ZoomBaseOriginal && s.Zoom.Base != ZoomBaseFitted {
		return fmt.Errorf("zoom base must be %q or %q, got %q", ZoomBaseOriginal, ZoomBaseFitted, s.Zoom.Base)
	}

	if _, err := imaging.ParseColor(s.Outline.Unselected); err != nil {
		return fmt.Errorf("outline.unselected: %w", err)
	}
	if _, err := imaging.ParseColor(s.Outline.Selected); err != nil {
		return fmt.Errorf("outline.selected: %w", err)
	}
	if s.Outline.Width <= 0 {
		return fmt.Errorf("outline width must be positive, got %v", s.Outline.Width)
	}

	if s.Status.Timeout <= 0 {
		return fmt.Errorf("status timeout must be positive, got %v", s.Status.Timeout)
	}

	if _, err := log.ParseLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}
