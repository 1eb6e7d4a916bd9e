// Package config provides configuration loading for go-atlas commands.
//
// Values come from (highest priority first) flags bound by the caller,
// ATLAS_* environment variables, an optional YAML file and the defaults
// registered by SetDefaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/teslashibe/go-atlas/pkg/navigation"
)

// EnvPrefix is prepended to every environment override (ATLAS_SERVO_TURN_GAIN).
const EnvPrefix = "ATLAS"

// Search and driver modes.
const (
	SearchModeContinuous = "continuous"
	SearchModeWaypoint   = "waypoint"

	RobotDriverSim  = "sim"
	RobotDriverHTTP = "http"

	PlannerGemini  = "gemini"
	PlannerKeyword = "keyword"

	DetectorColor = "color"
	DetectorYOLO  = "yolo"
)

// Config is the root configuration tree.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	Mission    MissionConfig    `mapstructure:"mission"`
	Search     SearchConfig     `mapstructure:"search"`
	Servo      ServoConfig      `mapstructure:"servo"`
	Perception PerceptionConfig `mapstructure:"perception"`
	Camera     CameraConfig     `mapstructure:"camera"`
	Robot      RobotConfig      `mapstructure:"robot"`
	Planner    PlannerConfig    `mapstructure:"planner"`
	Dashboard  DashboardConfig  `mapstructure:"dashboard"`
}

// LoggerConfig configures internal/log.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// MissionConfig configures the top-level state machine.
type MissionConfig struct {
	TickInterval  time.Duration `mapstructure:"tick_interval"`
	GraspAttempts int           `mapstructure:"grasp_attempts"`
	Voice         bool          `mapstructure:"voice"`
	WakeWord      string        `mapstructure:"wake_word"`
	SpeakCommand  string        `mapstructure:"speak_command"`
}

// SearchConfig configures the search controller.
type SearchConfig struct {
	Mode          string        `mapstructure:"mode"`
	AreaWidth     float64       `mapstructure:"area_width"`
	AreaHeight    float64       `mapstructure:"area_height"`
	Step          float64       `mapstructure:"step"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	FeedbackEvery time.Duration `mapstructure:"feedback_every"`
	ReverseFor    time.Duration `mapstructure:"reverse_for"`
	AvoidTurnDeg  float64       `mapstructure:"avoid_turn_deg"`
}

// ServoConfig configures the visual servo controller.
type ServoConfig struct {
	CenterTolerancePx float64       `mapstructure:"center_tolerance_px"`
	TargetDistanceCm  float64       `mapstructure:"target_distance_cm"`
	TurnGain          float64       `mapstructure:"turn_gain"`
	MaxTurnDeg        float64       `mapstructure:"max_turn_deg"`
	ForwardDuration   time.Duration `mapstructure:"forward_duration"`
	MaxIterations     int           `mapstructure:"max_iterations"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"`
}

// PerceptionConfig configures the detection pipeline.
type PerceptionConfig struct {
	Detector      string             `mapstructure:"detector"`
	ModelPath     string             `mapstructure:"model_path"`
	Confidence    float64            `mapstructure:"confidence"`
	MinArea       float64            `mapstructure:"min_area"`
	ColorMatch    float64            `mapstructure:"color_match"`
	FocalLengthPx float64            `mapstructure:"focal_length_px"`
	KnownWidthsCm map[string]float64 `mapstructure:"known_widths_cm"`

	// ColorRanges overrides or adds HSV bands per colour name. Colours not
	// listed keep the built-in bands.
	ColorRanges map[string][]ColorBand `mapstructure:"color_ranges"`
}

// ColorBand is one inclusive OpenCV HSV band: H in [0,180], S and V in
// [0,255].
type ColorBand struct {
	Lower []float64 `mapstructure:"lower"`
	Upper []float64 `mapstructure:"upper"`
}

func (b ColorBand) validate() error {
	if len(b.Lower) != 3 || len(b.Upper) != 3 {
		return errors.New("lower and upper need 3 values (h, s, v)")
	}
	limits := [3]float64{180, 255, 255}
	for i, limit := range limits {
		lo, hi := b.Lower[i], b.Upper[i]
		if lo < 0 || hi > limit || lo > hi {
			return fmt.Errorf("channel %d band [%v, %v] must lie within [0, %v] with lower <= upper", i, lo, hi, limit)
		}
	}
	return nil
}

// CameraConfig configures frame acquisition.
type CameraConfig struct {
	Device    int `mapstructure:"device"`
	Width     int `mapstructure:"width"`
	Height    int `mapstructure:"height"`
	Framerate int `mapstructure:"framerate"`
	Quality   int `mapstructure:"quality"`
}

// RobotConfig selects and configures the actuation driver.
type RobotConfig struct {
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	BaseSpeed       float64       `mapstructure:"base_speed"`
	TurnRate        float64       `mapstructure:"turn_rate"`
	SafeDistance    float64       `mapstructure:"safe_distance"`
	SimulateMotion  bool          `mapstructure:"simulate_motion"`
	ObstacleSeed    int64         `mapstructure:"obstacle_seed"`
	GripSuccessRate float64       `mapstructure:"grip_success_rate"`
}

// PlannerConfig configures natural-language planning.
type PlannerConfig struct {
	Provider string        `mapstructure:"provider"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Fallback bool          `mapstructure:"fallback"`
}

// DashboardConfig configures the web dashboard.
type DashboardConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Addr         string  `mapstructure:"addr"`
	CommandRate  float64 `mapstructure:"command_rate"`
	CommandBurst int     `mapstructure:"command_burst"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "")
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Mission --
	v.SetDefault("mission.tick_interval", "1s")
	v.SetDefault("mission.grasp_attempts", 2)
	v.SetDefault("mission.voice", false)
	v.SetDefault("mission.wake_word", "atlas")
	v.SetDefault("mission.speak_command", "")

	// -- Search --
	v.SetDefault("search.mode", SearchModeContinuous)
	v.SetDefault("search.area_width", 5.0)
	v.SetDefault("search.area_height", 3.0)
	v.SetDefault("search.step", 0.5)
	v.SetDefault("search.poll_interval", "30ms")
	v.SetDefault("search.feedback_every", "2s")
	v.SetDefault("search.reverse_for", "500ms")
	v.SetDefault("search.avoid_turn_deg", 45.0)

	// -- Servo --
	v.SetDefault("servo.center_tolerance_px", 50.0)
	v.SetDefault("servo.target_distance_cm", 30.0)
	v.SetDefault("servo.turn_gain", 0.1)
	v.SetDefault("servo.max_turn_deg", 30.0)
	v.SetDefault("servo.forward_duration", "500ms")
	v.SetDefault("servo.max_iterations", 100)
	v.SetDefault("servo.settle_delay", "100ms")

	// -- Perception --
	v.SetDefault("perception.detector", DetectorColor)
	v.SetDefault("perception.model_path", "models/yolov8n.onnx")
	v.SetDefault("perception.confidence", 0.5)
	v.SetDefault("perception.min_area", 500.0)
	v.SetDefault("perception.color_match", 0.15)
	v.SetDefault("perception.focal_length_px", 700.0)
	v.SetDefault("perception.known_widths_cm", map[string]float64{
		"phone":  15,
		"book":   20,
		"pen":    1.5,
		"ball":   10,
		"cup":    8,
		"bottle": 7,
		"tool":   15,
		"box":    20,
	})

	// -- Camera --
	v.SetDefault("camera.device", 0)
	v.SetDefault("camera.width", 640)
	v.SetDefault("camera.height", 480)
	v.SetDefault("camera.framerate", 30)
	v.SetDefault("camera.quality", 85)

	// -- Robot --
	v.SetDefault("robot.driver", RobotDriverSim)
	v.SetDefault("robot.url", "http://localhost:8000")
	v.SetDefault("robot.timeout", "5s")
	v.SetDefault("robot.base_speed", 0.5)
	v.SetDefault("robot.turn_rate", 45.0)
	v.SetDefault("robot.safe_distance", 0.3)
	v.SetDefault("robot.simulate_motion", true)
	v.SetDefault("robot.obstacle_seed", 1)
	v.SetDefault("robot.grip_success_rate", 1.0)

	// -- Planner --
	v.SetDefault("planner.provider", PlannerGemini)
	v.SetDefault("planner.model", "gemini-2.5-flash")
	v.SetDefault("planner.timeout", "20s")
	v.SetDefault("planner.fallback", true)

	// -- Dashboard --
	v.SetDefault("dashboard.enabled", false)
	v.SetDefault("dashboard.addr", ":8080")
	v.SetDefault("dashboard.command_rate", 1.0)
	v.SetDefault("dashboard.command_burst", 3)
}

// NewViper returns a viper instance with defaults and env bindings applied.
// cfgFile may be empty, in which case ./atlas.yaml is used when present.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("atlas")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Sensitive values
	v.BindEnv("planner.api_key", "ATLAS_PLANNER_API_KEY", "GEMINI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}
	return v, nil
}

// FromViper unmarshals and validates a configuration.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Load is NewViper followed by FromViper.
func Load(cfgFile string) (*Config, error) {
	v, err := NewViper(cfgFile)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	var errs []error

	if c.Mission.GraspAttempts < 1 {
		errs = append(errs, errors.New("mission.grasp_attempts must be >= 1"))
	}
	if c.Mission.TickInterval < 0 {
		errs = append(errs, errors.New("mission.tick_interval must not be negative"))
	}

	switch c.Search.Mode {
	case SearchModeContinuous, SearchModeWaypoint:
	default:
		errs = append(errs, fmt.Errorf("search.mode %q must be %q or %q",
			c.Search.Mode, SearchModeContinuous, SearchModeWaypoint))
	}
	if c.Search.AreaWidth <= 0 || c.Search.AreaHeight < 0 {
		errs = append(errs, errors.New("search area must have positive width and non-negative height"))
	}
	if c.Search.Step < navigation.MinStep {
		errs = append(errs, fmt.Errorf("search.step must be at least %v", navigation.MinStep))
	} else if rows := navigation.Rows(navigation.Area{Width: c.Search.AreaWidth, Height: c.Search.AreaHeight}, c.Search.Step); rows > navigation.MaxRows {
		errs = append(errs, fmt.Errorf("search area needs %d rows at this step, limit is %d", rows, navigation.MaxRows))
	}

	if c.Servo.CenterTolerancePx <= 0 {
		errs = append(errs, errors.New("servo.center_tolerance_px must be positive"))
	}
	if c.Servo.TargetDistanceCm <= 0 {
		errs = append(errs, errors.New("servo.target_distance_cm must be positive"))
	}
	if c.Servo.TurnGain <= 0 {
		errs = append(errs, errors.New("servo.turn_gain must be positive"))
	}
	if c.Servo.MaxTurnDeg <= 0 {
		errs = append(errs, errors.New("servo.max_turn_deg must be positive"))
	}
	if c.Servo.ForwardDuration <= 0 {
		errs = append(errs, errors.New("servo.forward_duration must be positive"))
	}
	if c.Servo.MaxIterations < 1 {
		errs = append(errs, errors.New("servo.max_iterations must be >= 1"))
	}

	switch c.Perception.Detector {
	case DetectorColor, DetectorYOLO:
	default:
		errs = append(errs, fmt.Errorf("perception.detector %q must be %q or %q",
			c.Perception.Detector, DetectorColor, DetectorYOLO))
	}
	if c.Perception.FocalLengthPx <= 0 {
		errs = append(errs, errors.New("perception.focal_length_px must be positive"))
	}
	for name, bands := range c.Perception.ColorRanges {
		if len(bands) == 0 {
			errs = append(errs, fmt.Errorf("perception.color_ranges.%s has no bands", name))
		}
		for i, b := range bands {
			if err := b.validate(); err != nil {
				errs = append(errs, fmt.Errorf("perception.color_ranges.%s[%d]: %w", name, i, err))
			}
		}
	}

	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, errors.New("camera width and height must be positive"))
	}

	switch c.Robot.Driver {
	case RobotDriverSim, RobotDriverHTTP:
	default:
		errs = append(errs, fmt.Errorf("robot.driver %q must be %q or %q",
			c.Robot.Driver, RobotDriverSim, RobotDriverHTTP))
	}
	if c.Robot.BaseSpeed <= 0 || c.Robot.TurnRate <= 0 {
		errs = append(errs, errors.New("robot.base_speed and robot.turn_rate must be positive"))
	}

	switch c.Planner.Provider {
	case PlannerGemini, PlannerKeyword:
	default:
		errs = append(errs, fmt.Errorf("planner.provider %q must be %q or %q",
			c.Planner.Provider, PlannerGemini, PlannerKeyword))
	}

	return errors.Join(errs...)
}
