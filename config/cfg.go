package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	// ImportConfig selects units and output representation of the placement
	// document.
	ImportConfig struct {
		Units  string `yaml:"units" validate:"required,oneof=mm ft"`
		Format string `yaml:"format" validate:"required,oneof=yaml xml"`
	}

	// AlignmentConfig tunes the rigid transform search. Distances are
	// millimetres regardless of import units, converted on use.
	AlignmentConfig struct {
		Enable        bool    `yaml:"enable"`
		AngleStepDeg  float64 `yaml:"angle_step_deg" validate:"gt=0,lte=90"`
		RefineStepDeg float64 `yaml:"refine_step_deg" validate:"gt=0,lte=45"`
		MaxErrorMM    float64 `yaml:"max_error_mm" validate:"gte=0"`
		ToleranceMM   float64 `yaml:"tolerance_mm" validate:"gte=0"`
		AllowRotation bool    `yaml:"allow_rotation"`
	}

	// GroupingConfig tunes tendon clustering, millimetre tolerances.
	GroupingConfig struct {
		Enable           bool    `yaml:"enable"`
		AngleTolDeg      float64 `yaml:"angle_tol_deg" validate:"gte=0,lte=90"`
		LengthTolMM      float64 `yaml:"length_tol_mm" validate:"gte=0"`
		SpacingTolMM     float64 `yaml:"spacing_tol_mm" validate:"gte=0"`
		ShiftTolMM       float64 `yaml:"shift_tol_mm" validate:"gte=0"`
		DrapeDistTolMM   float64 `yaml:"drape_dist_tol_mm" validate:"gte=0"`
		DrapeHeightTolMM int     `yaml:"drape_height_tol_mm" validate:"gte=0"`
	}

	Config struct {
		Version   int             `yaml:"version" validate:"eq=1"`
		Import    ImportConfig    `yaml:"import"`
		Alignment AlignmentConfig `yaml:"alignment"`
		Grouping  GroupingConfig  `yaml:"grouping"`
		Logging   LoggingConfig   `yaml:"logging"`
		Reporting ReporterConfig  `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of the expanded configuration template to
// provide sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
