package plan

import (
	"bytes"
	"fmt"
	"os"

	"github.com/brimdata/openrec/compiler/infer"
	"github.com/brimdata/openrec/pkg/logger"
	"github.com/brimdata/openrec/runtime/expr"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// OnError says what a run does with a row the operator fails on.
type OnError string

const (
	// OnErrorSkip reports the failed row and continues.
	OnErrorSkip OnError = "skip"
	// OnErrorAbort stops the run at the first failed row.
	OnErrorAbort OnError = "abort"
)

func (o *OnError) Set(s string) error {
	switch OnError(s) {
	case OnErrorSkip, "":
		*o = OnErrorSkip
	case OnErrorAbort:
		*o = OnErrorAbort
	default:
		return fmt.Errorf("invalid on_error policy: %s", s)
	}
	return nil
}

func (o OnError) String() string {
	return string(o)
}

func (o *OnError) UnmarshalText(text []byte) error {
	return o.Set(string(text))
}

type Config struct {
	Logger     logger.Config `yaml:"logger"`
	Partitions int           `yaml:"partitions"`
	OnError    OnError       `yaml:"on_error"`
	CacheSize  int           `yaml:"cache_size"`
	Evaluator  expr.Config   `yaml:"evaluator"`
}

func DefaultConfig() Config {
	return Config{
		Logger: logger.Config{
			Path:  "stderr",
			Mode:  logger.FileModeTruncate,
			Level: zap.WarnLevel,
		},
		Partitions: 1,
		OnError:    OnErrorSkip,
		CacheSize:  infer.DefaultCacheSize,
		Evaluator:  expr.DefaultConfig(),
	}
}

// LoadConfig reads the YAML file at path over the defaults.
func LoadConfig(path string) (Config, error) {
	conf := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&conf); err != nil {
		return conf, fmt.Errorf("%s: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return conf, fmt.Errorf("%s: %w", path, err)
	}
	return conf, nil
}

func (c Config) Validate() error {
	var err error
	if c.Partitions < 1 {
		err = multierr.Append(err, fmt.Errorf("partitions must be positive: %d", c.Partitions))
	}
	if c.CacheSize < 0 {
		err = multierr.Append(err, fmt.Errorf("cache_size must not be negative: %d", c.CacheSize))
	}
	var o OnError
	if setErr := o.Set(string(c.OnError)); setErr != nil {
		err = multierr.Append(err, setErr)
	}
	return multierr.Append(err, c.Evaluator.Validate())
}
