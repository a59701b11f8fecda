package main

import (
	"fmt"
	"math"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	gmat "gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/fumin/spinham"
	"github.com/fumin/spinham/spin"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

// Config describes a spin system and the sweep to run on it.
type Config struct {
	MaxDim       int                 `yaml:"maxDim" validate:"omitempty,min=1"`
	Centers      []CenterConfig      `yaml:"centers" validate:"required,min=1,dive"`
	Order        []string            `yaml:"order" validate:"omitempty,unique,dive,required"`
	Interactions []InteractionConfig `yaml:"interactions" validate:"dive"`

	// Fields in Tesla, each solved in its own run directory.
	Fields       [][]float64 `yaml:"fields" validate:"dive,len=3"`
	Temperatures []float64   `yaml:"temperatures" validate:"dive,gt=0"`

	// States is the size of the pseudospin the g tensor is computed for, zero to skip.
	States int     `yaml:"states" validate:"omitempty,min=2"`
	Tol    float64 `yaml:"tol" validate:"omitempty,gt=0"`
}

type CenterConfig struct {
	Label    string      `yaml:"label" validate:"required"`
	Spin     float64     `yaml:"spin" validate:"gte=0"`
	Kind     string      `yaml:"kind" validate:"omitempty,oneof=electronic el nuclear nuc"`
	NuclearG *float64    `yaml:"nuclearG"`
	G        []float64   `yaml:"g" validate:"omitempty,len=3"`
	Axes     [][]float64 `yaml:"axes" validate:"omitempty,len=3,dive,len=3"`
	ZFS      *ZFSConfig  `yaml:"zfs"`
}

type ZFSConfig struct {
	D    float64     `yaml:"d"`
	E    float64     `yaml:"e"`
	Axes [][]float64 `yaml:"axes" validate:"omitempty,len=3,dive,len=3"`
}

type InteractionConfig struct {
	Between []string `yaml:"between" validate:"len=2,dive,required"`
	Iso     float64  `yaml:"iso"`
	Axial   float64  `yaml:"axial"`
	Rhombic float64  `yaml:"rhombic"`
}

func loadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "")
	}
	cfg, err := parseConfig(b)
	if err != nil {
		return Config{}, errors.Wrap(err, path)
	}
	return cfg, nil
}

func parseConfig(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "")
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, errors.Wrap(err, "")
	}
	seen := make(map[[3]float64]struct{}, len(cfg.Fields))
	for _, f := range cfg.Fields {
		b := [3]float64{f[0], f[1], f[2]}
		for _, v := range b {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Config{}, errors.Errorf("field %v", f)
			}
		}
		if _, ok := seen[b]; ok {
			return Config{}, errors.Errorf("duplicate field %v", f)
		}
		seen[b] = struct{}{}
	}
	if len(cfg.Fields) == 0 {
		cfg.Fields = [][]float64{{0, 0, 0}}
	}
	return cfg, nil
}

// System builds the spin system the config describes.
func (cfg Config) System() (*spinham.System, error) {
	opt := spinham.NewSystemOptions()
	if cfg.MaxDim > 0 {
		opt = opt.MaxDim(cfg.MaxDim)
	}
	sys := spinham.NewSystem(opt)
	for _, cc := range cfg.Centers {
		c, err := cc.center()
		if err != nil {
			return nil, errors.Wrap(err, cc.Label)
		}
		if err := sys.Add(cc.Label, c); err != nil {
			return nil, errors.Wrap(err, "")
		}
	}
	if len(cfg.Order) > 0 {
		if err := sys.SetOrder(cfg.Order); err != nil {
			return nil, errors.Wrap(err, "")
		}
	}
	for _, ic := range cfg.Interactions {
		if err := sys.SetInteraction(ic.Between[0], ic.Between[1], ic.Iso, ic.Axial, ic.Rhombic); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%v", ic.Between))
		}
	}
	return sys, nil
}

func (cc CenterConfig) center() (*spin.Center, error) {
	kind := spin.Electronic
	if cc.Kind != "" {
		var err error
		if kind, err = spin.ParseKind(cc.Kind); err != nil {
			return nil, errors.Wrap(err, "")
		}
	}
	opt := spin.NewCenterOptions()
	if cc.NuclearG != nil {
		opt = opt.NuclearG(*cc.NuclearG)
	}
	c, err := spin.NewCenter(cc.Spin, kind, opt)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	if len(cc.G) > 0 {
		c.SetG([3]float64{cc.G[0], cc.G[1], cc.G[2]})
	}
	if len(cc.Axes) > 0 {
		if err := c.SetAxes(dense(cc.Axes)); err != nil {
			return nil, errors.Wrap(err, "")
		}
	}
	if z := cc.ZFS; z != nil {
		var err error
		if len(z.Axes) > 0 {
			err = c.SetZFS(z.D, z.E, dense(z.Axes))
		} else {
			err = c.SetZFS(z.D, z.E, nil)
		}
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
	}
	return c, nil
}

// dense converts validated 3x3 rows.
func dense(rows [][]float64) *gmat.Dense {
	a := gmat.NewDense(3, 3, nil)
	for i, row := range rows {
		a.SetRow(i, row)
	}
	return a
}
