package cmds

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/go-go-golems/parley/pkg/config"
	"github.com/go-go-golems/parley/pkg/gateway"
	"github.com/go-go-golems/parley/pkg/registry"
	"github.com/go-go-golems/parley/pkg/store"
)

// runtime bundles the collaborators built from the loaded configuration.
type runtime struct {
	cfg      *config.Config
	store    *store.Store
	registry *registry.Registry
	gateway  *gateway.Gateway
}

func loadRuntime() (*runtime, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg.StorePath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open store at %s", cfg.StorePath)
	}

	reg, err := registry.FromSettings(cfg.DefaultProvider, cfg.Providers)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:      cfg,
		store:    st,
		registry: reg,
		gateway:  gateway.New(reg),
	}, nil
}

// loadStore skips provider construction for the commands that only touch the
// store, so they work without any provider configured.
func loadStore() (*store.Store, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg.StorePath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open store at %s", cfg.StorePath)
	}
	return st, nil
}
