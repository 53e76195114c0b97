package config

// Options are the command-line options shared by every zalletd command.
// They are parsed with go-flags and override the config file.
type Options struct {
	ConfigFile string `short:"c" long:"config" description:"Use the specified config file (default <datadir>/zallet.toml)"`
	Verbose    bool   `short:"v" long:"verbose" description:"Enable verbose logging"`
	DataDir    string `long:"datadir" description:"Directory to store wallet data"`
	Network    string `long:"network" description:"Network to use: main, test or regtest"`
}

// LoadWithOptions resolves the config file location from opts, loads it and
// applies the command-line overrides.
func LoadWithOptions(opts *Options) (*Config, error) {
	path, required := opts.ConfigFile, opts.ConfigFile != ""
	if path == "" {
		dataDir := opts.DataDir
		if dataDir == "" {
			dataDir = DefaultDataDir()
		}
		path = (&Config{DataDir: dataDir}).ConfigFile()
	}

	cfg, err := Load(path, required)
	if err != nil {
		return nil, err
	}
	opts.Apply(cfg)
	return cfg, nil
}

// Apply overrides cfg with the options that were given.
func (o *Options) Apply(cfg *Config) {
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if o.Network != "" {
		cfg.Network = o.Network
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
}
