package main

import "time"

// Options is option of the command.
type Options struct {
	Backend     string        `short:"b" long:"backend" description:"Model backend" choice:"subprocess" choice:"remote" choice:"resample" env:"SUPRES_BACKEND"`
	Command     string        `long:"command" description:"Predictor executable for the subprocess backend" env:"SUPRES_COMMAND"`
	CommandArgs []string      `long:"command-arg" description:"Extra argument passed to the predictor (repeatable)"`
	Endpoint    string        `long:"endpoint" description:"Base URL of the remote backend" env:"SUPRES_ENDPOINT"`
	Timeout     time.Duration `long:"timeout" description:"Per-request timeout for the remote backend"`
	KeepGoing   bool          `short:"k" long:"keep-going" description:"Log failed images and continue with the rest"`
	NoKeepGoing bool          `long:"no-keep-going" description:"Stop at the first failed image even if the config enables keep_going"`
	Quality     *int          `short:"q" long:"quality" description:"JPEG output quality (1-100, default 90)"`
	Config      string        `long:"config" description:"Config file (.toml, .yaml, .json)" env:"SUPRES_CONFIG"`
	MetricsFile string        `long:"metrics-file" description:"Write Prometheus metrics to this textfile"`
	LogLevel    string        `short:"l" long:"log-level" description:"Log level" env:"SUPRES_LOG_LEVEL"`
	LogFormat   string        `long:"log-format" description:"Log format" choice:"console" choice:"json"`

	Args struct {
		Path      string `positional-arg-name:"image_path|image_directory" required:"yes"`
		WeightSet string `positional-arg-name:"weight_set" required:"yes"`
		PatchSize string `positional-arg-name:"patch_size"`
	} `positional-args:"yes"`
}
