package cmd

import (
	"github.com/spf13/cobra"
	"github.com/xmazu/dotenvng/internal/envfile"
)

// parseFlags are the parser switches shared by every command that reads env
// files. Only flags given on the command line override the settings.
type parseFlags struct {
	load        string
	environment string
	opts        envfile.Options
}

func (f *parseFlags) register(cmd *cobra.Command, loadUsage string) {
	def := envfile.DefaultOptions()
	fl := cmd.Flags()
	fl.StringVarP(&f.load, "load", "l", "", loadUsage)
	fl.StringVarP(&f.environment, "environment", "e", "", "Environment layer to load from a directory (.env.<environment>)")
	fl.BoolVar(&f.opts.IgnoreLiteralCase, "ignore-literal-case", def.IgnoreLiteralCase, "Match null, true, false, ... regardless of case")
	fl.BoolVar(&f.opts.ParseLiterals, "parse-literals", def.ParseLiterals, "Type null, undefined, true, false and NaN")
	fl.BoolVar(&f.opts.ParseNumbers, "parse-numbers", def.ParseNumbers, "Type numeric values as numbers")
	fl.BoolVar(&f.opts.AllowEmptyVariables, "allow-empty-variables", def.AllowEmptyVariables, "Accept KEY= lines")
	fl.BoolVar(&f.opts.AllowOrphanKeys, "allow-orphan-keys", def.AllowOrphanKeys, "Accept lines without '=' as empty variables")
	fl.BoolVar(&f.opts.InterpolationEnabled, "interpolation-enabled", def.InterpolationEnabled, "Substitute ${NAME} references")
	fl.BoolVar(&f.opts.OverwriteExisting, "overwrite-existing", def.OverwriteExisting, "Let file values win over the process environment")
	fl.BoolVar(&f.opts.Normalize, "normalize", def.Normalize, "Add an UPPER_CASE alias for every key")
}

// options layers the changed flags over the loaded settings. Base is left
// nil, i.e. the process environment.
func (f *parseFlags) options(cmd *cobra.Command) envfile.Options {
	opts := currentSettings().Options()
	if cmd == nil {
		return opts
	}
	fl := cmd.Flags()
	set := func(name string, dst *bool, src bool) {
		if fl.Changed(name) {
			*dst = src
		}
	}
	set("ignore-literal-case", &opts.IgnoreLiteralCase, f.opts.IgnoreLiteralCase)
	set("parse-literals", &opts.ParseLiterals, f.opts.ParseLiterals)
	set("parse-numbers", &opts.ParseNumbers, f.opts.ParseNumbers)
	set("allow-empty-variables", &opts.AllowEmptyVariables, f.opts.AllowEmptyVariables)
	set("allow-orphan-keys", &opts.AllowOrphanKeys, f.opts.AllowOrphanKeys)
	set("interpolation-enabled", &opts.InterpolationEnabled, f.opts.InterpolationEnabled)
	set("overwrite-existing", &opts.OverwriteExisting, f.opts.OverwriteExisting)
	set("normalize", &opts.Normalize, f.opts.Normalize)
	if fl.Changed("environment") {
		opts.Environment = f.environment
	}
	return opts
}
