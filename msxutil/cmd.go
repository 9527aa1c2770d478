/*
Copyright © 2024 the MSX authors.
This file is part of MSX.

MSX is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

MSX is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with MSX.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package msxutil contains the command-line interface to the MSX
// multi-species water quality model.
package msxutil

import (
	"fmt"
	"text/tabwriter"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/watermodel/msx"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to MSX.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "project",
			usage: `
              project specifies the location of the JSON project file holding
              the reaction system, network data, and solver options.`,
			shorthand:  "p",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "loglevel",
			usage: `
              loglevel sets the logging threshold: debug, info, warn, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "output",
			usage: `
              output specifies a path to write the validated, normalized
              project back out to. If empty, nothing is written.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{validateCmd.Flags()},
		},
		{
			name: "target",
			usage: `
              target selects the reactor class the reaction applies within:
              pipe or tank.`,
			defaultVal: "pipe",
			flagsets:   []*pflag.FlagSet{evalCmd.Flags()},
		},
		{
			name: "species",
			usage: `
              species names the species whose reaction expression should be
              evaluated.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{evalCmd.Flags()},
		},
		{
			name: "state",
			usage: `
              state supplies the evaluation state as name=value pairs, for
              example --state AS3=2.0 --state NH2CL=0.5. Every species,
              parameter, and hydraulic variable the expression references
              must be given.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{evalCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("MSX")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(validateCmd)
	Root.AddCommand(reportCmd)
	Root.AddCommand(evalCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("msx: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "msx",
	Short: "A multi-species water quality reaction network model.",
	Long: `MSX loads, validates, and compiles multi-species water quality
reaction systems for drinking-water distribution networks, in the
WNTR/EPANET-MSX JSON project format.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format 'MSX_var'
where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		if err := setConfig(); err != nil {
			return err
		}
		return setupLog(Cfg.GetString("loglevel"))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of MSX.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("MSX v%s\n", msx.Version)
	},
	DisableAutoGenTag: true,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a project file.",
	Long: `validate loads the project file, builds the reaction network model,
and reports every validation problem found: duplicate definitions, cyclic
terms, unresolved identifiers, wall species with tank reactions, dangling
network data references, and out-of-range options. With --output, the
validated and normalized project is written back out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadModel()
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"species":        len(m.Species()),
			"constants":      len(m.Constants()),
			"parameters":     len(m.Parameters()),
			"terms":          len(m.Terms()),
			"pipe_reactions": len(m.Reactions(msx.Pipe)),
			"tank_reactions": len(m.Reactions(msx.Tank)),
		}).Infof("project %q is valid", m.Name())
		if output := Cfg.GetString("output"); output != "" {
			if err := msx.WriteProjectFile(output, m.Project()); err != nil {
				return err
			}
			logrus.Infof("wrote normalized project to %s", output)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize a project file.",
	Long: `report prints a human-readable summary of a validated project:
its species, constants, parameters, terms, compiled reactions, and solver
options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadModel()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)

		fmt.Fprintf(w, "project:\t%s\n", m.Name())
		if t := m.Title(); t != "" {
			fmt.Fprintf(w, "title:\t%s\n", t)
		}
		fmt.Fprintln(w)

		fmt.Fprintln(w, "SPECIES\tTYPE\tUNITS\tNOTE")
		for _, s := range m.Species() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.Type, s.Units, s.Note)
		}
		fmt.Fprintln(w)

		if consts := m.Constants(); len(consts) > 0 {
			fmt.Fprintln(w, "CONSTANT\tVALUE\tUNITS")
			for _, c := range consts {
				fmt.Fprintf(w, "%s\t%g\t%s\n", c.Name, c.Value, c.Units)
			}
			fmt.Fprintln(w)
		}
		if params := m.Parameters(); len(params) > 0 {
			fmt.Fprintln(w, "PARAMETER\tGLOBAL VALUE\tUNITS")
			for _, p := range params {
				fmt.Fprintf(w, "%s\t%g\t%s\n", p.Name, p.GlobalValue, p.Units)
			}
			fmt.Fprintln(w)
		}
		if terms := m.Terms(); len(terms) > 0 {
			fmt.Fprintln(w, "TERM\tEXPRESSION")
			for _, t := range terms {
				fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Expression)
			}
			fmt.Fprintln(w)
		}

		for _, target := range []msx.TargetType{msx.Pipe, msx.Tank} {
			reactions := m.Reactions(target)
			if len(reactions) == 0 {
				continue
			}
			fmt.Fprintf(w, "%s REACTIONS\tTYPE\tEXPRESSION\n", target)
			for _, r := range reactions {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Species, r.Type, r.Expr.Source())
			}
			fmt.Fprintln(w)
		}

		o := m.Options()
		fmt.Fprintf(w, "timestep:\t%g s\n", o.Timestep)
		fmt.Fprintf(w, "solver:\t%s (coupling %s)\n", o.Solver, o.Coupling)
		fmt.Fprintf(w, "tolerances:\trtol %g, atol %g\n", o.Rtol, o.Atol)
		fmt.Fprintf(w, "discretization:\t%d segments, peclet %g\n", o.Segments, o.Peclet)
		return w.Flush()
	},
	DisableAutoGenTag: true,
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate one reaction expression.",
	Long: `eval compiles the project and evaluates the reaction expression of
the species named by --species for the reactor class named by --target,
against the state supplied with --state. It is intended for debugging
reaction system configurations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadModel()
		if err != nil {
			return err
		}
		target, err := parseTarget(Cfg.GetString("target"))
		if err != nil {
			return err
		}
		species := Cfg.GetString("species")
		if species == "" {
			return fmt.Errorf("msx: you need to specify a species (for example: --species AS3)")
		}
		state, err := parseState(Cfg.GetStringSlice("state"))
		if err != nil {
			return err
		}
		r, ok := m.Reaction(target, species)
		if !ok {
			return fmt.Errorf("msx: no %s reaction declared for species %q", target, species)
		}
		v, err := r.Expr.Eval(state)
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"target":     target,
			"type":       r.Type,
			"expression": r.Expr.Source(),
		}).Debug("evaluated reaction")
		cmd.Printf("%g\n", v)
		return nil
	},
	DisableAutoGenTag: true,
}

// loadModel reads and compiles the project named by the project
// configuration variable. Validation problems are logged individually
// before the aggregate error is returned.
func loadModel() (*msx.Model, error) {
	filename, err := checkProjectFile(Cfg.GetString("project"))
	if err != nil {
		return nil, err
	}
	p, err := msx.ReadProjectFile(filename)
	if err != nil {
		return nil, err
	}
	m, err := msx.NewModel(p)
	if err != nil {
		if verr, ok := err.(*msx.ValidationError); ok {
			for _, v := range verr.Violations {
				logrus.Error(v)
			}
			return nil, fmt.Errorf("msx: project %s has %d validation problem(s)", filename, len(verr.Violations))
		}
		return nil, err
	}
	return m, nil
}
