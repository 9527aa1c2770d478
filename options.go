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

package msx

import "fmt"

// Recognized values for the enumerated solver options.
var (
	areaUnitsOptions = []string{"FT2", "M2", "CM2"}
	rateUnitsOptions = []string{"SEC", "MIN", "HR", "DAY"}
	solverOptions    = []string{"EUL", "RK5", "ROS2"}
	couplingOptions  = []string{"NONE", "PARTIAL", "FULL"}
	compilerOptions  = []string{"NONE", "VC", "GC"}
)

// ReportOptions configures time-series reporting by the external solver.
// Nil pointer fields mean "use the solver's default".
type ReportOptions struct {
	Pagesize *int    `json:"pagesize"`
	Report   *string `json:"report_filename"`

	// Species maps species names to whether they should be reported, and
	// SpeciesPrecision to the number of decimal places to report them
	// with.
	Species          map[string]bool `json:"species"`
	SpeciesPrecision map[string]int  `json:"species_precision"`

	// Nodes and Links filter reporting to the named elements; nil means
	// all elements.
	Nodes []string `json:"nodes"`
	Links []string `json:"links"`
}

// Options configures the external solver: integration tolerances, timestep,
// unit systems, and rate/equilibrium coupling. No cross-field validation is
// performed beyond type and range checks; the solver interprets
// combinations.
type Options struct {
	Timestep float64 `json:"timestep"` // water-quality timestep [s]

	AreaUnits string `json:"area_units"` // wall species area units
	RateUnits string `json:"rate_units"` // reaction rate time units

	Solver   string `json:"solver"`   // integration algorithm
	Coupling string `json:"coupling"` // rate/equilibrium coupling strategy

	// Global tolerance defaults, overridable per species.
	Rtol float64 `json:"rtol"`
	Atol float64 `json:"atol"`

	// Compiler selects interpreted or natively compiled expression
	// evaluation. It is an optimization flag with no effect on results.
	Compiler string `json:"compiler"`

	Segments int     `json:"segments"` // maximum pipe segment count
	Peclet   float64 `json:"peclet"`   // numerical-diffusion correction threshold

	Report ReportOptions `json:"report"`
}

// DefaultOptions returns the options used where a project file is silent.
func DefaultOptions() Options {
	return Options{
		Timestep:  360,
		AreaUnits: "M2",
		RateUnits: "MIN",
		Solver:    "RK5",
		Coupling:  "NONE",
		Rtol:      1e-4,
		Atol:      1e-4,
		Compiler:  "NONE",
		Segments:  5000,
		Peclet:    1000,
	}
}

// checkOption reports an error unless value is one of the allowed values.
func checkOption(name, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("msx: options: %s must be one of %v, but is %q", name, allowed, value)
}

// Validate checks every option's type and range, returning a
// *ValidationError aggregating all problems found, or nil.
func (o *Options) Validate() error {
	var errs []error
	if o.Timestep <= 0 {
		errs = append(errs, fmt.Errorf("msx: options: timestep must be positive, but is %g", o.Timestep))
	}
	if err := checkOption("area_units", o.AreaUnits, areaUnitsOptions); err != nil {
		errs = append(errs, err)
	}
	if err := checkOption("rate_units", o.RateUnits, rateUnitsOptions); err != nil {
		errs = append(errs, err)
	}
	if err := checkOption("solver", o.Solver, solverOptions); err != nil {
		errs = append(errs, err)
	}
	if err := checkOption("coupling", o.Coupling, couplingOptions); err != nil {
		errs = append(errs, err)
	}
	if err := checkOption("compiler", o.Compiler, compilerOptions); err != nil {
		errs = append(errs, err)
	}
	if o.Rtol <= 0 {
		errs = append(errs, fmt.Errorf("msx: options: rtol must be positive, but is %g", o.Rtol))
	}
	if o.Atol <= 0 {
		errs = append(errs, fmt.Errorf("msx: options: atol must be positive, but is %g", o.Atol))
	}
	if o.Segments <= 0 {
		errs = append(errs, fmt.Errorf("msx: options: segments must be positive, but is %d", o.Segments))
	}
	if o.Peclet <= 0 {
		errs = append(errs, fmt.Errorf("msx: options: peclet must be positive, but is %g", o.Peclet))
	}
	if o.Report.Pagesize != nil && *o.Report.Pagesize <= 0 {
		errs = append(errs, fmt.Errorf("msx: options: report pagesize must be positive, but is %d", *o.Report.Pagesize))
	}
	for name, p := range o.Report.SpeciesPrecision {
		if p < 0 {
			errs = append(errs, fmt.Errorf("msx: options: report precision for species %q must not be negative, but is %d", name, p))
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Violations: errs}
	}
	return nil
}
