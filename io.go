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

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadProjectFile reads the project file at filename.
func ReadProjectFile(filename string) (*Project, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("msx: opening project file: %v", err)
	}
	defer f.Close()
	p, err := ReadProject(f)
	if err != nil {
		return nil, fmt.Errorf("%v (file %s)", err, filename)
	}
	return p, nil
}

// ReadProject decodes a JSON project document from r. Malformed JSON and
// missing required fields are reported as a *SchemaError; no partial
// project is returned. Enumerated string fields are case-normalized, and
// options missing from the document take their defaults.
func ReadProject(r io.Reader) (*Project, error) {
	p := &Project{Options: DefaultOptions()}
	if err := json.NewDecoder(r).Decode(p); err != nil {
		return nil, &SchemaError{Err: err}
	}
	normalizeProject(p)
	if err := checkRequired(p); err != nil {
		return nil, err
	}
	return p, nil
}

// normalizeProject case-normalizes the enumerated string fields so that
// hand-written project files are accepted regardless of case.
func normalizeProject(p *Project) {
	sys := &p.ReactionSystem
	for i := range sys.Species {
		sys.Species[i].Type = SpeciesType(strings.ToLower(string(sys.Species[i].Type)))
	}
	for i := range sys.PipeReactions {
		sys.PipeReactions[i].Type = ExpressionType(strings.ToLower(string(sys.PipeReactions[i].Type)))
	}
	for i := range sys.TankReactions {
		sys.TankReactions[i].Type = ExpressionType(strings.ToLower(string(sys.TankReactions[i].Type)))
	}
	for species, byNode := range p.NetworkData.Sources {
		for node, src := range byNode {
			src.SourceType = SourceType(strings.ToUpper(string(src.SourceType)))
			p.NetworkData.Sources[species][node] = src
		}
	}
	o := &p.Options
	o.AreaUnits = strings.ToUpper(o.AreaUnits)
	o.RateUnits = strings.ToUpper(o.RateUnits)
	o.Solver = strings.ToUpper(o.Solver)
	o.Coupling = strings.ToUpper(o.Coupling)
	o.Compiler = strings.ToUpper(o.Compiler)
}

// checkRequired checks that the fields the schema requires are present.
// Referential and semantic validation belongs to NewModel; this only
// rejects documents that are structurally incomplete.
func checkRequired(p *Project) error {
	if p.Name == "" {
		return &SchemaError{Field: "name", Err: fmt.Errorf("missing required field")}
	}
	sys := &p.ReactionSystem
	if len(sys.Species) == 0 {
		return &SchemaError{Field: "reaction_system.species", Err: fmt.Errorf("at least one species is required")}
	}
	for i, s := range sys.Species {
		field := fmt.Sprintf("reaction_system.species[%d]", i)
		if s.Name == "" {
			return &SchemaError{Field: field + ".name", Err: fmt.Errorf("missing required field")}
		}
		if s.Type == "" {
			return &SchemaError{Field: field + ".species_type", Err: fmt.Errorf("missing required field")}
		}
		if s.Units == "" {
			return &SchemaError{Field: field + ".units", Err: fmt.Errorf("missing required field")}
		}
	}
	for i, c := range sys.Constants {
		if c.Name == "" {
			return &SchemaError{
				Field: fmt.Sprintf("reaction_system.constants[%d].name", i),
				Err:   fmt.Errorf("missing required field")}
		}
	}
	for i, pm := range sys.Parameters {
		if pm.Name == "" {
			return &SchemaError{
				Field: fmt.Sprintf("reaction_system.parameters[%d].name", i),
				Err:   fmt.Errorf("missing required field")}
		}
	}
	for i, t := range sys.Terms {
		field := fmt.Sprintf("reaction_system.terms[%d]", i)
		if t.Name == "" {
			return &SchemaError{Field: field + ".name", Err: fmt.Errorf("missing required field")}
		}
		if t.Expression == "" {
			return &SchemaError{Field: field + ".expression", Err: fmt.Errorf("missing required field")}
		}
	}
	if err := checkReactions(sys.PipeReactions, "pipe_reactions"); err != nil {
		return err
	}
	return checkReactions(sys.TankReactions, "tank_reactions")
}

func checkReactions(reactions []ReactionConfig, list string) error {
	for i, r := range reactions {
		field := fmt.Sprintf("reaction_system.%s[%d]", list, i)
		if r.Species == "" {
			return &SchemaError{Field: field + ".species_name", Err: fmt.Errorf("missing required field")}
		}
		if r.Type == "" {
			return &SchemaError{Field: field + ".expression_type", Err: fmt.Errorf("missing required field")}
		}
		if r.Expression == "" {
			return &SchemaError{Field: field + ".expression", Err: fmt.Errorf("missing required field")}
		}
	}
	return nil
}

// WriteProjectFile writes p as a JSON project document to filename.
func WriteProjectFile(filename string, p *Project) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("msx: creating project file: %v", err)
	}
	defer f.Close()
	return WriteProject(f, p)
}

// WriteProject encodes p as an indented JSON project document. Reading the
// written document back produces a schema-equivalent project.
func WriteProject(w io.Writer, p *Project) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("msx: encoding project: %v", err)
	}
	return nil
}
