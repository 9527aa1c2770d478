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

package msxutil

import (
	"reflect"
	"testing"

	"github.com/watermodel/msx"
)

func TestParseState(t *testing.T) {
	state, err := parseState([]string{"AS3=2.0", "NH2CL = 0.5", "Av=12"})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{"AS3": 2.0, "NH2CL": 0.5, "Av": 12}
	if !reflect.DeepEqual(state, want) {
		t.Errorf("have %v, want %v", state, want)
	}

	for _, bad := range []string{"AS3", "=2.0", "AS3=two"} {
		if _, err := parseState([]string{bad}); err == nil {
			t.Errorf("%q: parse should fail", bad)
		}
	}
}

func TestParseTarget(t *testing.T) {
	if target, err := parseTarget("pipe"); err != nil || target != msx.Pipe {
		t.Errorf("pipe: have %v, %v", target, err)
	}
	if target, err := parseTarget("Tank"); err != nil || target != msx.Tank {
		t.Errorf("Tank: have %v, %v", target, err)
	}
	if _, err := parseTarget("reservoir"); err == nil {
		t.Error("reservoir: parse should fail")
	}
}

func TestCheckProjectFile(t *testing.T) {
	if _, err := checkProjectFile(""); err == nil {
		t.Error("empty project path should fail")
	}
	if _, err := checkProjectFile("no_such_project.json"); err == nil {
		t.Error("missing project file should fail")
	}
	if f, err := checkProjectFile("../data/arsenic.json"); err != nil || f != "../data/arsenic.json" {
		t.Errorf("have %q, %v", f, err)
	}
}
