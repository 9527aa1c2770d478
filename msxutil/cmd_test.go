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
	"bytes"
	"strings"
	"testing"

	"github.com/watermodel/msx"
)

func TestLoadModel(t *testing.T) {
	Cfg.Set("project", "../data/arsenic.json")
	defer Cfg.Set("project", "")

	m, err := loadModel()
	if err != nil {
		t.Fatal(err)
	}
	if m.Name() != "arsenic_chloramine" {
		t.Errorf("name: have %q, want %q", m.Name(), "arsenic_chloramine")
	}
	if _, ok := m.Reaction(msx.Pipe, "AS5s"); !ok {
		t.Error("no pipe reaction for AS5s")
	}
}

func TestLoadModelMissingProject(t *testing.T) {
	Cfg.Set("project", "")
	if _, err := loadModel(); err == nil {
		t.Error("loading without a project file should fail")
	}
}

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOutput(&buf)
	versionCmd.Run(versionCmd, nil)
	if want := "MSX v" + msx.Version; !strings.Contains(buf.String(), want) {
		t.Errorf("have %q, want it to contain %q", buf.String(), want)
	}
}

func TestEvalCmd(t *testing.T) {
	Cfg.Set("project", "../data/arsenic.json")
	Cfg.Set("target", "pipe")
	Cfg.Set("species", "AS3")
	Cfg.Set("state", []string{"AS3=2.0", "NH2CL=0.5"})
	defer func() {
		Cfg.Set("project", "")
		Cfg.Set("species", "")
		Cfg.Set("state", []string{})
	}()

	var buf bytes.Buffer
	evalCmd.SetOutput(&buf)
	if err := evalCmd.RunE(evalCmd, nil); err != nil {
		t.Fatal(err)
	}
	if have, want := strings.TrimSpace(buf.String()), "-10"; have != want {
		t.Errorf("have %q, want %q", have, want)
	}
}

func TestReportCmd(t *testing.T) {
	Cfg.Set("project", "../data/arsenic.json")
	defer Cfg.Set("project", "")

	var buf bytes.Buffer
	reportCmd.SetOutput(&buf)
	if err := reportCmd.RunE(reportCmd, nil); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"AS5s", "wall", "-Ka*AS3*NH2CL", "RK5"} {
		if !strings.Contains(out, want) {
			t.Errorf("report should contain %q:\n%s", want, out)
		}
	}
}
