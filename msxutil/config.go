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
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/watermodel/msx"
)

// checkProjectFile makes sure that the project file is specified and
// exists, expanding any environment variables.
func checkProjectFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify a project file configuration variable (for example: --project project.json)`)
	}
	f = os.ExpandEnv(f)
	if _, err := os.Stat(f); err != nil {
		return f, fmt.Errorf("msx: the project file doesn't exist: %v", err)
	}
	return f, nil
}

// parseTarget converts a reactor class name to a TargetType.
func parseTarget(s string) (msx.TargetType, error) {
	switch strings.ToLower(s) {
	case "pipe":
		return msx.Pipe, nil
	case "tank":
		return msx.Tank, nil
	default:
		return "", fmt.Errorf("msx: target must be pipe or tank, but is %q", s)
	}
}

// parseState converts name=value pairs into an evaluation state.
func parseState(pairs []string) (map[string]float64, error) {
	state := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("msx: state entries must have the form name=value, but got %q", pair)
		}
		v, err := cast.ToFloat64E(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, fmt.Errorf("msx: state entry %q: %v", pair, err)
		}
		state[strings.TrimSpace(kv[0])] = v
	}
	return state, nil
}

// setupLog configures the logging threshold.
func setupLog(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("msx: invalid log level %q", level)
	}
	logrus.SetLevel(l)
	return nil
}
