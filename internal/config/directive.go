package config

import (
	"fmt"
	"strings"
)

// DirectiveList accumulates --controller and --set directives in the order
// they appear on the command line. A setting always belongs to the most
// recently declared controller, so interleaving order matters and cannot be
// recovered from two independent flag slices.
type DirectiveList struct {
	specs []ControllerSpec
}

// AddController declares a new controller. Subsequent settings attach to it.
func (d *DirectiveList) AddController(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("controller name cannot be empty")
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("controller name %q cannot contain '/'", name)
	}
	d.specs = append(d.specs, ControllerSpec{Name: name})
	return nil
}

// AddSetting parses a key=value directive and attaches it to the most
// recently declared controller.
func (d *DirectiveList) AddSetting(kv string) error {
	if len(d.specs) == 0 {
		return fmt.Errorf("declare a controller before setting %q", kv)
	}
	key, value, ok := strings.Cut(kv, "=")
	if !ok {
		return fmt.Errorf("no '=' found in setting %q", kv)
	}
	if key == "" {
		return fmt.Errorf("empty key in setting %q", kv)
	}
	last := &d.specs[len(d.specs)-1]
	last.Settings = append(last.Settings, Setting{Key: key, Value: value})
	return nil
}

// Specs returns the accumulated controllers in declaration order.
func (d *DirectiveList) Specs() []ControllerSpec {
	return d.specs
}
