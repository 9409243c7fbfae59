package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := New()
	cfg.Program = "/bin/sleep"
	cfg.Args = []string{"60"}
	cfg.PathFragment = "corral-test"
	cfg.Controllers = []ControllerSpec{{Name: "memory"}}
	return cfg
}

func errorsContain(errs []error, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e.Error(), substr) {
			return true
		}
	}
	return false
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	if errs := Validate(validConfig()); len(errs) != 0 {
		t.Fatalf("Validate() = %v, want no errors", errs)
	}
}

func TestValidateRequiresProgram(t *testing.T) {
	cfg := validConfig()
	cfg.Program = ""
	if errs := Validate(cfg); !errorsContain(errs, "program") {
		t.Fatalf("Validate() = %v, want program error", errs)
	}
}

func TestValidateControllersRequirePath(t *testing.T) {
	cfg := validConfig()
	cfg.PathFragment = ""
	if errs := Validate(cfg); !errorsContain(errs, "cgroup path") {
		t.Fatalf("Validate() = %v, want path error", errs)
	}
}

func TestValidatePathRequiresControllers(t *testing.T) {
	cfg := validConfig()
	cfg.Controllers = nil
	if errs := Validate(cfg); !errorsContain(errs, "cgroup controller") {
		t.Fatalf("Validate() = %v, want controller error", errs)
	}
}

func TestValidateNoCgroupsAtAllIsFine(t *testing.T) {
	cfg := validConfig()
	cfg.Controllers = nil
	cfg.PathFragment = ""
	if errs := Validate(cfg); len(errs) != 0 {
		t.Fatalf("Validate() = %v, want no errors", errs)
	}
}

func TestValidateRejectsRootIdentity(t *testing.T) {
	cfg := validConfig()
	cfg.UID = 0
	cfg.GID = 0
	errs := Validate(cfg)
	if !errorsContain(errs, "uid 0") {
		t.Errorf("Validate() = %v, want uid 0 rejection", errs)
	}
	if !errorsContain(errs, "gid 0") {
		t.Errorf("Validate() = %v, want gid 0 rejection", errs)
	}
}

func TestValidateBoundsSigkillDelay(t *testing.T) {
	cfg := validConfig()
	cfg.SigkillDelay = 2 * time.Second
	if errs := Validate(cfg); !errorsContain(errs, "SIGKILL") {
		t.Fatalf("Validate() = %v, want delay bound error", errs)
	}

	cfg.SigkillDelay = MaxSigkillDelay
	if errs := Validate(cfg); len(errs) != 0 {
		t.Fatalf("Validate() = %v, want exactly 1s accepted", errs)
	}
}

func TestValidateRejectsDuplicateController(t *testing.T) {
	cfg := validConfig()
	cfg.Controllers = append(cfg.Controllers, ControllerSpec{Name: "memory"})
	if errs := Validate(cfg); !errorsContain(errs, "declared twice") {
		t.Fatalf("Validate() = %v, want duplicate controller error", errs)
	}
}

func TestValidateMetricsCredentialsNeedListener(t *testing.T) {
	cfg := validConfig()
	cfg.Metrics.Username = "ops"
	if errs := Validate(cfg); !errorsContain(errs, "metrics.listen") {
		t.Fatalf("Validate() = %v, want metrics listener error", errs)
	}
}

func TestDirectiveOrdering(t *testing.T) {
	var d DirectiveList
	if err := d.AddController("memory"); err != nil {
		t.Fatal(err)
	}
	if err := d.AddSetting("memory.max=1024"); err != nil {
		t.Fatal(err)
	}
	if err := d.AddController("cpu"); err != nil {
		t.Fatal(err)
	}
	if err := d.AddSetting("cpu.weight=50"); err != nil {
		t.Fatal(err)
	}
	if err := d.AddSetting("cpu.max=max"); err != nil {
		t.Fatal(err)
	}

	specs := d.Specs()
	if len(specs) != 2 {
		t.Fatalf("len(specs) = %d, want 2", len(specs))
	}
	if specs[0].Name != "memory" || len(specs[0].Settings) != 1 {
		t.Errorf("specs[0] = %+v, want memory with 1 setting", specs[0])
	}
	if specs[1].Name != "cpu" || len(specs[1].Settings) != 2 {
		t.Errorf("specs[1] = %+v, want cpu with 2 settings", specs[1])
	}
	if got := specs[1].Settings[0]; got.Key != "cpu.weight" || got.Value != "50" {
		t.Errorf("first cpu setting = %+v, want cpu.weight=50", got)
	}
}

func TestDirectiveSettingBeforeController(t *testing.T) {
	var d DirectiveList
	err := d.AddSetting("memory.max=1024")
	if err == nil {
		t.Fatal("expected error for setting before controller")
	}
}

func TestDirectiveSettingWithoutEquals(t *testing.T) {
	var d DirectiveList
	if err := d.AddController("memory"); err != nil {
		t.Fatal(err)
	}
	if err := d.AddSetting("memory.max"); err == nil {
		t.Fatal("expected error for setting without '='")
	}
}

func TestDirectiveValuesMayContainEquals(t *testing.T) {
	var d DirectiveList
	if err := d.AddController("memory"); err != nil {
		t.Fatal(err)
	}
	if err := d.AddSetting("memory.max=1=2"); err != nil {
		t.Fatal(err)
	}
	s := d.Specs()[0].Settings[0]
	if s.Key != "memory.max" || s.Value != "1=2" {
		t.Errorf("setting = %+v, want key memory.max value 1=2", s)
	}
}

func TestResolveUIDNumeric(t *testing.T) {
	uid, err := ResolveUID("1000")
	if err != nil {
		t.Fatal(err)
	}
	if uid != 1000 {
		t.Fatalf("uid = %d, want 1000", uid)
	}
}

func TestResolveUIDRejectsZero(t *testing.T) {
	if _, err := ResolveUID("0"); err == nil {
		t.Fatal("expected error for uid 0")
	}
}

func TestResolveUIDRejectsRootByName(t *testing.T) {
	// The root user resolves to uid 0 on any sane system; the rejection
	// must apply to the resolved value, not just the literal "0".
	if _, err := ResolveUID("root"); err == nil {
		t.Fatal("expected error for user root")
	}
}

func TestResolveUIDUnknownUser(t *testing.T) {
	if _, err := ResolveUID("no-such-user-corral"); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestResolveGIDNumeric(t *testing.T) {
	gid, err := ResolveGID("1000")
	if err != nil {
		t.Fatal(err)
	}
	if gid != 1000 {
		t.Fatalf("gid = %d, want 1000", gid)
	}
}

func TestResolveGIDRejectsZero(t *testing.T) {
	if _, err := ResolveGID("0"); err == nil {
		t.Fatal("expected error for gid 0")
	}
}
