package app

import (
	"testing"
)

func TestParseCommand_DefaultsToRun(t *testing.T) {
	cmd := ParseCommand([]string{})
	if cmd != CommandRun {
		t.Errorf("ParseCommand([]) = %q, want %q", cmd, CommandRun)
	}
}

func TestParseCommand_Run(t *testing.T) {
	cmd := ParseCommand([]string{"run"})
	if cmd != CommandRun {
		t.Errorf("ParseCommand([run]) = %q, want %q", cmd, CommandRun)
	}
}

func TestParseCommand_Serve(t *testing.T) {
	cmd := ParseCommand([]string{"serve"})
	if cmd != CommandServe {
		t.Errorf("ParseCommand([serve]) = %q, want %q", cmd, CommandServe)
	}
}

func TestParseCommand_Healthcheck(t *testing.T) {
	cmd := ParseCommand([]string{"healthcheck"})
	if cmd != CommandHealthcheck {
		t.Errorf("ParseCommand([healthcheck]) = %q, want %q", cmd, CommandHealthcheck)
	}
}

func TestParseCommand_UnknownDefaultsToRun(t *testing.T) {
	cmd := ParseCommand([]string{"unknown"})
	if cmd != CommandRun {
		t.Errorf("ParseCommand([unknown]) = %q, want %q", cmd, CommandRun)
	}
}

func TestParseCommand_IgnoresExtraArgs(t *testing.T) {
	cmd := ParseCommand([]string{"serve", "--flag", "value"})
	if cmd != CommandServe {
		t.Errorf("ParseCommand([serve --flag value]) = %q, want %q", cmd, CommandServe)
	}
}
