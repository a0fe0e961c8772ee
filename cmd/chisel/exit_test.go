package main

import (
	"errors"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestExitErrHandler_NilError(t *testing.T) {
	// Should not panic or exit on nil error
	exitErrHandler(nil, nil)
}

func TestExitCodes_RecognizedAsExitCoder(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"all pass", cli.Exit("", 0), 0},
		{"failures remain", cli.Exit("", 1), 1},
		{"regression rejected", cli.Exit("2 sample(s) regressed", 2), 2},
		{"internal error", cli.Exit("grammar: file missing", 3), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var exitCoder cli.ExitCoder
			if !errors.As(tt.err, &exitCoder) {
				t.Fatalf("error should be cli.ExitCoder")
			}
			if exitCoder.ExitCode() != tt.wantCode {
				t.Errorf("exit code = %d, want %d", exitCoder.ExitCode(), tt.wantCode)
			}
		})
	}
}

func TestWrappedExitCoder(t *testing.T) {
	wrapped := errors.Join(cli.Exit("inner", 2))

	var exitCoder cli.ExitCoder
	if !errors.As(wrapped, &exitCoder) {
		t.Fatal("wrapped ExitCoder should be unwrapped by errors.As")
	}
	if exitCoder.ExitCode() != 2 {
		t.Errorf("exit code = %d, want 2", exitCoder.ExitCode())
	}
}
