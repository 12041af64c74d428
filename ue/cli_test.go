package ue

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestParseCliCommand(t *testing.T) {
	tests := []struct {
		name    string
		tokens  []string
		want    any
		wantErr bool
	}{
		{"info", []string{"INFO"}, CliUeInfo{}, false},
		{"status", []string{"STATUS"}, CliUeStatus{}, false},
		{"timers", []string{"TIMERS"}, CliUeTimers{}, false},
		{"deregister", []string{"DE_REGISTER", "true", "false"}, CliUeDeRegister{IsSwitchOff: true, DueToDisable5g: false}, false},
		{"deregister bad arity", []string{"DE_REGISTER", "true"}, nil, true},
		{"deregister bad bool", []string{"DE_REGISTER", "yes", "false"}, nil, true},
		{"unknown", []string{"BOGUS"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _, err := ParseCliCommand(tt.tokens)
			if tt.wantErr {
				assert.NotEqual(t, err, nil)
				return
			}
			assert.Equal(t, err, nil)
			assert.Equal(t, cmd, tt.want)
		})
	}
}

func TestParseCliCommandEmptyReturnsHelp(t *testing.T) {
	cmd, help, err := ParseCliCommand(nil)
	assert.Equal(t, cmd, nil)
	assert.Equal(t, err, nil)
	assert.NotEqual(t, help, "")
}
