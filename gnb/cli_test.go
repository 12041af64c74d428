package gnb

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
		{"status", []string{"STATUS"}, CliStatus{}, false},
		{"info", []string{"INFO"}, CliInfo{}, false},
		{"amf list", []string{"AMF_LIST"}, CliAmfList{}, false},
		{"amf info", []string{"AMF_INFO", "1"}, CliAmfInfo{AmfID: 1}, false},
		{"amf info bad arg", []string{"AMF_INFO", "x"}, nil, true},
		{"ue list", []string{"UE_LIST"}, CliUeList{}, false},
		{"ue count", []string{"UE_COUNT"}, CliUeCount{}, false},
		{"handover prepare", []string{"HANDOVERPREPARE", "3"}, CliHandoverPrepare{UeID: 3}, false},
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

func TestParseCliCommandHandover(t *testing.T) {
	cmd, _, err := ParseCliCommand([]string{"HANDOVER", "2", "10", "20", "0", "1", "amf2"})
	assert.Equal(t, err, nil)
	assert.Equal(t, cmd, CliHandover{
		AsAmfID:      2,
		AmfUeNgapID:  10,
		RanUeNgapID:  20,
		CtxtID:       0,
		UplinkStream: 1,
		AmfName:      "amf2",
	})
}

func TestUeTableLifecycle(t *testing.T) {
	table := NewUeTable()
	ctx := &UeContext{RanUeNgapID: 42}
	ueID := table.New(ctx)

	got, ok := table.Get(ueID)
	assert.Equal(t, ok, true)
	assert.Equal(t, got.RanUeNgapID, int64(42))

	byRan, ok := table.GetByRanUeID(42)
	assert.Equal(t, ok, true)
	assert.Equal(t, byRan.UeID, ueID)

	table.Remove(ueID)
	_, ok = table.Get(ueID)
	assert.Equal(t, ok, false)
}
