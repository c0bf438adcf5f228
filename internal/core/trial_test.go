package core

import (
	"errors"
	"testing"
)

func TestTrialKey_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     TrialKey
		wantErr bool
	}{
		{"valid", TrialKey{"e1000", "network_file_transfer"}, false},
		{"empty driver", TrialKey{"", "app"}, true},
		{"empty application", TrialKey{"snd", ""}, true},
		{"space in driver", TrialKey{"s nd", "app"}, true},
		{"tab in application", TrialKey{"snd", "mp3\tplayer"}, true},
		{"pipe in driver", TrialKey{"net|x", "ping"}, true},
		{"pipe in application", TrialKey{"snd", "mp3|player"}, true},
		{"slash in driver", TrialKey{"pci/e1000", "ping"}, true},
		{"slash in application", TrialKey{"e1000", "nfs/read"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidKey) {
				t.Errorf("expected ErrInvalidKey, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTrialKey_CaseSensitive(t *testing.T) {
	if (TrialKey{"SND", "mp3_player"}) == (TrialKey{"snd", "mp3_player"}) {
		t.Error("expected keys differing in case to be distinct")
	}
}

func TestTrialRecord_Totals(t *testing.T) {
	r := TrialRecord{Key: TrialKey{"snd", "mp3_player"}, Automatic: 79, Manual: 16, Failed: 5}

	if r.Total() != 100 {
		t.Errorf("expected total 100, got %d", r.Total())
	}
	if r.Count(ManualRecovery) != 16 {
		t.Errorf("expected 16 manual, got %d", r.Count(ManualRecovery))
	}
	if r.Percent(AutomaticRecovery) != 79 {
		t.Errorf("expected 79%%, got %d", r.Percent(AutomaticRecovery))
	}
}

func TestTrialRecord_PercentRounding(t *testing.T) {
	r := TrialRecord{Automatic: 1, Manual: 1, Failed: 1}
	if got := r.Percent(AutomaticRecovery); got != 33 {
		t.Errorf("expected 33%%, got %d", got)
	}

	r = TrialRecord{Automatic: 1, Manual: 7}
	if got := r.Percent(AutomaticRecovery); got != 13 {
		t.Errorf("expected 12.5%% to round to 13, got %d", got)
	}

	if got := (TrialRecord{}).Percent(FailedRecovery); got != 0 {
		t.Errorf("expected 0%% for an empty record, got %d", got)
	}
}
