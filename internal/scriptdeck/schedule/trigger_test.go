package schedule

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseOnceTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "iso with seconds",
			input: "2026-06-01T02:00:30",
			want:  time.Date(2026, 6, 1, 2, 0, 30, 0, time.Local),
		},
		{
			name:  "iso without seconds",
			input: "2026-06-01T02:00",
			want:  time.Date(2026, 6, 1, 2, 0, 0, 0, time.Local),
		},
		{
			name:  "european date",
			input: "01/06/2026 02:00",
			want:  time.Date(2026, 6, 1, 2, 0, 0, 0, time.Local),
		},
		{
			name:    "garbage",
			input:   "domani alle due",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "date only",
			input:   "2026-06-01",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOnceTime(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOnceTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseOnceTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTriggerValidate(t *testing.T) {
	tests := []struct {
		name    string
		trigger Trigger
		wantErr bool
	}{
		{
			name:    "valid once",
			trigger: Once{When: time.Date(2026, 6, 1, 2, 0, 0, 0, time.Local)},
		},
		{
			name:    "once without time",
			trigger: Once{},
			wantErr: true,
		},
		{
			name:    "valid daily",
			trigger: Daily{At: "02:00", EveryDays: 1},
		},
		{
			name:    "daily with zero interval",
			trigger: Daily{At: "02:00", EveryDays: 0},
			wantErr: true,
		},
		{
			name:    "daily with bad time",
			trigger: Daily{At: "25:00", EveryDays: 1},
			wantErr: true,
		},
		{
			name:    "daily with missing minutes",
			trigger: Daily{At: "02", EveryDays: 1},
			wantErr: true,
		},
		{
			name:    "valid weekly",
			trigger: Weekly{At: "03:00", Days: []string{"mon", "wed"}},
		},
		{
			name:    "weekly with no days",
			trigger: Weekly{At: "03:00"},
			wantErr: true,
		},
		{
			name:    "weekly with unknown day",
			trigger: Weekly{At: "03:00", Days: []string{"funday"}},
			wantErr: true,
		},
		{
			name:    "valid interval",
			trigger: Interval{Every: 30, Unit: "minutes"},
		},
		{
			name:    "interval with zero spacing",
			trigger: Interval{Every: 0, Unit: "minutes"},
			wantErr: true,
		},
		{
			name:    "interval with unknown unit",
			trigger: Interval{Every: 1, Unit: "fortnights"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trigger.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWeeklyNormalizedDays(t *testing.T) {
	trigger := Weekly{At: "03:00", Days: []string{"FRI", "mon", "fri", "Wed"}}
	got := trigger.NormalizedDays()
	want := []string{"mon", "wed", "fri"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NormalizedDays() mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg: Config{
				TaskName: "SYS_Toolset_backup",
				Enabled:  true,
				Triggers: []Trigger{Daily{At: "02:00", EveryDays: 1}},
			},
		},
		{
			name:    "empty task name",
			cfg:     Config{TaskName: "  ", Triggers: []Trigger{Daily{At: "02:00", EveryDays: 1}}},
			wantErr: "task name",
		},
		{
			name:    "no triggers",
			cfg:     Config{TaskName: "SYS_Toolset_backup"},
			wantErr: "at least one trigger",
		},
		{
			name: "invalid trigger reported with its position",
			cfg: Config{
				TaskName: "SYS_Toolset_backup",
				Triggers: []Trigger{Daily{At: "02:00", EveryDays: 1}, Weekly{At: "03:00"}},
			},
			wantErr: "trigger 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigJSONRoundTrip(t *testing.T) {
	original := Config{
		TaskName: "SYS_Toolset_nightly_backup",
		Enabled:  true,
		Triggers: []Trigger{
			Once{When: time.Date(2026, 9, 1, 12, 0, 0, 0, time.Local)},
			Daily{At: "02:00", EveryDays: 3},
			Weekly{At: "03:30", Days: []string{"mon", "fri"}},
			Interval{Every: 30, Unit: "minutes"},
		},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var restored Config
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if restored.TaskName != original.TaskName {
		t.Errorf("TaskName = %q, want %q", restored.TaskName, original.TaskName)
	}
	if !restored.Enabled {
		t.Error("Enabled lost in round trip")
	}
	if len(restored.Triggers) != len(original.Triggers) {
		t.Fatalf("got %d triggers, want %d", len(restored.Triggers), len(original.Triggers))
	}

	// Order must survive the round trip variant by variant.
	for i, trigger := range original.Triggers {
		if restored.Triggers[i].Kind() != trigger.Kind() {
			t.Errorf("trigger %d kind = %q, want %q", i, restored.Triggers[i].Kind(), trigger.Kind())
		}
	}

	once, ok := restored.Triggers[0].(Once)
	if !ok {
		t.Fatalf("trigger 0 is %T, want Once", restored.Triggers[0])
	}
	if !once.When.Equal(original.Triggers[0].(Once).When) {
		t.Errorf("once time = %v, want %v", once.When, original.Triggers[0].(Once).When)
	}
	if diff := cmp.Diff(original.Triggers[2], restored.Triggers[2]); diff != "" {
		t.Errorf("weekly trigger mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigUnmarshalUnknownTriggerType(t *testing.T) {
	doc := `{
		"task_name": "SYS_Toolset_backup",
		"enabled": true,
		"triggers": [
			{"type": "monthly", "data": {"day": 1}}
		]
	}`

	var cfg Config
	err := json.Unmarshal([]byte(doc), &cfg)
	if err == nil {
		t.Fatal("Unmarshal() accepted an unknown trigger type")
	}
	if !strings.Contains(err.Error(), "monthly") {
		t.Errorf("error %v does not name the unknown type", err)
	}
}

func TestConfigMarshalWireFormat(t *testing.T) {
	cfg := Config{
		TaskName: "SYS_Toolset_backup",
		Enabled:  true,
		Triggers: []Trigger{Daily{At: "02:00", EveryDays: 1}},
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	for _, want := range []string{`"task_name"`, `"enabled"`, `"type":"daily"`, `"every_n_days":1`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("wire document %s missing %s", data, want)
		}
	}
}
