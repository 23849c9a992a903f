package window

import (
	"encoding/json"
	"testing"
)

func TestValueIsInherit(t *testing.T) {
	tests := []struct {
		name    string
		value   Value
		inherit bool
	}{
		{"explicit sentinel", Inherit(), true},
		{"empty string", String(""), true},
		{"whitespace string", String("  "), true},
		{"inherit keyword", String("inherit"), true},
		{"minus one string", String("-1"), true},
		{"minus one number", Float(-1), true},
		{"zero is concrete", Float(0), false},
		{"false is concrete", Bool(false), false},
		{"true is concrete", Bool(true), false},
		{"plain number", Float(23.5), false},
		{"plain string", String("enable"), false},
		{"negative but not sentinel", Float(-2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.IsInherit(); got != tt.inherit {
				t.Errorf("IsInherit() = %v, want %v", got, tt.inherit)
			}
		})
	}
}

func TestValueAsFloat(t *testing.T) {
	if f, err := Float(21.5).AsFloat(); err != nil || f != 21.5 {
		t.Errorf("Float(21.5).AsFloat() = %v, %v", f, err)
	}
	if f, err := String("42").AsFloat(); err != nil || f != 42 {
		t.Errorf("String(42).AsFloat() = %v, %v", f, err)
	}
	if _, err := String("warm").AsFloat(); err == nil {
		t.Error("expected error for non-numeric string")
	}
	if _, err := Bool(true).AsFloat(); err == nil {
		t.Error("expected error for boolean")
	}
	if _, err := Inherit().AsFloat(); err == nil {
		t.Error("expected error for sentinel")
	}
}

func TestValueAsBool(t *testing.T) {
	truthy := []Value{Bool(true), String("true"), String("on"), String("enable"), String("1")}
	for _, v := range truthy {
		if b, err := v.AsBool(); err != nil || !b {
			t.Errorf("%+v.AsBool() = %v, %v, want true", v, b, err)
		}
	}
	falsy := []Value{Bool(false), String("false"), String("off"), String("disable"), String("0")}
	for _, v := range falsy {
		if b, err := v.AsBool(); err != nil || b {
			t.Errorf("%+v.AsBool() = %v, %v, want false", v, b, err)
		}
	}
	if _, err := String("maybe").AsBool(); err == nil {
		t.Error("expected error for ambiguous string")
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		json string
	}{
		{"number", Float(23.5), "23.5"},
		{"zero", Float(0), "0"},
		{"string", String("enable"), `"enable"`},
		{"bool", Bool(true), "true"},
		{"sentinel encodes as null", Inherit(), "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			if string(raw) != tt.json {
				t.Errorf("marshal = %s, want %s", raw, tt.json)
			}

			var out Value
			if err := json.Unmarshal(raw, &out); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if out != tt.in {
				t.Errorf("round trip changed value: %+v -> %+v", tt.in, out)
			}
		})
	}
}

func TestValueUnmarshalRejectsStructures(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`{"nested": true}`), &v); err == nil {
		t.Error("expected error for object value")
	}
	if err := json.Unmarshal([]byte(`[1, 2]`), &v); err == nil {
		t.Error("expected error for array value")
	}
}

func TestApplyFactors(t *testing.T) {
	cfg := EffectiveConfig{
		Thresholds:   Thresholds{Direct: 200, Diffuse: 150},
		Temperatures: Temperatures{IndoorBase: 23.0, OutdoorBase: 19.5},
	}

	t.Run("sensitivity lowers thresholds", func(t *testing.T) {
		out := cfg.ApplyFactors(GlobalFactors{Sensitivity: 2, KindFactor: 1})
		if out.Thresholds.Direct != 100 || out.Thresholds.Diffuse != 75 {
			t.Errorf("thresholds = %+v, want 100/75", out.Thresholds)
		}
	})

	t.Run("kind factor raises thresholds", func(t *testing.T) {
		out := cfg.ApplyFactors(GlobalFactors{Sensitivity: 1, KindFactor: 2})
		if out.Thresholds.Direct != 400 || out.Thresholds.Diffuse != 300 {
			t.Errorf("thresholds = %+v, want 400/300", out.Thresholds)
		}
	})

	t.Run("temperature offset shifts both bases", func(t *testing.T) {
		out := cfg.ApplyFactors(GlobalFactors{Sensitivity: 1, KindFactor: 1, TemperatureOffset: -1.5})
		if out.Temperatures.IndoorBase != 21.5 || out.Temperatures.OutdoorBase != 18.0 {
			t.Errorf("temperatures = %+v, want 21.5/18.0", out.Temperatures)
		}
	})

	t.Run("non-positive factors are neutral", func(t *testing.T) {
		out := cfg.ApplyFactors(GlobalFactors{Sensitivity: 0, KindFactor: -3})
		if out.Thresholds != cfg.Thresholds {
			t.Errorf("thresholds changed: %+v", out.Thresholds)
		}
	})

	t.Run("original is not mutated", func(t *testing.T) {
		_ = cfg.ApplyFactors(GlobalFactors{Sensitivity: 10, KindFactor: 10, TemperatureOffset: 99})
		if cfg.Thresholds.Direct != 200 || cfg.Temperatures.IndoorBase != 23.0 {
			t.Errorf("ApplyFactors mutated the receiver: %+v", cfg)
		}
	})
}

func TestIsKnownField(t *testing.T) {
	known := []string{
		FieldThresholdDirect,
		FieldScenarioCEnable,
		FieldIndoorSensor,
		FieldMinRadiation,
		FieldMinElevation,
		FieldMaintenanceMode,
	}
	for _, f := range known {
		if !IsKnownField(f) {
			t.Errorf("IsKnownField(%q) = false, want true", f)
		}
	}

	for _, f := range []string{"", "threshold", "min_rad", "indoor"} {
		if IsKnownField(f) {
			t.Errorf("IsKnownField(%q) = true, want false", f)
		}
	}
}
