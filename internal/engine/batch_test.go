package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/solarward/solarward-core/internal/shading"
	"github.com/solarward/solarward-core/internal/window"
)

// fakeProvider serves sensor state from maps and counts reads.
type fakeProvider struct {
	states     map[string]string
	attributes map[string]string
	reads      int
}

func (p *fakeProvider) Read(_ context.Context, id string, def string) string {
	p.reads++
	if v, ok := p.states[id]; ok {
		return v
	}
	return def
}

func (p *fakeProvider) ReadAttribute(_ context.Context, id string, attribute string, def string) string {
	p.reads++
	if v, ok := p.attributes[id+"#"+attribute]; ok {
		return v
	}
	return def
}

// sunnyProvider is a provider snapshot with strong overhead sun and warm
// temperatures on both sides of the glass.
func sunnyProvider() *fakeProvider {
	return &fakeProvider{
		states: map[string]string{
			"sensor.radiation":      "800",
			"sensor.outdoor":        "25.0",
			"sensor.forecast":       "26.0",
			"sensor.living_indoor":  "24.0",
			"sensor.bedroom_indoor": "24.0",
			"binary_sensor.warning": "off",
		},
		attributes: map[string]string{
			"sun.sun#azimuth":   "180",
			"sun.sun#elevation": "45",
		},
	}
}

// testGlobalLayer is a complete global baseline for a south-facing
// vertical window.
func testGlobalLayer() window.ConfigLayer {
	return window.ConfigLayer{
		window.FieldThresholdDirect:        window.Float(200),
		window.FieldThresholdDiffuse:       window.Float(150),
		window.FieldTempIndoorBase:         window.Float(23.0),
		window.FieldTempOutdoorBase:        window.Float(19.5),
		window.FieldGValue:                 window.Float(0.5),
		window.FieldFrameWidth:             window.Float(0.125),
		window.FieldDiffuseFactor:          window.Float(0.15),
		window.FieldTilt:                   window.Float(90),
		window.FieldWindowWidth:            window.Float(2.0),
		window.FieldWindowHeight:           window.Float(2.0),
		window.FieldAzimuth:                window.Float(180),
		window.FieldElevationMin:           window.Float(0),
		window.FieldElevationMax:           window.Float(90),
		window.FieldAzimuthMin:             window.Float(-90),
		window.FieldAzimuthMax:             window.Float(90),
		window.FieldShadowDepth:            window.Float(0),
		window.FieldShadowOffset:           window.Float(0),
		window.FieldScenarioBEnable:        window.Bool(false),
		window.FieldScenarioBIndoorOffset:  window.Float(0.5),
		window.FieldScenarioBOutdoorOffset: window.Float(6.0),
		window.FieldScenarioCEnable:        window.Bool(false),
		window.FieldScenarioCForecast:      window.Float(28.5),
		window.FieldScenarioCStartHour:     window.Float(9),
	}
}

func testOrchestrator(provider StateProvider) *Orchestrator {
	cache := NewStateCache(provider, time.Minute)
	sensors := Sensors{
		SolarRadiation: "sensor.radiation",
		OutdoorTemp:    "sensor.outdoor",
		ForecastTemp:   "sensor.forecast",
		WeatherWarning: "binary_sensor.warning",
	}
	o := NewOrchestrator(window.NewResolver(nil), shading.NewEvaluator(nil), cache, sensors, 4, nil)
	o.now = func() time.Time { return time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC) }
	return o
}

func TestRunNilGlobal(t *testing.T) {
	o := testOrchestrator(sunnyProvider())

	_, err := o.Run(context.Background(), nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil global layer")
	}
}

func TestRunEmptyFleet(t *testing.T) {
	provider := sunnyProvider()
	o := testOrchestrator(provider)

	result, err := o.Run(context.Background(), testGlobalLayer(), nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Summary.WindowCount != 0 {
		t.Errorf("expected 0 windows, got %d", result.Summary.WindowCount)
	}
	if provider.reads != 0 {
		t.Errorf("expected no sensor reads for empty fleet, got %d", provider.reads)
	}
	if result.Summary.CalculationTime.IsZero() {
		t.Error("expected calculation time to be set")
	}
}

func TestRunShadingVerdict(t *testing.T) {
	o := testOrchestrator(sunnyProvider())

	windows := []window.Window{
		{ID: "w1", Name: "Living South", IndoorSensor: "sensor.living_indoor", Overrides: window.ConfigLayer{}},
	}

	result, err := o.Run(context.Background(), testGlobalLayer(), nil, windows)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wr, ok := result.Windows["w1"]
	if !ok {
		t.Fatal("expected result for w1")
	}
	if wr.Err != "" {
		t.Fatalf("unexpected window error: %s", wr.Err)
	}
	if !wr.Result.ShadeRequired {
		t.Errorf("expected shading required, got reason %q", wr.Result.ShadeReason)
	}
	if !strings.Contains(wr.Result.ShadeReason, "strong sun") {
		t.Errorf("expected strong sun reason, got %q", wr.Result.ShadeReason)
	}
	if result.Summary.ShadingCount != 1 {
		t.Errorf("expected shading count 1, got %d", result.Summary.ShadingCount)
	}
	if wr.Result.PowerTotal <= 0 {
		t.Errorf("expected positive power, got %f", wr.Result.PowerTotal)
	}
}

func TestRunMissingIndoorSensor(t *testing.T) {
	o := testOrchestrator(sunnyProvider())

	windows := []window.Window{
		{ID: "w1", Name: "Hallway", Overrides: window.ConfigLayer{}},
	}

	result, err := o.Run(context.Background(), testGlobalLayer(), nil, windows)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wr := result.Windows["w1"]
	if wr.Result.ShadeRequired {
		t.Error("expected no shading without an indoor sensor")
	}
	if wr.Result.ShadeReason != shading.ReasonNoIndoorTemp {
		t.Errorf("expected reason %q, got %q", shading.ReasonNoIndoorTemp, wr.Result.ShadeReason)
	}
}

func TestRunIndoorSensorInheritance(t *testing.T) {
	groupID := "g1"

	tests := []struct {
		name   string
		global window.ConfigLayer
		groups []window.Group
		win    window.Window
	}{
		{
			name:   "window overrides",
			global: testGlobalLayer(),
			win: window.Window{ID: "w1", Name: "Living South", Overrides: window.ConfigLayer{
				window.FieldIndoorSensor: window.String("sensor.living_indoor"),
			}},
		},
		{
			name:   "group layer",
			global: testGlobalLayer(),
			groups: []window.Group{
				{ID: groupID, Name: "South Side", Overrides: window.ConfigLayer{
					window.FieldIndoorSensor: window.String("sensor.living_indoor"),
				}},
			},
			win: window.Window{ID: "w1", Name: "Living South", GroupID: &groupID, Overrides: window.ConfigLayer{}},
		},
		{
			name: "global layer",
			global: func() window.ConfigLayer {
				l := testGlobalLayer()
				l[window.FieldIndoorSensor] = window.String("sensor.living_indoor")
				return l
			}(),
			win: window.Window{ID: "w1", Name: "Living South", Overrides: window.ConfigLayer{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOrchestrator(sunnyProvider())

			result, err := o.Run(context.Background(), tt.global, tt.groups, []window.Window{tt.win})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			wr := result.Windows["w1"]
			if wr.Result.ShadeReason == shading.ReasonNoIndoorTemp {
				t.Fatal("indoor sensor should resolve through the layer chain")
			}
			if !wr.Result.ShadeRequired {
				t.Errorf("expected shading with inherited indoor sensor, got reason %q", wr.Result.ShadeReason)
			}
		})
	}
}

func TestRunWindowSensorBeatsInheritedSensor(t *testing.T) {
	provider := sunnyProvider()
	provider.states["sensor.cold_room"] = "15.0"
	o := testOrchestrator(provider)

	global := testGlobalLayer()
	global[window.FieldIndoorSensor] = window.String("sensor.living_indoor")

	windows := []window.Window{
		{ID: "w1", Name: "Cellar", IndoorSensor: "sensor.cold_room", Overrides: window.ConfigLayer{}},
	}

	result, err := o.Run(context.Background(), global, nil, windows)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// The cold room stays below the indoor base, so the window's own
	// sensor must win over the warm inherited one.
	if result.Windows["w1"].Result.ShadeRequired {
		t.Error("expected no shading when the window's own sensor reads cold")
	}
}

func TestRunMinimumInputGates(t *testing.T) {
	o := testOrchestrator(sunnyProvider())

	global := testGlobalLayer()
	global[window.FieldMinRadiation] = window.Float(850)

	windows := []window.Window{
		{ID: "w1", Name: "Living South", IndoorSensor: "sensor.living_indoor", Overrides: window.ConfigLayer{}},
	}

	result, err := o.Run(context.Background(), global, nil, windows)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wr := result.Windows["w1"]
	if wr.Result.PowerTotal != 0 {
		t.Errorf("radiation below the fleet gate: power = %v, want 0", wr.Result.PowerTotal)
	}
	if wr.Result.ShadeRequired {
		t.Error("expected no shading below the radiation gate")
	}
}

func TestRunHourUsesConfiguredLocation(t *testing.T) {
	// Scenario C only: forecast above threshold, scenario A out of reach.
	global := testGlobalLayer()
	global[window.FieldThresholdDirect] = window.Float(50000)
	global[window.FieldScenarioCEnable] = window.Bool(true)
	global[window.FieldScenarioCForecast] = window.Float(25)

	windows := []window.Window{
		{ID: "w1", Name: "Living South", IndoorSensor: "sensor.living_indoor", Overrides: window.ConfigLayer{}},
	}

	run := func(loc *time.Location) WindowResult {
		o := testOrchestrator(sunnyProvider())
		o.SetLocation(loc)

		result, err := o.Run(context.Background(), global, nil, windows)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return result.Windows["w1"]
	}

	// 12:00 UTC is past the 09:00 start hour.
	if wr := run(time.UTC); !wr.Result.ShadeRequired {
		t.Errorf("expected heatwave shading at UTC noon, got reason %q", wr.Result.ShadeReason)
	}

	// Six hours west it is only 06:00 local, before the start hour.
	west := time.FixedZone("UTC-6", -6*60*60)
	if wr := run(west); wr.Result.ShadeRequired {
		t.Errorf("expected no shading before the local start hour, got reason %q", wr.Result.ShadeReason)
	}
}

func TestRunIsolatesWindowFailures(t *testing.T) {
	o := testOrchestrator(sunnyProvider())

	windows := []window.Window{
		{ID: "good", Name: "Living South", IndoorSensor: "sensor.living_indoor", Overrides: window.ConfigLayer{}},
		{ID: "bad", Name: "Broken", IndoorSensor: "sensor.living_indoor", Overrides: window.ConfigLayer{
			window.FieldThresholdDirect: window.String("not-a-number"),
		}},
	}

	result, err := o.Run(context.Background(), testGlobalLayer(), nil, windows)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Summary.WindowCount != 2 {
		t.Fatalf("expected 2 window results, got %d", result.Summary.WindowCount)
	}
	if result.Summary.ErrorCount != 1 {
		t.Errorf("expected 1 error, got %d", result.Summary.ErrorCount)
	}

	bad := result.Windows["bad"]
	if bad.Err == "" {
		t.Error("expected error recorded for bad window")
	}
	if !strings.HasPrefix(bad.Result.ShadeReason, "calculation error:") {
		t.Errorf("expected calculation error reason, got %q", bad.Result.ShadeReason)
	}

	good := result.Windows["good"]
	if good.Err != "" {
		t.Errorf("good window should not fail: %s", good.Err)
	}
	if !good.Result.ShadeRequired {
		t.Error("good window should still get a verdict")
	}
}

func TestRunAggregatesGroups(t *testing.T) {
	o := testOrchestrator(sunnyProvider())

	groupID := "g1"
	groups := []window.Group{
		{ID: groupID, Name: "South Side", Overrides: window.ConfigLayer{}},
	}
	windows := []window.Window{
		{ID: "w1", Name: "Living South", GroupID: &groupID, IndoorSensor: "sensor.living_indoor", Overrides: window.ConfigLayer{}},
		{ID: "w2", Name: "Bedroom South", GroupID: &groupID, IndoorSensor: "sensor.bedroom_indoor", Overrides: window.ConfigLayer{}},
		{ID: "w3", Name: "Hallway", IndoorSensor: "sensor.living_indoor", Overrides: window.ConfigLayer{}},
	}

	result, err := o.Run(context.Background(), testGlobalLayer(), groups, windows)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	agg, ok := result.Groups[groupID]
	if !ok {
		t.Fatal("expected aggregate for group g1")
	}
	if agg.WindowCount != 2 {
		t.Errorf("expected 2 windows in group, got %d", agg.WindowCount)
	}
	if agg.Name != "South Side" {
		t.Errorf("expected group name carried into aggregate, got %q", agg.Name)
	}

	expected := result.Windows["w1"].Result.PowerTotal + result.Windows["w2"].Result.PowerTotal
	if diff := agg.PowerTotal - expected; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("group power %f does not match member sum %f", agg.PowerTotal, expected)
	}

	fleetExpected := expected + result.Windows["w3"].Result.PowerTotal
	if diff := result.Summary.TotalPower - fleetExpected; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("fleet power %f does not match window sum %f", result.Summary.TotalPower, fleetExpected)
	}
}

func TestRunChildrenGroupRaisesThresholds(t *testing.T) {
	provider := sunnyProvider()
	o := testOrchestrator(provider)

	global := testGlobalLayer()
	global[window.FieldChildrenFactor] = window.Float(2.0)

	groupID := "kids"
	groups := []window.Group{
		{ID: groupID, Name: "Kids Rooms", Kind: window.GroupKindChildren, Overrides: window.ConfigLayer{}},
	}
	windows := []window.Window{
		{ID: "w1", Name: "Kids South", GroupID: &groupID, IndoorSensor: "sensor.living_indoor", Overrides: window.ConfigLayer{}},
		{ID: "w2", Name: "Living South", IndoorSensor: "sensor.living_indoor", Overrides: window.ConfigLayer{}},
	}

	result, err := o.Run(context.Background(), global, groups, windows)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	kids := result.Windows["w1"].Result
	living := result.Windows["w2"].Result
	if kids.EffectiveThreshold != 2*living.EffectiveThreshold {
		t.Errorf("expected doubled threshold for children group, got %f vs %f",
			kids.EffectiveThreshold, living.EffectiveThreshold)
	}
}

func TestRunMaintenanceMode(t *testing.T) {
	o := testOrchestrator(sunnyProvider())

	global := testGlobalLayer()
	global[window.FieldMaintenanceMode] = window.Bool(true)

	windows := []window.Window{
		{ID: "w1", Name: "Living South", IndoorSensor: "sensor.living_indoor", Overrides: window.ConfigLayer{}},
	}

	result, err := o.Run(context.Background(), global, nil, windows)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wr := result.Windows["w1"]
	if wr.Result.ShadeRequired {
		t.Error("expected no shading in maintenance mode")
	}
	if wr.Result.ShadeReason != shading.ReasonMaintenance {
		t.Errorf("expected reason %q, got %q", shading.ReasonMaintenance, wr.Result.ShadeReason)
	}
}

func TestRunWeatherWarning(t *testing.T) {
	provider := sunnyProvider()
	provider.states["binary_sensor.warning"] = "on"
	o := testOrchestrator(provider)

	windows := []window.Window{
		{ID: "w1", Name: "Hallway", Overrides: window.ConfigLayer{}},
	}

	result, err := o.Run(context.Background(), testGlobalLayer(), nil, windows)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wr := result.Windows["w1"]
	if !wr.Result.ShadeRequired {
		t.Error("weather warning should force shading even without indoor sensor")
	}
	if wr.Result.ShadeReason != shading.ReasonWeatherWarning {
		t.Errorf("expected reason %q, got %q", shading.ReasonWeatherWarning, wr.Result.ShadeReason)
	}
}

func TestRunUnknownGroupReference(t *testing.T) {
	o := testOrchestrator(sunnyProvider())

	missing := "no-such-group"
	windows := []window.Window{
		{ID: "w1", Name: "Orphan", GroupID: &missing, IndoorSensor: "sensor.living_indoor", Overrides: window.ConfigLayer{}},
	}

	result, err := o.Run(context.Background(), testGlobalLayer(), nil, windows)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wr := result.Windows["w1"]
	if wr.Err != "" {
		t.Errorf("unknown group should fall back to global layer, got error %s", wr.Err)
	}
	if len(result.Groups) != 0 {
		t.Errorf("expected no group aggregates, got %d", len(result.Groups))
	}
}

func TestResultStore(t *testing.T) {
	store := NewResultStore()
	if store.Latest() != nil {
		t.Error("expected nil before first run")
	}

	result := &BatchResult{Summary: Summary{WindowCount: 3}}
	store.Set(result)
	if got := store.Latest(); got != result {
		t.Error("expected stored result back")
	}
}
