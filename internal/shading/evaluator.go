package shading

import (
	"fmt"

	"github.com/solarward/solarward-core/internal/solar"
	"github.com/solarward/solarward-core/internal/window"
)

// Verdict reasons for the non-scenario outcomes.
const (
	ReasonMaintenance    = "maintenance mode active"
	ReasonWeatherWarning = "weather warning active"
	ReasonNoIndoorTemp   = "no indoor temperature sensor"
	ReasonNoCondition    = "no condition met"
)

// Logger is the minimal logging interface the evaluator needs.
type Logger interface {
	Debug(msg string, args ...any)
}

// noopLogger satisfies Logger when no logger is configured.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Evaluator decides whether a window needs shading.
//
// It is stateless; the decision is a pure function of the resolved
// configuration, the power calculation result and the state snapshot.
type Evaluator struct {
	logger Logger
}

// NewEvaluator creates an evaluator. A nil logger disables debug output.
func NewEvaluator(logger Logger) *Evaluator {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Evaluator{logger: logger}
}

// Decide produces the shading verdict for one window.
//
// Rules are checked in strict precedence order, short-circuiting on the
// first match:
//
//  1. maintenance mode: shading disabled unconditionally
//  2. weather warning: shading forced on, regardless of scenarios
//  3. Scenario A (always active): strong direct sun over the direct
//     threshold with both temperatures at or above their bases
//  4. Scenario B (if enabled): diffuse heat over the diffuse threshold
//     with both temperatures above their offset bases
//  5. Scenario C (if enabled): heatwave forecast past the start hour
//  6. nothing matched: shading off
//
// Temperature-gated rules need an indoor reading; without one the verdict
// degrades to "off" with an explanatory reason rather than failing.
//
// Returns:
//   - bool: true when shading is warranted
//   - string: human-readable reason for the verdict
func (e *Evaluator) Decide(cfg window.EffectiveConfig, result solar.CalculationResult, state solar.State) (bool, string) {
	if state.MaintenanceMode {
		return false, ReasonMaintenance
	}
	if state.WeatherWarning {
		return true, ReasonWeatherWarning
	}

	if !state.HasIndoorTemp {
		return false, ReasonNoIndoorTemp
	}

	// Scenario A: strong direct sun. Always evaluated, no enable flag.
	if result.PowerTotal > cfg.Thresholds.Direct &&
		state.IndoorTemp >= cfg.Temperatures.IndoorBase &&
		state.OutdoorTemp >= cfg.Temperatures.OutdoorBase {
		e.logger.Debug("scenario A triggered",
			"power_total", result.PowerTotal,
			"threshold_direct", cfg.Thresholds.Direct,
		)
		return true, fmt.Sprintf("strong sun (%.0fW > %.0fW)", result.PowerTotal, cfg.Thresholds.Direct)
	}

	if cfg.ScenarioB.Enabled {
		if ok, reason := e.checkScenarioB(cfg, result, state); ok {
			return true, reason
		}
	}

	if cfg.ScenarioC.Enabled {
		if ok, reason := e.checkScenarioC(cfg, state); ok {
			return true, reason
		}
	}

	return false, ReasonNoCondition
}

// checkScenarioB evaluates the diffuse-heat scenario: sustained power over
// the diffuse threshold while both temperatures exceed their bases by the
// configured offsets.
func (e *Evaluator) checkScenarioB(cfg window.EffectiveConfig, result solar.CalculationResult, state solar.State) (bool, string) {
	indoorLimit := cfg.Temperatures.IndoorBase + cfg.ScenarioB.TempIndoorOffset
	outdoorLimit := cfg.Temperatures.OutdoorBase + cfg.ScenarioB.TempOutdoorOffset

	if result.PowerTotal > cfg.Thresholds.Diffuse &&
		state.IndoorTemp > indoorLimit &&
		state.OutdoorTemp > outdoorLimit {
		e.logger.Debug("scenario B triggered",
			"power_total", result.PowerTotal,
			"threshold_diffuse", cfg.Thresholds.Diffuse,
		)
		return true, fmt.Sprintf("diffuse heat (%.0fW, indoor %.1f°C)", result.PowerTotal, state.IndoorTemp)
	}
	return false, ""
}

// checkScenarioC evaluates the heatwave-forecast scenario. A zero or
// absent forecast disables the rule rather than comparing garbage.
func (e *Evaluator) checkScenarioC(cfg window.EffectiveConfig, state solar.State) (bool, string) {
	if state.ForecastTemp <= 0 {
		return false, ""
	}

	if state.ForecastTemp > cfg.ScenarioC.TempForecastThreshold &&
		state.IndoorTemp >= cfg.Temperatures.IndoorBase &&
		state.Hour >= cfg.ScenarioC.StartHour {
		e.logger.Debug("scenario C triggered",
			"forecast_temp", state.ForecastTemp,
			"threshold", cfg.ScenarioC.TempForecastThreshold,
		)
		return true, fmt.Sprintf("heatwave forecast (%.1f°C expected)", state.ForecastTemp)
	}
	return false, ""
}
