// Package shading holds the scenario evaluator: the decision engine that
// turns a window's resolved configuration, its power calculation and the
// current state snapshot into a shading verdict with an explainable
// reason.
//
// Three graduated scenarios exist: A (strong direct sun, always active),
// B (diffuse heat, optionally enabled) and C (heatwave forecast,
// optionally enabled). Two overrides take precedence over all of them:
// maintenance mode forces shading off, a weather warning forces it on.
// Scenario enablement for B and C is resolved through the same
// window → group → global inheritance as scalar configuration, but over
// the tri-state enable/disable/inherit domain; that resolution happens in
// the window package before the evaluator runs.
package shading
