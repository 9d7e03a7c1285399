// Package viz renders courses and ball playback in the terminal.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Menu]: preset picker that launches a playback
//   - [Model]: live playback of a [playback.Driver] over the course
//   - [Canvas]: Braille-based pixel canvas with colored layers
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	R     - Replay from the start position
//	+/-   - Play faster or slower
//	T     - Cycle color themes
//	?     - Show help overlay
//
// Heights are drawn as contour lines; sand, water and walls get their own
// layers so the theme can color them.
package viz
