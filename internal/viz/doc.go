// Package viz provides the terminal front end of the lab.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live view of one lab system (carousel, Lorentz or probe)
//   - [NewInteractiveApp]: model and preset picker that opens a [Model]
//   - [Canvas]: Braille-based pixel canvas for high-fidelity rendering
//   - [Camera] and [Wireframe]: perspective projection of the carousel
//
// # Key Bindings
//
//	Esc    - Quit
//	P      - Pause/Resume simulation
//	R      - Reset to initial state
//	T      - Cycle color themes
//	?      - Show help overlay
//
// Space starts and stops the carousel rotation and pauses the particle labs.
// Each model lists its own controls in the help overlay.
package viz
