package dispatch

import "github.com/kfranzke/leitstelle/core/model"

const (
	slotsPerRing  = 8
	ringBaseKm    = 0.03
	ringSpacingKm = 0.02
)

// parkingPosition returns a de-conflicted spot near the incident for the
// n-th arriving vehicle. Slots are laid out in rings of eight, 45 degrees
// apart, with additional rings at larger radii once a ring fills up.
func parkingPosition(scene model.Position, index int) model.Position {
	if index < 0 {
		index = 0
	}
	ring := index / slotsPerRing
	slot := index % slotsPerRing
	radius := ringBaseKm + float64(ring)*ringSpacingKm
	bearing := float64(slot) * 45
	return scene.Offset(radius, bearing)
}
