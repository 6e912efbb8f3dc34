package main

import (
	"fmt"

	"dev.acmcsuf.com/ledfx"
	"dev.acmcsuf.com/ledfx/internal/config"
)

// cycleStep is the color step of the circle's smooth color source.
const cycleStep = 15

func colorSource(name string) (ledfx.ColorSource, error) {
	switch name {
	case "cycle":
		return ledfx.SmoothCycle(cycleStep), nil
	case "mch":
		return ledfx.MCHPalette(), nil
	case "rgb":
		return ledfx.PrimaryPalette(), nil
	default:
		return nil, fmt.Errorf("unknown color source %q", name)
	}
}

// newEffects creates the effects in the order the A and B buttons walk
// through them.
func newEffects(cfg *config.Config, strip ledfx.Strip) ([]*ledfx.Effect, error) {
	var speed *ledfx.Speed
	if cfg.Effects.SharedSpeed {
		speed = ledfx.NewSpeed()
	}

	sources := make([]ledfx.ColorSource, len(cfg.Effects.CircleColors))
	for i, name := range cfg.Effects.CircleColors {
		src, err := colorSource(name)
		if err != nil {
			return nil, err
		}
		sources[i] = src
	}

	anims := []ledfx.Animator{
		ledfx.NewPalette(),
		ledfx.NewCircle(ledfx.CircleOpts{
			Marker:  cfg.Effects.CircleMarker,
			Sources: sources,
		}),
		ledfx.NewRandom(nil),
		ledfx.NewRunner(cfg.Effects.RunnerPath),
	}

	effects := make([]*ledfx.Effect, len(anims))
	for i, anim := range anims {
		effect, err := ledfx.NewEffect(strip, anim, ledfx.EffectOpts{Speed: speed})
		if err != nil {
			return nil, err
		}
		effects[i] = effect
	}

	return effects, nil
}
