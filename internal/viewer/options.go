package viewer

import (
	"image/color"

	"github.com/ironsheep/annotation-review/internal/annotations"
	"github.com/ironsheep/annotation-review/internal/config"
	"github.com/ironsheep/annotation-review/internal/imaging"
)

// Options tune rendering and interaction.
type Options struct {
	Classes annotations.Vocabulary

	MaxWidth  int
	MaxHeight int

	ZoomMin  float64
	ZoomMax  float64
	ZoomIn   float64
	ZoomOut  float64
	ZoomBase string

	Unselected   color.NRGBA
	Selected     color.NRGBA
	OutlineWidth float64
}

// DefaultOptions mirrors config.Default.
func DefaultOptions() Options {
	opts, _ := OptionsFromSettings(config.Default())
	return opts
}

// OptionsFromSettings converts validated settings into Options.
func OptionsFromSettings(s *config.Settings) (Options, error) {
	unselected, err := imaging.ParseColor(s.Outline.Unselected)
	if err != nil {
		return Options{}, err
	}
	selected, err := imaging.ParseColor(s.Outline.Selected)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Classes:      annotations.Vocabulary(s.Classes),
		MaxWidth:     s.Display.MaxWidth,
		MaxHeight:    s.Display.MaxHeight,
		ZoomMin:      s.Zoom.Min,
		ZoomMax:      s.Zoom.Max,
		ZoomIn:       s.Zoom.In,
		ZoomOut:      s.Zoom.Out,
		ZoomBase:     s.Zoom.Base,
		Unselected:   unselected,
		Selected:     selected,
		OutlineWidth: s.Outline.Width,
	}, nil
}
