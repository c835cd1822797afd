// Package liveness implements the texture heuristic that separates a live
// three-dimensional face from a flat reproduction. Printed photos and screens
// show lower local intensity variance and edge density than real skin under
// ambient lighting.
package liveness

import (
	"image"
	"image/color"
	"math"

	"github.com/veriface-labs/poseguard/internal/provider"
)

// Config holds the liveness decision thresholds. These are heuristic operating
// points, overridable per deployment; they are not derived from the data.
type Config struct {
	// TextureVarianceMin is the minimum grayscale intensity variance inside
	// the face crop for a live decision
	TextureVarianceMin float64

	// EdgeDensityMin is the minimum mean Sobel gradient magnitude inside the
	// face crop for a live decision
	EdgeDensityMin float64
}

// DefaultConfig returns the standard operating thresholds
func DefaultConfig() Config {
	return Config{
		TextureVarianceMin: 100,
		EdgeDensityMin:     10,
	}
}

// Scores carries the raw measurements behind a liveness decision, kept for
// logging and tuning
type Scores struct {
	TextureVariance float64 `json:"texture_variance"`
	EdgeDensity     float64 `json:"edge_density"`
}

// Estimator scores a face crop for liveness
type Estimator struct {
	cfg Config
}

func NewEstimator(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Estimate crops the luminance channel to the face region, measures texture
// variance and edge density and applies the configured thresholds. A nil
// region means upstream already rejected the frame: return not-live without
// computing rather than scoring an undefined crop.
func (e *Estimator) Estimate(img image.Image, box *provider.BoundingBox) (Scores, bool) {
	if img == nil || box == nil {
		return Scores{}, false
	}

	gray := cropLuminance(img, *box)
	if gray == nil {
		return Scores{}, false
	}

	scores := Scores{
		TextureVariance: textureVariance(gray),
		EdgeDensity:     edgeDensity(gray),
	}

	live := scores.TextureVariance > e.cfg.TextureVarianceMin &&
		scores.EdgeDensity > e.cfg.EdgeDensityMin

	return scores, live
}

// cropLuminance extracts the face region as an 8-bit grayscale image,
// clamped to the frame bounds
func cropLuminance(img image.Image, box provider.BoundingBox) *image.Gray {
	bounds := img.Bounds()

	x0 := clampInt(int(box.Left), bounds.Min.X, bounds.Max.X)
	x1 := clampInt(int(box.Right), bounds.Min.X, bounds.Max.X)
	y0 := clampInt(int(box.Top), bounds.Min.Y, bounds.Max.Y)
	y1 := clampInt(int(box.Bottom), bounds.Min.Y, bounds.Max.Y)

	if x1-x0 < 3 || y1-y0 < 3 {
		return nil
	}

	gray := image.NewGray(image.Rect(0, 0, x1-x0, y1-y0))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma, RGBA returns 16-bit channels
			luma := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			gray.SetGray(x-x0, y-y0, colorGray(luma))
		}
	}

	return gray
}

// textureVariance computes the statistical variance of pixel intensities
func textureVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()

	var sum, sumSq float64
	count := 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := float64(gray.GrayAt(x, y).Y)
			sum += v
			sumSq += v * v
			count++
		}
	}

	if count == 0 {
		return 0
	}

	mean := sum / float64(count)
	return sumSq/float64(count) - mean*mean
}

// edgeDensity computes the mean Sobel gradient magnitude over the crop
func edgeDensity(gray *image.Gray) float64 {
	bounds := gray.Bounds()

	if bounds.Dx() < 3 || bounds.Dy() < 3 {
		return 0
	}

	var total float64
	count := 0

	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			gx := sobelX(gray, x, y)
			gy := sobelY(gray, x, y)
			total += math.Sqrt(gx*gx + gy*gy)
			count++
		}
	}

	if count == 0 {
		return 0
	}

	return total / float64(count)
}

func sobelX(gray *image.Gray, x, y int) float64 {
	return -1*px(gray, x-1, y-1) + px(gray, x+1, y-1) +
		-2*px(gray, x-1, y) + 2*px(gray, x+1, y) +
		-1*px(gray, x-1, y+1) + px(gray, x+1, y+1)
}

func sobelY(gray *image.Gray, x, y int) float64 {
	return -1*px(gray, x-1, y-1) - 2*px(gray, x, y-1) - px(gray, x+1, y-1) +
		px(gray, x-1, y+1) + 2*px(gray, x, y+1) + px(gray, x+1, y+1)
}

func px(gray *image.Gray, x, y int) float64 {
	return float64(gray.GrayAt(x, y).Y)
}

func colorGray(v float64) color.Gray {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return color.Gray{Y: uint8(v)}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
