package ocr

import (
	"image"
	"image/draw"
	"sort"

	xdraw "golang.org/x/image/draw"
)

const (
	contrastFactor  = 2.0
	sharpnessFactor = 2.0
	// Pages rendered below this width get upscaled before recognition.
	minRecognizeWidth = 1000
)

// Preprocess cleans a page image for recognition: grayscale, contrast
// stretch, sharpening, a 3x3 median filter and, for small images, a 2x
// Catmull-Rom upscale.
func Preprocess(img image.Image) image.Image {
	gray := toGray(img)
	gray = adjustContrast(gray, contrastFactor)
	gray = sharpen(gray, sharpnessFactor)
	gray = medianFilter3(gray)

	if gray.Bounds().Dx() > 0 && gray.Bounds().Dx() < minRecognizeWidth {
		gray = upscale2x(gray)
	}
	return gray
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

// adjustContrast interpolates every pixel away from the image mean:
// out = mean + factor*(in - mean).
func adjustContrast(img *image.Gray, factor float64) *image.Gray {
	pix := img.Pix
	if len(pix) == 0 {
		return img
	}

	var sum int64
	for _, p := range pix {
		sum += int64(p)
	}
	mean := float64(sum) / float64(len(pix))

	out := image.NewGray(img.Bounds())
	for i, p := range pix {
		out.Pix[i] = clampByte(mean + factor*(float64(p)-mean))
	}
	return out
}

// sharpen blends the image against a 3x3 smoothed copy:
// out = smooth + factor*(in - smooth).
func sharpen(img *image.Gray, factor float64) *image.Gray {
	smooth := smooth3(img)
	out := image.NewGray(img.Bounds())
	for i := range img.Pix {
		s := float64(smooth.Pix[i])
		out.Pix[i] = clampByte(s + factor*(float64(img.Pix[i])-s))
	}
	return out
}

// smooth3 applies the 3x3 kernel (1 1 1 / 1 5 1 / 1 1 1)/13.
func smooth3(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(bounds)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc, weight int
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					k := 1
					if dx == 0 && dy == 0 {
						k = 5
					}
					acc += k * int(img.Pix[ny*img.Stride+nx])
					weight += k
				}
			}
			out.Pix[y*out.Stride+x] = uint8(acc / weight)
		}
	}
	return out
}

// medianFilter3 replaces each pixel with the median of its 3x3
// neighborhood, which knocks out scan speckle.
func medianFilter3(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(bounds)

	window := make([]byte, 0, 9)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					window = append(window, img.Pix[ny*img.Stride+nx])
				}
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			out.Pix[y*out.Stride+x] = window[len(window)/2]
		}
	}
	return out
}

func upscale2x(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx()*2, bounds.Dy()*2))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, bounds, xdraw.Src, nil)
	return out
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
