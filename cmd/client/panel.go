package main

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten"
)

const panelTexture = 24

// Panel is a nine-patch frame: corners keep their size, edges and the centre
// stretch to fill the rectangle.
type Panel struct {
	texture        *ebiten.Image
	border         int
	R, G, B, alpha float64
	x, y           float64
	width, height  float64
}

// NewPanel renders a rounded frame texture once and reuses it for every draw.
func NewPanel(border int) *Panel {
	img := image.NewRGBA(image.Rect(0, 0, panelTexture, panelTexture))
	for x := 0; x < panelTexture; x++ {
		for y := 0; y < panelTexture; y++ {
			if cornerCut(x, y, border) {
				continue
			}
			a := uint8(90)
			if x < 2 || y < 2 || x >= panelTexture-2 || y >= panelTexture-2 {
				a = 255
			}
			img.Set(x, y, color.RGBA{a, a, a, a})
		}
	}
	texture, _ := ebiten.NewImageFromImage(img, ebiten.FilterDefault)
	return &Panel{texture: texture, border: border, R: 1, G: 1, B: 1, alpha: 1}
}

// cornerCut reports whether x,y lies outside the rounded corners of radius r.
func cornerCut(x, y, r int) bool {
	far := panelTexture - 1 - r
	cx, cy := x, y
	if x < r {
		cx = r
	} else if x > far {
		cx = far
	}
	if y < r {
		cy = r
	} else if y > far {
		cy = far
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy > r*r
}

func (p *Panel) SetBounds(x, y, width, height float64) {
	p.x, p.y, p.width, p.height = x, y, width, height
}

func (p *Panel) SetColor(c color.Color, alpha float64) {
	r, g, b, _ := c.RGBA()
	p.R, p.G, p.B = float64(r)/0xffff, float64(g)/0xffff, float64(b)/0xffff
	p.alpha = alpha
}

func (p *Panel) Draw(screen *ebiten.Image) {
	b := p.border
	src := [4]int{0, b, panelTexture - b, panelTexture}
	dst := [4]float64{0, float64(b), p.width - float64(b), p.width}
	dstY := [4]float64{0, float64(b), p.height - float64(b), p.height}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sw, sh := src[i+1]-src[i], src[j+1]-src[j]
			dw, dh := dst[i+1]-dst[i], dstY[j+1]-dstY[j]
			if sw <= 0 || sh <= 0 || dw <= 0 || dh <= 0 {
				continue
			}
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Scale(dw/float64(sw), dh/float64(sh))
			op.GeoM.Translate(p.x+dst[i], p.y+dstY[j])
			op.ColorM.Scale(p.R, p.G, p.B, p.alpha)
			patch := p.texture.SubImage(image.Rect(src[i], src[j], src[i+1], src[j+1])).(*ebiten.Image)
			screen.DrawImage(patch, op)
		}
	}
}
