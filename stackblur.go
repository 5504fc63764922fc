// Go implementation of StackBlur algorithm described here:
// http://incubator.quasimondo.com/processing/fast_blur_deluxe.php

package collage

import (
	"image"
)

// maxBlurRadius is the largest radius covered by the lookup tables.
const maxBlurRadius = 254

var mulTable = [...]uint32{
	512, 512, 456, 512, 328, 456, 335, 512, 405, 328, 271, 456, 388, 335, 292, 512,
	454, 405, 364, 328, 298, 271, 496, 456, 420, 388, 360, 335, 312, 292, 273, 512,
	482, 454, 428, 405, 383, 364, 345, 328, 312, 298, 284, 271, 259, 496, 475, 456,
	437, 420, 404, 388, 374, 360, 347, 335, 323, 312, 302, 292, 282, 273, 265, 512,
	497, 482, 468, 454, 441, 428, 417, 405, 394, 383, 373, 364, 354, 345, 337, 328,
	320, 312, 305, 298, 291, 284, 278, 271, 265, 259, 507, 496, 485, 475, 465, 456,
	446, 437, 428, 420, 412, 404, 396, 388, 381, 374, 367, 360, 354, 347, 341, 335,
	329, 323, 318, 312, 307, 302, 297, 292, 287, 282, 278, 273, 269, 265, 261, 512,
	505, 497, 489, 482, 475, 468, 461, 454, 447, 441, 435, 428, 422, 417, 411, 405,
	399, 394, 389, 383, 378, 373, 368, 364, 359, 354, 350, 345, 341, 337, 332, 328,
	324, 320, 316, 312, 309, 305, 301, 298, 294, 291, 287, 284, 281, 278, 274, 271,
	268, 265, 262, 259, 257, 507, 501, 496, 491, 485, 480, 475, 470, 465, 460, 456,
	451, 446, 442, 437, 433, 428, 424, 420, 416, 412, 408, 404, 400, 396, 392, 388,
	385, 381, 377, 374, 370, 367, 363, 360, 357, 354, 350, 347, 344, 341, 338, 335,
	332, 329, 326, 323, 320, 318, 315, 312, 310, 307, 304, 302, 299, 297, 294, 292,
	289, 287, 285, 282, 280, 278, 275, 273, 271, 269, 267, 265, 263, 261, 259,
}

var shgTable = [...]uint32{
	9, 11, 12, 13, 13, 14, 14, 15, 15, 15, 15, 16, 16, 16, 16, 17,
	17, 17, 17, 17, 17, 17, 18, 18, 18, 18, 18, 18, 18, 18, 18, 19,
	19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 20, 20, 20,
	20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 21,
	21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21,
	21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 22, 22, 22, 22, 22, 22,
	22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22,
	22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 23,
	23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23,
	23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23,
	23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23,
	23, 23, 23, 23, 23, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
	24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
	24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
	24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
	24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
}

// px holds the four channels of a pixel, or a running sum of them.
type px struct {
	r, g, b, a uint32
}

func (p *px) add(q px) {
	p.r += q.r
	p.g += q.g
	p.b += q.b
	p.a += q.a
}

func (p *px) sub(q px) {
	p.r -= q.r
	p.g -= q.g
	p.b -= q.b
	p.a -= q.a
}

func (p px) mul(k uint32) px { return px{p.r * k, p.g * k, p.b * k, p.a * k} }

// blurStack is the circular queue of pixels currently inside the kernel.
type blurStack struct {
	px
	next *blurStack
}

func readPx(pix []uint8, i int) px {
	return px{uint32(pix[i]), uint32(pix[i+1]), uint32(pix[i+2]), uint32(pix[i+3])}
}

func writePx(pix []uint8, i int, sum px, mul, shg uint32) {
	pix[i] = uint8((sum.r * mul) >> shg)
	pix[i+1] = uint8((sum.g * mul) >> shg)
	pix[i+2] = uint8((sum.b * mul) >> shg)
	pix[i+3] = uint8((sum.a * mul) >> shg)
}

// stackBlur blurs the image in place with the given radius and returns it.
// The image must have its min point at (0, 0) and a stride of 4*width.
func stackBlur(img *image.NRGBA, radius int) *image.NRGBA {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	if radius < 1 || width == 0 || height == 0 {
		return img
	}
	if radius > maxBlurRadius {
		radius = maxBlurRadius
	}

	var (
		pix         = img.Pix
		div         = 2*radius + 1
		radiusPlus1 = radius + 1
		sumFactor   = uint32(radiusPlus1 * (radiusPlus1 + 1) / 2)
		mul         = mulTable[radius]
		shg         = shgTable[radius]
	)

	stackStart := &blurStack{}
	stack := stackStart
	var stackEnd *blurStack
	for i := 1; i < div; i++ {
		stack.next = &blurStack{}
		stack = stack.next
		if i == radiusPlus1 {
			stackEnd = stack
		}
	}
	stack.next = stackStart

	// run blurs one line of pixels; at returns the pixel offset of the i-th
	// pixel of the line, clamped to the line.
	run := func(n int, at func(i int) int) {
		var sum, inSum, outSum px

		first := readPx(pix, at(0))
		outSum = first.mul(uint32(radiusPlus1))
		sum = first.mul(sumFactor)

		stack := stackStart
		for i := 0; i < radiusPlus1; i++ {
			stack.px = first
			stack = stack.next
		}
		for i := 1; i < radiusPlus1; i++ {
			p := readPx(pix, at(min(i, n-1)))
			stack.px = p
			sum.add(p.mul(uint32(radiusPlus1 - i)))
			inSum.add(p)
			stack = stack.next
		}

		stackIn, stackOut := stackStart, stackEnd
		for i := 0; i < n; i++ {
			writePx(pix, at(i), sum, mul, shg)

			sum.sub(outSum)
			outSum.sub(stackIn.px)

			stackIn.px = readPx(pix, at(min(i+radiusPlus1, n-1)))
			inSum.add(stackIn.px)
			sum.add(inSum)
			stackIn = stackIn.next

			outSum.add(stackOut.px)
			inSum.sub(stackOut.px)
			stackOut = stackOut.next
		}
	}

	for y := 0; y < height; y++ {
		row := y * img.Stride
		run(width, func(i int) int { return row + i*4 })
	}
	for x := 0; x < width; x++ {
		col := x * 4
		run(height, func(i int) int { return col + i*img.Stride })
	}

	return img
}
