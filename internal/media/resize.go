package media

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// ResizeToFill computes the smallest dimensions that preserve the image
// aspect ratio while fully covering the bounding box. imageRotation is the
// clockwise rotation in degrees applied when the image is displayed; a 90
// or 270 degree rotation swaps the image's effective width and height
// before fitting.
func ResizeToFill(imageWidth, imageHeight, imageRotation, boundWidth, boundHeight int) Dimensions {
	if imageWidth <= 0 || imageHeight <= 0 || boundWidth <= 0 || boundHeight <= 0 {
		return Dimensions{}
	}

	w, h := imageWidth, imageHeight
	if imageRotation%180 != 0 {
		w, h = h, w
	}

	// Cover: scale by the larger of the two ratios.
	if w*boundHeight > boundWidth*h {
		// Wider than the box: height pins the scale.
		return Dimensions{
			Width:  (w*boundHeight + h/2) / h,
			Height: boundHeight,
		}
	}
	return Dimensions{
		Width:  boundWidth,
		Height: (h*boundWidth + w/2) / w,
	}
}
