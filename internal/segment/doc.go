// Package segment turns a grayscale raster into foreground polygons.
//
// The pipeline runs seven stages in a fixed order, each consuming only the
// output of the previous one:
//
//  1. Threshold estimation: Otsu's method over the intensity histogram plus a
//     caller offset, optionally on a further downsampled copy.
//  2. Binarization: pixels strictly darker than the threshold become 255.
//  3. Region size filtering: 8-connected components smaller than the
//     structuring element's cell count are cleared.
//  4. Morphological refinement: opening or dilation with an elliptical
//     structuring element, followed by inversion so objects become 0.
//  5. Border handling: constant padding, or removal of edge-touching objects.
//  6. Polygon extraction: pixel-edge boundary tracing of every object.
//  7. Rescaling and area filtering: an affine map back to source-image
//     coordinates (with a vertical flip) and a minimum-area cut.
//
// # Coordinate System
//
// Masks and working rasters use image coordinates: (0,0) at the top-left
// corner, X rightward, Y downward. Polygon vertices lie on pixel corners, so
// a single pixel at (x,y) is the square (x,y)-(x+1,y+1). After rescaling the
// vertical axis is flipped and the origin sits at the bottom-left corner of
// the source image.
//
// # Thread Safety
//
// Run holds no package-level state. Concurrent calls are safe as long as
// rasters and parameter slices are not shared between them.
//
// # Error Handling
//
// Invalid parameters and malformed rasters are reported as errors wrapping
// ErrInvalidConfiguration. An image with no surviving foreground is not an
// error: the result simply has no shapes.
package segment
