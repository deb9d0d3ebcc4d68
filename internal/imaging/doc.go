// Package imaging loads images from disk and prepares them for segmentation.
//
// It decodes PNG, JPEG, GIF, TIFF and BMP files, caches decoded images for
// repeated use, converts them to grayscale rasters at their native bit depth,
// and renders segmentation results as colored outlines over the source image.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Polygons produced by the
// segment package use a bottom-left origin instead; RenderOverlay flips them
// back before drawing.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. FileSource holds no mutable state of
// its own and is safe for concurrent use when its cache is.
//
// # Error Handling
//
// Functions return errors for files that cannot be opened or decoded, for
// empty images, and for encoding failures while producing overlays.
package imaging
