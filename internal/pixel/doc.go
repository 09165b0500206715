// Package pixel converts decoded rasters into the packed 32-bit bitmaps
// accepted by the overlay notification surface.
//
// Conversion is pure: the source raster is only read, and a new buffer of
// exactly Width*Height*4 bytes is produced with the red and blue channel
// bytes exchanged and alpha normalised.
package pixel
