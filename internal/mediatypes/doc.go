// Package mediatypes holds the media whitelist shared by the scanner, the
// thumbnail codec and the HTTP layer.
//
// Classification is by extension only and is case-insensitive:
//
//	mediatypes.IsMedia("IMG_0001.JPG")   // true
//	mediatypes.TypeOf("clip.mp4")        // FileTypeVideo
//	mediatypes.TypeOf("notes.txt")       // FileTypeOther
//
// The package has no dependencies beyond the standard library so it can be
// imported from anywhere without cycles.
package mediatypes
