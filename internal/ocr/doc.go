// Package ocr defines the text recognition result types and the Recognizer
// interface the rest of textmap depends on.
//
// Results form the block, line and element hierarchy used by the text map:
//
//	Result
//	  └─ TextBlock   (a paragraph-like region; the unit users tap)
//	       └─ TextLine
//	            └─ TextElement (a single word)
//
// The package has no engine dependency. The Tesseract binding lives in
// ocr/tesseract, which only the server wires in, so packages that render or
// hold results build without cgo.
//
// # Ordering
//
// Blocks, lines and elements are reported in the engine's reading order.
// Block text is its lines joined by newlines; line text is its words joined
// by single spaces.
//
// # Coordinates
//
// Bounds are pixel coordinates in the image as displayed, that is with any
// EXIF orientation applied. An image with no text is not an error; it yields
// a Result with zero blocks.
package ocr
