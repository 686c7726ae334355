// Package tesseract implements ocr.Recognizer with the Tesseract engine
// through gosseract/v2.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// A non-standard traineddata location can be supplied through
// Recognizer.TessdataPrefix (TEXTMAP_TESSDATA_PREFIX).
//
// # Image References
//
// Recognize accepts a filesystem path or a file:// URI. The image is always
// decoded here, upright per its EXIF orientation, and handed to Tesseract as
// PNG bytes, so block bounds line up with what imaging.ImageCache returns for
// the same reference. With Preprocess set the page is first converted to
// high-contrast grayscale.
//
// # Error Handling
//
// Recognize fails for missing files, undecodable images, unknown languages
// and Tesseract failures.
package tesseract
