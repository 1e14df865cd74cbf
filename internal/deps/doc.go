// Package deps checks the external tools an extraction run needs: the
// ffmpeg binaries for decoding and probing, and the tesseract language data
// the recognition engine loads at init.
package deps
