// Command hardsub extracts burned-in subtitles from video files as timed
// cues. It samples frames with ffmpeg, recognizes text with tesseract, and
// groups the results into a deduplicated cue list.
package main
