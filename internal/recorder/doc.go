// Package recorder captures meeting audio from a local input device with
// ffmpeg, writing 16 kHz mono MP3 files named meeting_YYYYMMDD_HHMMSS.mp3.
package recorder
