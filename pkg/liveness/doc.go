// Package liveness drives the selfie capture used for attendance check-in.
//
// A Controller owns one camera stream for the lifetime of a capture session.
// Once the stream is live it walks the user through a scripted sequence of
// prompts (position, hold still, perform a challenge) and then grabs a single
// still frame. The prompts are purely timed; no blink or smile detection is
// performed on the video.
//
// Lifecycle:
//
//	INITIALIZING --acquired--> READY --8.5s--> CAPTURING --0.5s--> onCapture
//	     |                       |                 |
//	     +--acquire failed-------+--> ERROR <------+-- grab/face check failed
//	                                    |
//	                                 onCancel
//
// Cancel may be called at any time and fires onCancel. Dispose tears the
// session down without any callback. In every case the stream is released
// exactly once and no timeline step runs after the session has ended.
package liveness
