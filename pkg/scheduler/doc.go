// ABOUTME: Playback scheduling package
// ABOUTME: Priority-queue-by-play-time scheduler plus back-pressure bookkeeping
package scheduler
