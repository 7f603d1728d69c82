// Package alert plays audible cues for the proctoring session.
//
// A cue is produced by an Output tier. ResourceOutput plays a pre-loaded sound file,
// SynthOutput plays an oscillator tone rendered in memory. Chain tries tiers in order,
// so a missing or unplayable resource degrades to the synthesized tone. Alarm holds at
// most one looping cue at a time.
package alert
