// Package metronome generates timed click pulses.
//
// An [Engine] owns the timing loop and hands each [Pulse] to a [Sink]. The default sink
// synthesizes the pulse with beep and plays it on the system speaker; when no audio device
// is available the engine keeps time against a [SilentSink] so tempo-related UI still works.
//
// Each [Sound] maps to a fixed [Timbre]:
//
//	click      1000 Hz sine      50ms  gain 1.0
//	beep        800 Hz square   100ms  gain 0.3
//	woodblock  1200 Hz triangle  80ms  gain 0.5
//	cowbell     587 Hz square   150ms  gain 0.4
//	snap       2000 Hz sine      30ms  gain 0.6
//
// Amplitude starts at gain×volume and decays exponentially to 0.01 over the duration.
package metronome
