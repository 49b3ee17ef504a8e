// Package indicator drives the single status light.
//
// Drivers implement Indicator with a plain on/off Set. The log driver is the
// default and only records transitions in the structured log; the sysfs
// driver toggles a Linux GPIO line through /sys/class/gpio. Recorder keeps
// every transition in memory for tests and offline rendering.
package indicator
