// Package calendar resolves which event years and days a run should cover.
//
// Window.Resolve takes the current instant as a parameter so callers (and
// tests) control the clock.
package calendar
