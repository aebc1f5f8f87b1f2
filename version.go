// Package stevedore runs deployment command sequences locally or on a
// remote host over ssh, stopping at the first failing step.
package stevedore

// Version is the stevedore release version.
const Version = "0.2.0"
