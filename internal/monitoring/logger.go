// Package monitoring holds the process-wide diagnostic logger the engine
// reports internal anomalies through.
package monitoring

import "log"

// Logf emits one diagnostic line. It defaults to log.Printf; swap it with
// SetLogger to redirect or capture engine diagnostics.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger installs f as the package logger. A nil f mutes diagnostics.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
