// Package bankstream implements a funds transfer engine and the event
// pipeline that publishes every attempted transfer for downstream risk
// analysis.
package bankstream
