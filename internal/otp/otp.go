// Package otp models the six-cell passcode entry widget: per-cell digit
// input, focus movement, paste splitting, debounced auto-submit, and the
// resend countdown. It is pure state; callers drive it from form input and
// issue the actual verification call.
package otp

import (
	"fmt"
	"time"
)

// Length is the number of digit cells.
const Length = 6

// SettleDelay is how long after the last edit an automatic submission waits,
// debouncing rapid successive keystrokes.
const SettleDelay = 300 * time.Millisecond

// ResendWait is the countdown before the resend action is offered.
const ResendWait = 59 * time.Minute

// Entry is the widget state for one verification attempt.
type Entry struct {
	cells    [Length]string
	focus    int
	busy     bool
	errMsg   string
	lastEdit time.Time
	fired    bool

	now func() time.Time
}

func NewEntry() *Entry {
	return &Entry{now: time.Now}
}

// Cells returns a copy of the cell contents.
func (e *Entry) Cells() [Length]string { return e.cells }

// Focus returns the index of the focused cell.
func (e *Entry) Focus() int { return e.focus }

// Err returns the currently displayed error message, if any.
func (e *Entry) Err() string { return e.errMsg }

// Busy reports whether a verification attempt is in flight.
func (e *Entry) Busy() bool { return e.busy }

// Code joins the cells into the entered code.
func (e *Entry) Code() string {
	var code string
	for _, c := range e.cells {
		code += c
	}
	return code
}

// Complete reports whether all six cells hold a digit.
func (e *Entry) Complete() bool {
	for _, c := range e.cells {
		if c == "" {
			return false
		}
	}
	return true
}

// Input types ch into cell i. Anything outside 0-9 is rejected without
// mutating state. Accepting a digit clears the error, moves focus to the
// next cell, and re-arms auto-submit.
func (e *Entry) Input(i int, ch rune) bool {
	if i < 0 || i >= Length {
		return false
	}
	if ch < '0' || ch > '9' {
		return false
	}

	e.cells[i] = string(ch)
	e.errMsg = ""
	e.fired = false
	e.lastEdit = e.now()
	e.focus = i
	if i < Length-1 {
		e.focus = i + 1
	}
	return true
}

// Backspace handles the backspace key in cell i: an empty cell moves focus
// back one cell without touching the previous cell's content; a filled cell
// is cleared in place.
func (e *Entry) Backspace(i int) {
	if i < 0 || i >= Length {
		return
	}
	if e.cells[i] == "" {
		if i > 0 {
			e.focus = i - 1
		}
		return
	}
	e.cells[i] = ""
	e.fired = false
	e.lastEdit = e.now()
	e.focus = i
}

// Paste distributes clipboard text across the cells. Input is truncated to
// six characters and rejected entirely if any remaining character is not a
// digit. Focus lands on the cell after the last filled one (capped at the
// final cell), or cell 0 for an empty paste.
func (e *Entry) Paste(text string) bool {
	runes := []rune(text)
	if len(runes) > Length {
		runes = runes[:Length]
	}
	for _, r := range runes {
		if r < '0' || r > '9' {
			return false
		}
	}

	for i := range e.cells {
		if i < len(runes) {
			e.cells[i] = string(runes[i])
		} else {
			e.cells[i] = ""
		}
	}
	e.errMsg = ""
	e.fired = false
	e.lastEdit = e.now()
	e.focus = len(runes)
	if e.focus > Length-1 {
		e.focus = Length - 1
	}
	return true
}

// TakeAutoSubmit reports whether an automatic verification attempt should
// fire now: the code is complete, nothing is in flight, no error is showing,
// and the last edit has settled. A true result consumes the arming, so the
// attempt fires exactly once per completed entry.
func (e *Entry) TakeAutoSubmit(now time.Time) bool {
	if e.fired || e.busy || e.errMsg != "" || !e.Complete() {
		return false
	}
	if now.Sub(e.lastEdit) < SettleDelay {
		return false
	}
	e.fired = true
	return true
}

// BeginSubmit marks a verification attempt in flight.
func (e *Entry) BeginSubmit() {
	e.busy = true
	e.errMsg = ""
}

// Fail records a verification failure: cells clear, focus returns to the
// first cell, and the message is displayed.
func (e *Entry) Fail(msg string) {
	e.busy = false
	e.errMsg = msg
	e.cells = [Length]string{}
	e.focus = 0
	e.fired = false
}

// Succeed clears the in-flight flag after a successful verification.
func (e *Entry) Succeed() {
	e.busy = false
	e.errMsg = ""
}

// Resend clears the cells and error for a fresh code. Focus deliberately
// stays where it was.
func (e *Entry) Resend() {
	e.cells = [Length]string{}
	e.errMsg = ""
	e.busy = false
	e.fired = false
}

// Countdown is the visible mm:ss resend timer. It decrements once per second
// and stops at zero.
type Countdown struct {
	remaining int
}

func NewCountdown(d time.Duration) *Countdown {
	secs := int(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return &Countdown{remaining: secs}
}

// Tick advances the timer by one second, flooring at zero.
func (c *Countdown) Tick() {
	if c.remaining > 0 {
		c.remaining--
	}
}

// Expired reports whether the timer has reached zero.
func (c *Countdown) Expired() bool { return c.remaining == 0 }

// Seconds returns the remaining whole seconds.
func (c *Countdown) Seconds() int { return c.remaining }

// Reset restarts the timer at the given duration.
func (c *Countdown) Reset(d time.Duration) {
	secs := int(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	c.remaining = secs
}

// String formats the timer as m:ss.
func (c *Countdown) String() string {
	return fmt.Sprintf("%d:%02d", c.remaining/60, c.remaining%60)
}
