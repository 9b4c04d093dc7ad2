package api

import (
	"time"

	"github.com/rumbledethumps/ria/internal/errno"
)

// Package-level so every Dispatcher shares one clock offset, matching
// a single on-board RTC chip. Supplemented feature (spec.md's
// distillation dropped the RTC call pair present in
// original_source/src/ria/api/rtc.c); implemented against Go's time
// package rather than the original's PCF8563 register bytes, and
// deliberately not reproducing the duplicate-declaration bug in
// rtc_api_read_rtc_time.
var (
	rtcOffset time.Duration
	timeNow   = time.Now
)

// apiRTCGet implements rtc_get(): pushes the current time back onto
// the xstack as six bytes (sec, min, hour, day, month, year-2000),
// the Go port's stand-in for rtc_api_read_rtc_time filling its output
// struct, since this port has no register pair to write through.
func apiRTCGet(d *Dispatcher) bool {
	now := timeNow().Add(rtcOffset).UTC()
	d.XStack.Reset()
	d.XStack.Push6502(byte(now.Year() - 2000))
	d.XStack.Push6502(byte(now.Month()))
	d.XStack.Push6502(byte(now.Day()))
	d.XStack.Push6502(byte(now.Hour()))
	d.XStack.Push6502(byte(now.Minute()))
	d.XStack.Push6502(byte(now.Second()))
	d.returnAX(0)
	return false
}

// apiRTCSet implements rtc_set(sec, min, hour, day, month, year),
// mirroring rtc_api_set_rtc_time: computes the offset from the host
// clock that makes future apiRTCGet calls report the requested time.
func apiRTCSet(d *Dispatcher) bool {
	sec, ok := d.XStack.PopBytes(1)
	if !ok {
		d.returnErrno(errno.Inval)
		return false
	}
	min, ok := d.XStack.PopBytes(1)
	if !ok {
		d.returnErrno(errno.Inval)
		return false
	}
	hour, ok := d.XStack.PopBytes(1)
	if !ok {
		d.returnErrno(errno.Inval)
		return false
	}
	day, ok := d.XStack.PopBytes(1)
	if !ok {
		d.returnErrno(errno.Inval)
		return false
	}
	month, ok := d.XStack.PopBytes(1)
	if !ok {
		d.returnErrno(errno.Inval)
		return false
	}
	year, ok := d.XStack.PopUint8End()
	if !ok {
		d.returnErrno(errno.Inval)
		return false
	}
	requested := time.Date(2000+int(year), time.Month(month[0]), int(day[0]),
		int(hour[0]), int(min[0]), int(sec[0]), 0, time.UTC)
	rtcOffset = requested.Sub(timeNow())
	d.returnAX(0)
	return false
}
