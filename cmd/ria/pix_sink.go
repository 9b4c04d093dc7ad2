package main

import "log"

// logSink stands in for the real PIO TX FIFO when no companion VGA
// board is attached: it logs each outbound PIX frame word so an
// operator running with -vga can see the link traffic, the same role
// pix_test.go's recorder plays in tests.
type logSink struct{}

func newLogSink() *logSink { return &logSink{} }

func (logSink) Send(word uint32) { log.Printf("pix: %#08x", word) }
