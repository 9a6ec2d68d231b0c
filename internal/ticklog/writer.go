package ticklog

import (
	"bufio"
	"encoding/binary"
	"os"
	"time"

	"main/internal/schema"
)

// Writer appends fixed-size records to a tick-log file. It is not safe for
// concurrent use.
type Writer struct {
	file    *os.File
	buf     *bufio.Writer
	scratch [quoteRecordSize]byte
	closed  bool
}

// NewWriter creates the file, truncating any previous content, and writes the
// header. The description is cut to the 32-byte field width.
func NewWriter(path, description string) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	w := &Writer{file: file, buf: bufio.NewWriter(file)}
	if err := w.writeHeader(description, time.Now().UTC().UnixNano()); err != nil {
		_ = file.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) writeHeader(description string, createdNs int64) error {
	var header [HeaderSize]byte
	binary.LittleEndian.PutUint32(header[offMagic:], Magic)
	copy(header[offVersion:offVersion+versionLen], Version)
	binary.LittleEndian.PutUint64(header[offCreated:], uint64(createdNs))
	if len(description) > descriptionLen {
		description = description[:descriptionLen]
	}
	copy(header[offDescription:offDescription+descriptionLen], description)
	_, err := w.buf.Write(header[:])
	return err
}

// WriteTick appends a 27-byte trade/bid/ask record. Quote-kind ticks are not
// representable here; use WriteQuote.
func (w *Writer) WriteTick(tick schema.Tick) error {
	if w.closed {
		return ErrClosed
	}
	if tick.Kind == schema.TickQuote {
		return ErrBadKind
	}
	buf := w.scratch[:tickRecordSize]
	if err := encodePrefix(buf, tick.TsNs, byte(tick.Kind), tick.Symbol); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf[recordPrefixSize:], uint64(tick.Price))
	binary.LittleEndian.PutUint32(buf[recordPrefixSize+8:], uint32(tick.Qty))
	_, err := w.buf.Write(buf)
	return err
}

// WriteQuote appends a 39-byte two-sided quote record.
func (w *Writer) WriteQuote(quote schema.Quote) error {
	if w.closed {
		return ErrClosed
	}
	buf := w.scratch[:quoteRecordSize]
	if err := encodePrefix(buf, quote.TsNs, byte(schema.TickQuote), quote.Symbol); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(buf[recordPrefixSize:], uint64(quote.BidPx))
	binary.LittleEndian.PutUint32(buf[recordPrefixSize+8:], uint32(quote.BidSz))
	binary.LittleEndian.PutUint64(buf[recordPrefixSize+12:], uint64(quote.AskPx))
	binary.LittleEndian.PutUint32(buf[recordPrefixSize+20:], uint32(quote.AskSz))
	_, err := w.buf.Write(buf)
	return err
}

// Close flushes, syncs, and closes the file.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close()
		return err
	}
	if err := w.file.Sync(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

func encodePrefix(buf []byte, tsNs int64, kind byte, symbol string) error {
	if len(symbol) > symbolLen {
		return ErrSymbolTooLong
	}
	binary.LittleEndian.PutUint64(buf[0:], uint64(tsNs))
	buf[8] = kind
	for i := 0; i < symbolLen; i++ {
		buf[9+i] = 0
	}
	copy(buf[9:9+symbolLen], symbol)
	return nil
}
