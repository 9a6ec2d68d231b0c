package ticklog

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"main/internal/schema"
)

// Reader streams events out of a tick-log file in record order.
type Reader struct {
	file    *os.File
	buf     *bufio.Reader
	header  Header
	scratch [quoteRecordSize]byte
}

// OpenReader opens the file and validates its header.
func OpenReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{file: file, buf: bufio.NewReader(file)}
	if err := r.readHeader(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r.buf, header[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrShortHeader
		}
		return err
	}
	if binary.LittleEndian.Uint32(header[offMagic:]) != Magic {
		return ErrBadMagic
	}
	version := string(header[offVersion : offVersion+versionLen])
	if version != Version {
		return ErrBadVersion
	}
	r.header = Header{
		Version:     version,
		CreatedNs:   int64(binary.LittleEndian.Uint64(header[offCreated:])),
		Description: string(bytes.TrimRight(header[offDescription:offDescription+descriptionLen], "\x00")),
	}
	return nil
}

// Header returns the decoded file header.
func (r *Reader) Header() Header {
	return r.header
}

// Next decodes the next record as an event. It returns io.EOF at a clean end
// of file and ErrShortRecord on a mid-record truncation.
func (r *Reader) Next() (schema.Event, error) {
	prefix := r.scratch[:recordPrefixSize]
	if _, err := io.ReadFull(r.buf, prefix); err != nil {
		if err == io.EOF {
			return schema.Event{}, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return schema.Event{}, ErrShortRecord
		}
		return schema.Event{}, err
	}

	tsNs := int64(binary.LittleEndian.Uint64(prefix[0:]))
	kind := schema.TickKind(prefix[8])
	symbol := string(bytes.TrimRight(prefix[9:9+symbolLen], "\x00"))

	switch kind {
	case schema.TickTrade, schema.TickBid, schema.TickAsk:
		body := r.scratch[recordPrefixSize:tickRecordSize]
		if _, err := io.ReadFull(r.buf, body); err != nil {
			return schema.Event{}, ErrShortRecord
		}
		return schema.NewTickEvent(schema.Tick{
			TsNs:   tsNs,
			Symbol: symbol,
			Price:  schema.Price(binary.LittleEndian.Uint64(body[0:])),
			Qty:    schema.Quantity(int32(binary.LittleEndian.Uint32(body[8:]))),
			Kind:   kind,
		}), nil
	case schema.TickQuote:
		body := r.scratch[recordPrefixSize:quoteRecordSize]
		if _, err := io.ReadFull(r.buf, body); err != nil {
			return schema.Event{}, ErrShortRecord
		}
		return schema.NewQuoteEvent(schema.Quote{
			TsNs:   tsNs,
			Symbol: symbol,
			BidPx:  schema.Price(binary.LittleEndian.Uint64(body[0:])),
			BidSz:  schema.Quantity(int32(binary.LittleEndian.Uint32(body[8:]))),
			AskPx:  schema.Price(binary.LittleEndian.Uint64(body[12:])),
			AskSz:  schema.Quantity(int32(binary.LittleEndian.Uint32(body[20:]))),
		}), nil
	default:
		return schema.Event{}, ErrBadKind
	}
}

// Close releases the file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}
