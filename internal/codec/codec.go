// Package codec is the service boundary over the wire protocol: it counts
// and logs every encode and decode, splits back-to-back records, and
// projects messages into JSON/CBOR friendly records.
package codec

import (
	"fmt"

	"github.com/danmuck/apmwire/internal/observability"
	"github.com/danmuck/apmwire/internal/protocol"
	"github.com/rs/zerolog"
)

// MaxStreamRecords bounds DecodeStream.
const MaxStreamRecords = 4096

type Codec struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Codec {
	observability.RegisterMetrics()
	return &Codec{logger: logger.With().Str("component", "codec").Logger()}
}

func (c *Codec) Encode(msg protocol.Message) ([]byte, error) {
	variant := "nil"
	if !protocol.IsNil(msg) {
		variant = msg.Discriminant().String()
	}
	out, err := protocol.EncodeMessage(msg)
	observability.RecordCodec("encode", variant, len(out), err)
	if err != nil {
		c.logger.Warn().Err(err).Str("variant", variant).Msg("encode failed")
		return nil, err
	}
	c.logger.Debug().Str("variant", variant).Int("bytes", len(out)).Msg("encoded")
	return out, nil
}

func (c *Codec) Decode(buf []byte) (protocol.Message, int, error) {
	msg, n, err := protocol.DecodeMessage(buf)
	variant := "unknown"
	if len(buf) > 0 && protocol.Registered(protocol.Discriminant(buf[0])) {
		variant = protocol.Discriminant(buf[0]).String()
	}
	observability.RecordCodec("decode", variant, n, err)
	if err != nil {
		c.logger.Warn().Err(err).Int("bytes", len(buf)).Msg("decode failed")
		return nil, 0, err
	}
	c.logger.Debug().Str("variant", variant).Int("consumed", n).Msg("decoded")
	return msg, n, nil
}

// DecodeStream decodes consecutive messages until buf is exhausted. Each
// record's consumed length locates the next one; there is no framing.
func (c *Codec) DecodeStream(buf []byte) ([]protocol.Message, error) {
	var out []protocol.Message
	for off := 0; off < len(buf); {
		if len(out) == MaxStreamRecords {
			return nil, fmt.Errorf("codec: stream exceeds %d records", MaxStreamRecords)
		}
		msg, n, err := c.Decode(buf[off:])
		if err != nil {
			return nil, fmt.Errorf("codec: record %d at byte %d: %w", len(out), off, err)
		}
		out = append(out, msg)
		off += n
	}
	return out, nil
}

// EncodeStream encodes msgs back to back.
func (c *Codec) EncodeStream(msgs []protocol.Message) ([]byte, error) {
	var out []byte
	for i, msg := range msgs {
		b, err := c.Encode(msg)
		if err != nil {
			return nil, fmt.Errorf("codec: record %d: %w", i, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

// Views projects every message into a Record.
func Views(msgs []protocol.Message) ([]Record, error) {
	records := make([]Record, 0, len(msgs))
	for i, msg := range msgs {
		rec, err := View(msg)
		if err != nil {
			return nil, fmt.Errorf("codec: record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
