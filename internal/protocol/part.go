package protocol

import "github.com/danmuck/apmwire/internal/protocol/bits"

// TrackingPart is one measured segment of an action: a name, a hit
// counter and an accumulated duration in a caller-defined unit.
type TrackingPart struct {
	Name          PartName
	Hits          uint32
	TotalDuration uint64
}

// NewTrackingPart validates name and builds a part.
func NewTrackingPart(name string, hits uint32, totalDuration uint64) (TrackingPart, error) {
	n, err := ParseSizedString[Class31](name)
	if err != nil {
		return TrackingPart{}, err
	}
	return TrackingPart{Name: n, Hits: hits, TotalDuration: totalDuration}, nil
}

// DecodeTrackingPart reads one part at bitOffset and returns the offset
// just past it.
func DecodeTrackingPart(buf []byte, bitOffset int) (TrackingPart, int, error) {
	r := bits.NewReader(buf, bitOffset)
	p, err := readTrackingPart(r)
	if err != nil {
		return TrackingPart{}, 0, err
	}
	return p, r.Offset(), nil
}

func readTrackingPart(r *bits.Reader) (TrackingPart, error) {
	start := r.Offset()
	name, err := readSizedString[Class31](r)
	if err != nil {
		return TrackingPart{}, decodeFailed("name", start, err)
	}
	start = r.Offset()
	hits, err := r.ReadUint32()
	if err != nil {
		return TrackingPart{}, decodeFailed("hits", start, readFailed(err))
	}
	start = r.Offset()
	total, err := r.ReadUint64()
	if err != nil {
		return TrackingPart{}, decodeFailed("total_duration", start, readFailed(err))
	}
	return TrackingPart{Name: name, Hits: hits, TotalDuration: total}, nil
}

// Encode returns name, hits and total duration in wire order.
func (p TrackingPart) Encode() ([]byte, error) {
	w := bits.NewWriter(p.encodedLen())
	if err := p.writeTo(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func (p TrackingPart) writeTo(w *bits.Writer) error {
	if err := p.Name.writeTo(w); err != nil {
		return err
	}
	if err := w.WriteUint32(p.Hits); err != nil {
		return err
	}
	return w.WriteUint64(p.TotalDuration)
}

func (p TrackingPart) encodedLen() int {
	return 1 + p.Name.Len() + 4 + 8
}

// Equal reports field-wise equality.
func (p TrackingPart) Equal(other TrackingPart) bool {
	return p.Name.Equal(other.Name) &&
		p.Hits == other.Hits &&
		p.TotalDuration == other.TotalDuration
}
