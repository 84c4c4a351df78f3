package codec

import (
	"fmt"

	"github.com/danmuck/apmwire/internal/protocol"
	"github.com/fxamacker/cbor/v2"
)

// Record is a text projection of a decoded message, shaped for JSON and
// CBOR output. JSON tags also drive CBOR field names.
type Record struct {
	Variant         string       `json:"variant"`
	Realm           string       `json:"realm"`
	Application     string       `json:"application"`
	ApplicationHash string       `json:"application_hash"`
	Action          string       `json:"action"`
	Status          string       `json:"status"`
	Duration        uint64       `json:"duration"`
	Parts           []PartRecord `json:"parts"`
}

type PartRecord struct {
	Name          string `json:"name"`
	Hits          uint32 `json:"hits"`
	TotalDuration uint64 `json:"total_duration"`
}

// View projects msg into a Record.
func View(msg protocol.Message) (Record, error) {
	switch m := msg.(type) {
	case protocol.APMv1:
		return viewAPMv1(m)
	case *protocol.APMv1:
		if m == nil {
			return Record{}, protocol.ErrNilMessage
		}
		return viewAPMv1(*m)
	case nil:
		return Record{}, protocol.ErrNilMessage
	default:
		return Record{}, fmt.Errorf("codec: no view for %s", msg.Discriminant())
	}
}

func viewAPMv1(m protocol.APMv1) (Record, error) {
	rec := Record{
		Variant:  protocol.DiscriminantAPMv1.String(),
		Duration: m.Duration,
		Parts:    make([]PartRecord, 0, len(m.Parts)),
	}
	texts := []struct {
		name string
		dst  *string
		text func() (string, error)
	}{
		{"realm", &rec.Realm, m.Realm.Text},
		{"application", &rec.Application, m.Application.Text},
		{"application_hash", &rec.ApplicationHash, m.ApplicationHash.Text},
		{"action", &rec.Action, m.Action.Text},
		{"status", &rec.Status, m.Status.Text},
	}
	for _, f := range texts {
		s, err := f.text()
		if err != nil {
			return Record{}, fmt.Errorf("codec: %s: %w", f.name, err)
		}
		*f.dst = s
	}
	for i, p := range m.Parts {
		name, err := p.Name.Text()
		if err != nil {
			return Record{}, fmt.Errorf("codec: parts[%d].name: %w", i, err)
		}
		rec.Parts = append(rec.Parts, PartRecord{Name: name, Hits: p.Hits, TotalDuration: p.TotalDuration})
	}
	return rec, nil
}

// Message validates the record and builds the wire message it describes.
// An empty Variant selects apm_v1.
func (r Record) Message() (protocol.Message, error) {
	if r.Variant != "" && r.Variant != protocol.DiscriminantAPMv1.String() {
		return nil, fmt.Errorf("codec: unknown variant %q: %w", r.Variant, protocol.ErrUnknownDiscriminant)
	}
	var (
		m   protocol.APMv1
		err error
	)
	if m.Realm, err = protocol.ParseSizedString[protocol.Class31](r.Realm); err != nil {
		return nil, fmt.Errorf("codec: realm: %w", err)
	}
	if m.Application, err = protocol.ParseSizedString[protocol.Class31](r.Application); err != nil {
		return nil, fmt.Errorf("codec: application: %w", err)
	}
	if m.ApplicationHash, err = protocol.ParseSizedString[protocol.Class31](r.ApplicationHash); err != nil {
		return nil, fmt.Errorf("codec: application_hash: %w", err)
	}
	if m.Action, err = protocol.ParseSizedString[protocol.Class255](r.Action); err != nil {
		return nil, fmt.Errorf("codec: action: %w", err)
	}
	if m.Status, err = protocol.ParseSizedString[protocol.Class15](r.Status); err != nil {
		return nil, fmt.Errorf("codec: status: %w", err)
	}
	m.Duration = r.Duration
	if len(r.Parts) > protocol.MaxParts {
		return nil, fmt.Errorf("codec: parts: %w", protocol.LengthError{Length: len(r.Parts), Max: protocol.MaxParts})
	}
	for i, p := range r.Parts {
		part, err := protocol.NewTrackingPart(p.Name, p.Hits, p.TotalDuration)
		if err != nil {
			return nil, fmt.Errorf("codec: parts[%d].name: %w", i, err)
		}
		m.Parts = append(m.Parts, part)
	}
	return m, nil
}

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// MarshalCBOR encodes records with core deterministic CBOR.
func MarshalCBOR(records []Record) ([]byte, error) {
	return cborEnc.Marshal(records)
}

// UnmarshalCBOR decodes records written by MarshalCBOR.
func UnmarshalCBOR(data []byte) ([]Record, error) {
	var records []Record
	if err := cborDec.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("codec: cbor: %w", err)
	}
	return records, nil
}
