package protocol

// Class fixes the capacity of a SizedString and the width of its packed
// count field. Implementations are empty marker types.
type Class interface {
	Max() int
	CountBits() uint8
}

type (
	Class7   struct{}
	Class15  struct{}
	Class31  struct{}
	Class63  struct{}
	Class127 struct{}
	Class255 struct{}
)

func (Class7) Max() int         { return 7 }
func (Class7) CountBits() uint8 { return 3 }

func (Class15) Max() int         { return 15 }
func (Class15) CountBits() uint8 { return 4 }

func (Class31) Max() int         { return 31 }
func (Class31) CountBits() uint8 { return 5 }

func (Class63) Max() int         { return 63 }
func (Class63) CountBits() uint8 { return 6 }

func (Class127) Max() int         { return 127 }
func (Class127) CountBits() uint8 { return 7 }

func (Class255) Max() int         { return 255 }
func (Class255) CountBits() uint8 { return 8 }

// The numeric suffix is the number of count values the class can carry.
type (
	String8   = SizedString[Class7]
	String16  = SizedString[Class15]
	String32  = SizedString[Class31]
	String64  = SizedString[Class63]
	String128 = SizedString[Class127]
	String256 = SizedString[Class255]
)

// Field capacities of the APM record.
type (
	Realm           = String32
	Application     = String32
	ApplicationHash = String32
	Action          = String256
	Status          = String16
	PartName        = String32
)
