package nn

// Signal is the binary value carried between units.
type Signal uint8

const (
	Zero Signal = 0
	One  Signal = 1
)

func (s Signal) Valid() bool {
	return s == Zero || s == One
}

func (s Signal) String() string {
	if s == One {
		return "1"
	}
	return "0"
}
