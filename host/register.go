package host

// Register is the scalar register shared by both sides of a session. The
// last write wins and every read observes it, whichever side issued the
// write. A Register is not safe for concurrent use.
type Register struct {
	value  uint32
	writes uint64
	reads  uint64
}

// NewRegister returns a register holding 0.
func NewRegister() *Register {
	return &Register{}
}

func (r *Register) Set(v uint32) {
	r.value = v
	r.writes++
}

func (r *Register) Get() uint32 {
	r.reads++
	return r.value
}

// Writes is the number of Set calls so far.
func (r *Register) Writes() uint64 { return r.writes }

// Reads is the number of Get calls so far.
func (r *Register) Reads() uint64 { return r.reads }
