package availability

// SlotSeq walks the candidate start times of one service period:
// start, start+slot, start+2*slot, ... up to the last start whose full
// turn time still fits before the period closes. Partial slots are never
// offered; a party is not sat down at a time that would force it past
// closing. The sequence is finite and restartable via Reset.
type SlotSeq struct {
    period EffectivePeriod
    turn   int
    next   int
}

// NewSlotSeq returns a sequence over the period's candidate starts using
// the given effective turn time.
func NewSlotSeq(p EffectivePeriod, turnTime int) *SlotSeq {
    return &SlotSeq{period: p, turn: turnTime, next: p.StartMinute}
}

// Next returns the next candidate start minute. The second return is
// false once the sequence is exhausted.
func (s *SlotSeq) Next() (int, bool) {
    if s.period.SlotDuration <= 0 || s.turn <= 0 {
        return 0, false
    }
    if s.next+s.turn > s.period.EndMinute {
        return 0, false
    }
    start := s.next
    s.next += s.period.SlotDuration
    return start, true
}

// Reset rewinds the sequence to the period's first slot.
func (s *SlotSeq) Reset() { s.next = s.period.StartMinute }

// SlotTimes enumerates every candidate start minute across the policy's
// periods in ascending order, applying each period's turn-time override.
func (p *ResolvedPolicy) SlotTimes() []int {
    var out []int
    for _, per := range p.Periods {
        seq := NewSlotSeq(per, per.TurnTimeFor(p))
        for start, ok := seq.Next(); ok; start, ok = seq.Next() {
            out = append(out, start)
        }
    }
    return out
}
