package game

// cooldownBlocks is the number of asks an attribute stays blocked after its
// own use.
const cooldownBlocks = 2

// Cooldowns maps attributes to their remaining-blocks counter. Counters are
// always 1 or 2; an absent attribute is unblocked. The zero value is usable.
type Cooldowns map[Attribute]int

// Blocked reports whether the attribute cannot currently be queried.
func (c Cooldowns) Blocked(a Attribute) bool {
	return c[a] > 0
}

// Next returns the table after one question on the given attribute: every
// counter at 2 drops to 1, every counter at 1 is removed, and the just-asked
// attribute is set to 2 regardless of its prior state. The receiver is not
// mutated.
func (c Cooldowns) Next(asked Attribute) Cooldowns {
	next := make(Cooldowns, len(c)+1)
	for a, n := range c {
		if n > 1 {
			next[a] = n - 1
		}
	}
	next[asked] = cooldownBlocks
	return next
}

// BlockedAttributes returns the currently blocked attributes in display order.
func (c Cooldowns) BlockedAttributes() []Attribute {
	var blocked []Attribute
	for _, a := range Attributes {
		if c.Blocked(a) {
			blocked = append(blocked, a)
		}
	}
	return blocked
}
