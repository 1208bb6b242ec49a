package core

import "fmt"

// IdentifierPool hands out small integer identifiers, reusing released
// slots before growing. Identifiers start at Base so callers that treat
// zero as "none" can set Base to 1.
type IdentifierPool struct {
	Base   uint32
	owners []interface{}
}

func NewIdentifierPool(base uint32) *IdentifierPool {
	return &IdentifierPool{
		Base:   base,
		owners: make([]interface{}, 0, 100),
	}
}

func (p *IdentifierPool) Acquire(owner interface{}) uint32 {
	if owner == nil {
		owner = struct{}{}
	}
	length := uint32(len(p.owners))
	for i := uint32(0); i < length; i++ {
		// Existing free spot. Take it.
		if p.owners[i] == nil {
			p.owners[i] = owner
			return i + p.Base
		}
	}

	// No free slots, push a new one.
	p.owners = append(p.owners, owner)
	return uint32(len(p.owners)) - 1 + p.Base
}

func (p *IdentifierPool) Release(id uint32) error {
	if len(p.owners) == 0 {
		return fmt.Errorf("identifier release called before any acquire. Nothing was done")
	}
	if id < p.Base || id-p.Base >= uint32(len(p.owners)) {
		return fmt.Errorf("identifier release: id '%d' out of range (max=%d). Nothing was done", id, uint32(len(p.owners))+p.Base-1)
	}
	if p.owners[id-p.Base] == nil {
		return fmt.Errorf("identifier release: id '%d' is not in use. Nothing was done", id)
	}
	p.owners[id-p.Base] = nil
	return nil
}

// Owner returns the value registered for id, or nil if the slot is free.
func (p *IdentifierPool) Owner(id uint32) interface{} {
	if id < p.Base || id-p.Base >= uint32(len(p.owners)) {
		return nil
	}
	return p.owners[id-p.Base]
}

// InUse counts the identifiers currently held.
func (p *IdentifierPool) InUse() int {
	n := 0
	for _, o := range p.owners {
		if o != nil {
			n++
		}
	}
	return n
}
