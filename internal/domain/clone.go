package domain

// clonePtr returns a fresh pointer to a copy of *p, or nil.
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a copy that shares no memory with p.
func (p Product) Clone() Product {
	p.CategoryID = clonePtr(p.CategoryID)
	return p
}

// Clone returns a copy that shares no memory with o.
func (o OrderDetail) Clone() OrderDetail {
	o.DiscountAmount = clonePtr(o.DiscountAmount)
	if o.Items != nil {
		o.Items = append([]OrderItem(nil), o.Items...)
	}
	return o
}

// Clone returns a copy that shares no memory with d.
func (d Discount) Clone() Discount {
	d.MinOrderAmount = clonePtr(d.MinOrderAmount)
	d.MaxDiscountAmount = clonePtr(d.MaxDiscountAmount)
	d.UsageLimit = clonePtr(d.UsageLimit)
	d.StartDate = clonePtr(d.StartDate)
	d.EndDate = clonePtr(d.EndDate)
	return d
}
