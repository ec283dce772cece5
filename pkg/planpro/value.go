package planpro

// Value is the PlanPro leaf wrapper <Field><Wert>...</Wert></Field>. Optional
// fields are held as *Value so that an absent element stays nil.
type Value[T any] struct {
	Wert T `xml:"Wert"`
}

// Get returns the wrapped value and whether the element was present. It is
// safe to call on a nil receiver.
func (v *Value[T]) Get() (T, bool) {
	if v == nil {
		var zero T
		return zero, false
	}
	return v.Wert, true
}

// Or returns the wrapped value or def when the element is absent.
func (v *Value[T]) Or(def T) T {
	if v == nil {
		return def
	}
	return v.Wert
}

// Val builds a present value. Mostly useful when assembling records in code.
func Val[T any](v T) *Value[T] {
	return &Value[T]{Wert: v}
}
