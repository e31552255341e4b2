package circuit

import "github.com/edp1096/toy-ybus/pkg/device"

// collection is a name-keyed set of devices that remembers insertion order.
type collection[T device.Device] struct {
	order []string
	items map[string]T
}

func newCollection[T device.Device]() *collection[T] {
	return &collection[T]{
		order: make([]string, 0),
		items: make(map[string]T),
	}
}

func (c *collection[T]) has(name string) bool {
	_, ok := c.items[name]
	return ok
}

func (c *collection[T]) get(name string) (T, bool) {
	item, ok := c.items[name]
	return item, ok
}

// add assumes the caller already rejected duplicates.
func (c *collection[T]) add(item T) {
	name := item.GetName()
	c.order = append(c.order, name)
	c.items[name] = item
}

func (c *collection[T]) list() []T {
	out := make([]T, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.items[name])
	}
	return out
}

func (c *collection[T]) len() int {
	return len(c.order)
}
