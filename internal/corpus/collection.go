package corpus

// Collection is an ordered mapping from id to token sequence. Iteration order
// is insertion order; rankers use it as their final tie-break.
type Collection struct {
	ids    []string
	tokens map[string][]string
}

func NewCollection(capacity int) *Collection {
	return &Collection{
		ids:    make([]string, 0, capacity),
		tokens: make(map[string][]string, capacity),
	}
}

// Add appends id with its tokens. An id that is already present keeps its
// original position and tokens, and Add reports false.
func (c *Collection) Add(id string, tokens []string) bool {
	if _, exists := c.tokens[id]; exists {
		return false
	}
	c.ids = append(c.ids, id)
	c.tokens[id] = tokens
	return true
}

func (c *Collection) Len() int {
	return len(c.ids)
}

// IDs returns the ids in insertion order. The slice must not be modified.
func (c *Collection) IDs() []string {
	return c.ids
}

func (c *Collection) Tokens(id string) ([]string, bool) {
	tokens, ok := c.tokens[id]
	return tokens, ok
}

// Each calls fn for every member in insertion order.
func (c *Collection) Each(fn func(id string, tokens []string)) {
	for _, id := range c.ids {
		fn(id, c.tokens[id])
	}
}
