package flowmon

import "sync"

// Classifier maps five-tuples to flow IDs. The same tuple always maps to the
// same ID during a run.
type Classifier struct {
	lock   sync.RWMutex
	ids    map[FiveTuple]FlowID
	tuples []FiveTuple
}

// NewClassifier creates an empty Classifier.
func NewClassifier() *Classifier {
	return &Classifier{
		ids: make(map[FiveTuple]FlowID),
	}
}

// Classify returns the ID of the flow the tuple belongs to, creating the flow
// the first time the tuple is seen.
func (c *Classifier) Classify(t FiveTuple) FlowID {
	c.lock.Lock()
	defer c.lock.Unlock()

	id, found := c.ids[t]
	if found {
		return id
	}

	c.tuples = append(c.tuples, t)
	id = FlowID(len(c.tuples))
	c.ids[t] = id

	return id
}

// FindFlow returns the tuple of a flow.
func (c *Classifier) FindFlow(id FlowID) (FiveTuple, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if id == 0 || int(id) > len(c.tuples) {
		return FiveTuple{}, false
	}

	return c.tuples[id-1], true
}

// NumFlows returns the number of flows seen so far.
func (c *Classifier) NumFlows() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return len(c.tuples)
}
