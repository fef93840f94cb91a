package alert

// subscriptionKey identifies one tracked (subscriber, SKU) pair.
type subscriptionKey struct {
	UserID int64
	SKU    string
}

// subscriptionState is the last observed stock state for one key. The
// Initialized flag enforces baseline suppression: the very first observation
// of a pair only records a baseline and never emits an event.
type subscriptionState struct {
	LastInStock  bool
	LastQuantity int
	Initialized  bool
}

// Tracker is the in-memory diff cache keyed by (user_id, sku). It is owned
// and mutated exclusively by the monitor loop; there is no concurrent writer,
// so it carries no locking. State lives for the process lifetime only; after
// a restart every pair re-baselines for one tick, which is the documented
// cold-start behavior.
type Tracker struct {
	states map[subscriptionKey]subscriptionState
}

// NewTracker creates an empty diff cache.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[subscriptionKey]subscriptionState)}
}

// Observe records the current stock state for a (user, sku) pair and returns
// the notification event for the transition, if any. The first observation of
// a pair establishes a baseline and emits nothing. The recorded state always
// reflects the current observation, so a transient send failure downstream is
// a dropped notification, not a retried one.
func (t *Tracker) Observe(userID int64, sku string, cur StockState) (Event, bool) {
	key := subscriptionKey{UserID: userID, SKU: sku}
	prevState, seen := t.states[key]

	t.states[key] = subscriptionState{
		LastInStock:  cur.InStock,
		LastQuantity: cur.Quantity,
		Initialized:  true,
	}

	if !seen || !prevState.Initialized {
		return Event{}, false
	}

	prev := StockState{InStock: prevState.LastInStock, Quantity: prevState.LastQuantity}
	kind, notify := Classify(prev, cur)
	if !notify {
		return Event{}, false
	}

	return Event{
		UserID:        userID,
		SKU:           sku,
		Kind:          kind,
		Quantity:      cur.Quantity,
		QuantityDelta: cur.Quantity - prev.Quantity,
	}, true
}

// Tracked reports how many (user, sku) pairs have a recorded baseline.
func (t *Tracker) Tracked() int {
	return len(t.states)
}
