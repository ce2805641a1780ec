package channel

import "golang.org/x/sync/singleflight"

// SingleflightConnector de-duplicates concurrent connect attempts that
// share the same key — e.g. two channels configured against the same
// physical serial port or TCP endpoint, both backing off and retrying at
// once. Only one of them actually dials; the rest block on and share its
// result.
type SingleflightConnector struct {
	group *singleflight.Group
	key   string
	inner Connector
}

// NewSingleflightConnector wraps inner so concurrent Connect calls made
// through the same group with the same key collapse into one dial. group
// is typically shared across every Channel attached to the same physical
// resource; key identifies that resource (an address, a device path).
func NewSingleflightConnector(group *singleflight.Group, key string, inner Connector) *SingleflightConnector {
	return &SingleflightConnector{group: group, key: key, inner: inner}
}

func (c *SingleflightConnector) Connect() (Transport, error) {
	v, err, _ := c.group.Do(c.key, func() (interface{}, error) {
		return c.inner.Connect()
	})
	if err != nil {
		return nil, err
	}
	return v.(Transport), nil
}
