package main

import (
	"net"
	"sync/atomic"
	"time"
)

// Dialer opens encrypted connections to a tunnel server.
type Dialer interface {
	Dial() (net.Conn, error)
}

type dialer struct {
	dialTime    int64        // time to dial in nanoseconds (exponentially smoothed)
	lastUpdated atomic.Value // of time.Time
	server      string
	shadow      func(net.Conn) net.Conn
}

// newDialer builds a dialer for a server URL, falling back to the flag
// cipher and password when the URL carries none.
func newDialer(u string) (*dialer, error) {
	addr, cipher, password, err := parseURL(u)
	if err != nil {
		return nil, err
	}
	ciph, err := pickCipher(cipher, password)
	if err != nil {
		return nil, err
	}
	d := &dialer{server: addr, shadow: ciph.StreamConn}
	d.lastUpdated.Store(time.Time{})
	return d, nil
}

func (d *dialer) Dial() (net.Conn, error) {
	c, err := d.dial()
	if err != nil {
		return c, err
	}
	if tc, ok := c.(*net.TCPConn); ok {
		tc.SetKeepAlive(true)
	}
	return d.shadow(c), nil
}

func (d *dialer) dial() (net.Conn, error) {
	const timeout = 2 * time.Second
	const wt = 4

	t0 := time.Now()
	c, err := net.DialTimeout("tcp", d.server, timeout)
	td := time.Since(t0)
	if err != nil {
		td = timeout // penalty
	}

	cur := td.Nanoseconds()
	if old := atomic.LoadInt64(&d.dialTime); old > 0 {
		cur = (wt*old + cur) / (wt + 1) // exponentially weighted moving average
	}
	atomic.StoreInt64(&d.dialTime, cur)
	logger.Debug("probe", "server", d.server, "ms", cur/1e6, "err", err)
	d.lastUpdated.Store(time.Now())
	return c, err
}

// Actively measure average dial time while the dialer is idle.
func (d *dialer) probe() {
	const interval = 10 * time.Second
	for {
		age := time.Since(d.lastUpdated.Load().(time.Time))
		if age > interval {
			if c, err := d.dial(); err == nil {
				c.Close()
			}
		} else {
			time.Sleep(interval - age)
		}
	}
}

type priorityDialer struct {
	dialers []*dialer
}

// newPriorityDialer dials through whichever server currently answers
// fastest. Probing only runs when there is a choice to make.
func newPriorityDialer(u ...string) (*priorityDialer, error) {
	var dialers []*dialer

	for _, each := range u {
		d, err := newDialer(each)
		if err != nil {
			return nil, err
		}
		dialers = append(dialers, d)
	}

	if len(dialers) > 1 {
		for _, d := range dialers {
			go d.probe()
		}
	}

	return &priorityDialer{dialers}, nil
}

const maxInt64 = int64(1<<63 - 1)

func (d *priorityDialer) Dial() (net.Conn, error) {
	tMin := maxInt64
	var dMin *dialer
	for _, each := range d.dialers {
		if t := atomic.LoadInt64(&each.dialTime); t < tMin {
			dMin, tMin = each, t
		}
	}
	if len(d.dialers) > 1 {
		logger.Debug("best server", "server", dMin.server, "ms", tMin/1e6)
	}
	return dMin.Dial()
}
