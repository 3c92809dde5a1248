package main

import (
	"io"
	"net"
	"time"

	"github.com/umbra-proxy/go-umbra/core"
)

// Listen on addr and forward every connection through the tunnel.
func tcpLocal(addr string, d Dialer) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen", "addr", addr, "err", err)
		return
	}

	logger.Info("tunnel entrance", "listen", addr)
	for {
		c, err := ln.Accept()
		if err != nil {
			logger.Error("failed to accept", "err", err)
			continue
		}
		go tcpLocalHandle(c, d)
	}
}

func tcpLocalHandle(c net.Conn, d Dialer) {
	defer c.Close()

	sc, err := d.Dial()
	if err != nil {
		logger.Error("failed to connect to server", "err", err)
		return
	}
	defer sc.Close()

	logger.Debug("proxy", "from", c.RemoteAddr())
	if _, _, err = relay(sc, c); err != nil {
		if err, ok := err.(net.Error); ok && err.Timeout() {
			return // ignore i/o timeout
		}
		logger.Error("relay error", "err", err)
	}
}

// Listen on addr for encrypted connections and forward the plaintext
// stream to target.
func tcpRemote(addr, target string, ciph core.ConnCipher) {
	ln, err := core.Listen("tcp", addr, ciph)
	if err != nil {
		logger.Error("failed to listen", "addr", addr, "err", err)
		return
	}

	logger.Info("tunnel exit", "listen", addr, "forward", target)
	for {
		c, err := ln.Accept()
		if err != nil {
			logger.Error("failed to accept", "err", err)
			continue
		}
		go tcpRemoteHandle(c, target)
	}
}

func tcpRemoteHandle(c net.Conn, target string) {
	defer c.Close()

	rc, err := net.Dial("tcp", target)
	if err != nil {
		logger.Error("failed to connect to target", "target", target, "err", err)
		return
	}
	defer rc.Close()

	logger.Debug("proxy", "from", c.RemoteAddr(), "to", target)
	if _, _, err = relay(c, rc); err != nil {
		if err, ok := err.(net.Error); ok && err.Timeout() {
			return // ignore i/o timeout
		}
		logger.Error("relay error", "err", err)
	}
}

// relay copies between left and right bidirectionally. Returns number of
// bytes copied from right to left, from left to right, and any error occurred.
func relay(left, right net.Conn) (int64, int64, error) {
	type res struct {
		N   int64
		Err error
	}
	ch := make(chan res)

	go func() {
		n, err := io.Copy(right, left)
		right.SetDeadline(time.Now()) // wake up the other goroutine blocking on right
		left.SetDeadline(time.Now())  // wake up the other goroutine blocking on left
		ch <- res{n, err}
	}()

	n, err := io.Copy(left, right)
	right.SetDeadline(time.Now()) // wake up the other goroutine blocking on right
	left.SetDeadline(time.Now())  // wake up the other goroutine blocking on left
	rs := <-ch

	if err == nil {
		err = rs.Err
	}
	return n, rs.N, err
}
