package main

import (
	"net"
	"sync"
	"time"

	"github.com/umbra-proxy/go-umbra/core"
)

const udpBufSize = 64 * 1024

var bufPool = sync.Pool{New: func() interface{} { return make([]byte, udpBufSize) }}

// Listen on laddr for UDP packets, encrypt and send them to server.
func udpLocal(laddr, server string, ciph core.ConnCipher) {
	srvAddr, err := net.ResolveUDPAddr("udp", server)
	if err != nil {
		logger.Error("UDP server address error", "server", server, "err", err)
		return
	}

	c, err := net.ListenPacket("udp", laddr)
	if err != nil {
		logger.Error("UDP local listen error", "addr", laddr, "err", err)
		return
	}
	defer c.Close()

	m := make(map[string]chan []byte)
	var lock sync.Mutex

	logger.Info("UDP tunnel entrance", "listen", laddr, "server", server)
	for {
		buf := bufPool.Get().([]byte)
		n, raddr, err := c.ReadFrom(buf)
		if err != nil {
			logger.Error("UDP local read error", "err", err)
			bufPool.Put(buf)
			continue
		}

		lock.Lock()
		k := raddr.String()
		ch := m[k]
		if ch == nil {
			pc, err := net.ListenPacket("udp", "")
			if err != nil {
				logger.Error("failed to create UDP socket", "err", err)
				goto Unlock
			}
			pc = ciph.PacketConn(pc)
			ch = make(chan []byte, 1) // must use buffered chan
			m[k] = ch

			go func() { // recv from user and send to the server
				for buf := range ch {
					pc.SetReadDeadline(time.Now().Add(config.UDPTimeout.Duration)) // extend read timeout
					if _, err := pc.WriteTo(buf, srvAddr); err != nil {
						logger.Error("UDP local write error", "err", err)
					}
					bufPool.Put(buf[:cap(buf)])
				}
			}()

			go func() { // recv from the server and send to user
				if err := timedCopy(raddr, c, pc, config.UDPTimeout.Duration); err != nil {
					if err, ok := err.(net.Error); ok && err.Timeout() {
						// ignore i/o timeout
					} else {
						logger.Error("UDP copy error", "err", err)
					}
				}
				pc.Close()
				lock.Lock()
				if ch := m[k]; ch != nil {
					close(ch)
				}
				delete(m, k)
				lock.Unlock()
			}()
		}
	Unlock:
		// send while holding the lock so the cleanup goroutine cannot
		// close ch between the send and the Unlock
		select {
		case ch <- buf[:n]: // send
		default: // drop
			bufPool.Put(buf)
		}
		lock.Unlock()
	}
}

// Listen on addr for encrypted packets and forward them to target.
func udpRemote(addr, target string, ciph core.ConnCipher) {
	tgtAddr, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		logger.Error("UDP target address error", "target", target, "err", err)
		return
	}

	c, err := core.ListenPacket("udp", addr, ciph)
	if err != nil {
		logger.Error("UDP remote listen error", "addr", addr, "err", err)
		return
	}
	defer c.Close()

	m := make(map[string]chan []byte)
	var lock sync.Mutex

	logger.Info("UDP tunnel exit", "listen", addr, "forward", target)
	for {
		buf := bufPool.Get().([]byte)
		n, raddr, err := c.ReadFrom(buf)
		if err != nil {
			logger.Error("UDP remote read error", "err", err)
			bufPool.Put(buf)
			continue
		}

		lock.Lock()
		k := raddr.String()
		ch := m[k]
		if ch == nil {
			pc, err := net.ListenPacket("udp", "")
			if err != nil {
				logger.Error("failed to create UDP socket", "err", err)
				goto Unlock
			}
			ch = make(chan []byte, 1) // must use buffered chan
			m[k] = ch

			go func() { // recv from the tunnel and send to target
				for buf := range ch {
					pc.SetReadDeadline(time.Now().Add(config.UDPTimeout.Duration)) // extend read timeout
					if _, err := pc.WriteTo(buf, tgtAddr); err != nil {
						logger.Error("UDP remote write error", "err", err)
					}
					bufPool.Put(buf[:cap(buf)])
				}
			}()

			go func() { // recv from target and send back through the tunnel
				if err := timedCopy(raddr, c, pc, config.UDPTimeout.Duration); err != nil {
					if err, ok := err.(net.Error); ok && err.Timeout() {
						// ignore i/o timeout
					} else {
						logger.Error("UDP copy error", "err", err)
					}
				}
				pc.Close()
				lock.Lock()
				if ch := m[k]; ch != nil {
					close(ch)
				}
				delete(m, k)
				lock.Unlock()
			}()
		}
	Unlock:
		// send while holding the lock so the cleanup goroutine cannot
		// close ch between the send and the Unlock
		select {
		case ch <- buf[:n]: // send
		default: // drop
			bufPool.Put(buf)
		}
		lock.Unlock()
	}
}

// copy from src to dst at target with read timeout
func timedCopy(target net.Addr, dst, src net.PacketConn, timeout time.Duration) error {
	buf := bufPool.Get().([]byte)
	defer bufPool.Put(buf)

	for {
		src.SetReadDeadline(time.Now().Add(timeout))
		n, _, err := src.ReadFrom(buf)
		if err != nil {
			return err
		}

		if _, err = dst.WriteTo(buf[:n], target); err != nil {
			return err
		}
	}
}
