package aead

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"net"

	"github.com/umbra-proxy/go-umbra/internal"
)

// ErrRepeatedSalt means the peer reused a session salt, which the replay
// filter rejects.
var ErrRepeatedSalt = errors.New("aead: repeated salt detected")

type writer struct {
	io.Writer
	ciph Cipher
	ss   *Session
	buf  []byte // sealed record scratch
	pbuf []byte // plaintext read scratch
}

// NewWriter wraps an io.Writer with AEAD encryption. A random salt is
// written before the first record.
func NewWriter(w io.Writer, ciph Cipher) io.Writer {
	return &writer{Writer: w, ciph: ciph}
}

func (w *writer) init() error {
	salt := make([]byte, w.ciph.SaltSize())
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return err
	}
	ss, err := NewEncryptSession(w.ciph, salt)
	if err != nil {
		return err
	}
	if _, err = w.Writer.Write(salt); err != nil {
		return err
	}
	w.ss = ss
	w.buf = make([]byte, 0, 2+ss.Overhead()+payloadSizeMask+ss.Overhead())
	w.pbuf = make([]byte, payloadSizeMask)
	return nil
}

// Write encrypts b and writes to the embedded io.Writer.
func (w *writer) Write(b []byte) (int, error) {
	n, err := w.ReadFrom(bytes.NewBuffer(b))
	return int(n), err
}

// ReadFrom reads from the given io.Reader until EOF or error, seals records
// and writes them to the embedded io.Writer. Returns number of bytes read
// from r and any error encountered.
func (w *writer) ReadFrom(r io.Reader) (n int64, err error) {
	if w.ss == nil {
		if err := w.init(); err != nil {
			return 0, err
		}
	}

	for {
		nr, er := r.Read(w.pbuf)
		if nr > 0 {
			n += int64(nr)
			out, ew := w.ss.seal(w.buf[:0], w.pbuf[:nr])
			if ew != nil {
				err = ew
				break
			}
			if _, ew := w.Writer.Write(out); ew != nil {
				err = ew
				break
			}
		}

		if er != nil {
			if er != io.EOF { // ignore EOF as per io.ReaderFrom contract
				err = er
			}
			break
		}
	}

	return n, err
}

type reader struct {
	io.Reader
	ciph   Cipher
	ss     *Session
	rbuf   []byte // raw ciphertext read scratch
	buf    []byte // backing array for decrypted output
	out    []byte // decrypted bytes not yet delivered
	salted bool   // session salt recorded in the replay filter
}

// NewReader wraps an io.Reader with AEAD decryption. The peer's salt is
// consumed from the head of the stream and checked against the replay
// filter.
func NewReader(r io.Reader, ciph Cipher) io.Reader {
	return &reader{Reader: r, ciph: ciph}
}

func (r *reader) init() error {
	salt := make([]byte, r.ciph.SaltSize())
	if _, err := io.ReadFull(r.Reader, salt); err != nil {
		return err
	}
	if internal.TestSalt(salt) {
		return ErrRepeatedSalt
	}
	ss, err := NewDecryptSession(r.ciph, salt)
	if err != nil {
		return err
	}
	r.ss = ss
	r.rbuf = make([]byte, 2+ss.Overhead()+payloadSizeMask+ss.Overhead())
	return nil
}

// feed decrypts one raw read's worth of ciphertext into r.out. The salt is
// added to the replay filter once the first record authenticates.
func (r *reader) feed(p []byte) error {
	out, err := r.ss.open(r.buf[:0], p)
	if err != nil {
		return err
	}
	if len(out) > 0 && !r.salted {
		r.salted = true
		internal.AddSalt(r.ss.Salt())
	}
	r.buf = out
	r.out = out
	return nil
}

// Read reads from the embedded io.Reader, decrypts and writes to b.
func (r *reader) Read(b []byte) (int, error) {
	if r.ss == nil {
		if err := r.init(); err != nil {
			return 0, err
		}
	}

	for len(r.out) == 0 {
		nr, er := r.Reader.Read(r.rbuf)
		if nr > 0 {
			if err := r.feed(r.rbuf[:nr]); err != nil {
				return 0, err
			}
		}
		if er != nil {
			if len(r.out) == 0 {
				return 0, er
			}
			break // deliver what the final bytes completed first
		}
	}

	n := copy(b, r.out)
	r.out = r.out[n:]
	return n, nil
}

// drain writes buffered decrypted bytes to w.
func (r *reader) drain(w io.Writer) (int64, error) {
	var n int64
	for len(r.out) > 0 {
		nw, ew := w.Write(r.out)
		n += int64(nw)
		r.out = r.out[nw:]
		if ew != nil {
			return n, ew
		}
	}
	return n, nil
}

// WriteTo reads from the embedded io.Reader, decrypts and writes to w until
// there's no more data to write or when an error occurs. Return number of
// bytes written to w and any error encountered.
func (r *reader) WriteTo(w io.Writer) (n int64, err error) {
	if r.ss == nil {
		if err := r.init(); err != nil {
			return 0, err
		}
	}

	for {
		nw, ew := r.drain(w)
		n += nw
		if ew != nil {
			return n, ew
		}

		nr, er := r.Reader.Read(r.rbuf)
		if nr > 0 {
			if err := r.feed(r.rbuf[:nr]); err != nil {
				return n, err
			}
		}
		if er != nil {
			nw, ew := r.drain(w)
			n += nw
			if ew != nil {
				return n, ew
			}
			if er != io.EOF { // ignore EOF as per io.Copy contract (using src.WriteTo shortcut)
				err = er
			}
			return n, err
		}
	}
}

type streamConn struct {
	net.Conn
	r *reader
	w *writer
}

type closeWriter interface {
	CloseWrite() error
}

type closeReader interface {
	CloseRead() error
}

func (c *streamConn) Read(b []byte) (int, error) {
	return c.r.Read(b)
}

func (c *streamConn) WriteTo(w io.Writer) (int64, error) {
	return c.r.WriteTo(w)
}

func (c *streamConn) Write(b []byte) (int, error) {
	return c.w.Write(b)
}

func (c *streamConn) ReadFrom(r io.Reader) (int64, error) {
	return c.w.ReadFrom(r)
}

func (c *streamConn) CloseRead() error {
	if c, ok := c.Conn.(closeReader); ok {
		return c.CloseRead()
	}
	return nil
}

func (c *streamConn) CloseWrite() error {
	if c, ok := c.Conn.(closeWriter); ok {
		return c.CloseWrite()
	}
	return nil
}

// NewConn wraps a stream-oriented net.Conn with AEAD protection.
func NewConn(c net.Conn, ciph Cipher) net.Conn {
	r := &reader{Reader: c, ciph: ciph}
	w := &writer{Writer: c, ciph: ciph}
	return &streamConn{Conn: c, r: r, w: w}
}
