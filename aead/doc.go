/*
Package aead implements an AEAD-protected secure protocol.

In general, there are two types of connections: stream-oriented and
packet-oriented. Stream-oriented connections (e.g. TCP) assume reliable and
orderly delivery of bytes. Packet-oriented connections (e.g. UDP) assume
unreliable and out-of-order delivery of packets, where each packet is either
delivered intact or lost.

An encrypted stream starts with a random salt, which derives the session
subkey via HKDF-SHA1, followed by any number of encrypted records. Each
encrypted record has the following structure:

	[encrypted payload length]
	[payload length tag]
	[encrypted payload]
	[payload tag]

Payload length is a 2-byte unsigned big-endian integer capped at 0x3FFF
(16383). The higher 2 bits are reserved and must be set to zero. The nonce
starts at zero and is incremented by one after each encrypt/decrypt
operation, as if it were an unsigned little-endian integer.

Each encrypted packet transmitted on a packet-oriented connection has the
following structure:

	[salt]
	[encrypted payload]
	[payload tag]

Packets are encrypted/decrypted independently with their own salt-derived
subkey and an all-zero nonce.
*/
package aead
