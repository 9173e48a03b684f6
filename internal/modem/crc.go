package modem

// crc8Poly is the CRC-8 generator polynomial (x^8 + x^2 + x + 1).
const crc8Poly = 0x07

// crc8 computes a CRC-8 checksum over the payload bytes of a frame.
type crc8 struct {
	crc uint8
}

func (c *crc8) reset() {
	c.crc = 0
}

func (c *crc8) update(b byte) {
	c.crc ^= b
	for i := 0; i < 8; i++ {
		if c.crc&0x80 != 0 {
			c.crc = (c.crc << 1) ^ crc8Poly
		} else {
			c.crc <<= 1
		}
	}
}

func (c *crc8) sum() byte {
	return c.crc
}

// crc8Sum is a convenience for one-shot checksums.
func crc8Sum(data []byte) byte {
	var c crc8
	for _, b := range data {
		c.update(b)
	}
	return c.sum()
}
