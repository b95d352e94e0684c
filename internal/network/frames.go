// Package network - frames.go
// Binary frame packets for the video stream.
//
// Frames go out as WebSocket binary messages so spectator clients can
// decode them without touching the JSON control channel. The layout is
// fixed-size header + encoded payload, all multi-byte fields big endian:
//
//	offset  size  field
//	0       4     magic "FVF1"
//	4       1     version (currently 1)
//	5       1     encoding (1 = PNG)
//	6       2     reserved (zero)
//	8       2     width in pixels
//	10      2     height in pixels
//	12      8     tick the frame was rendered on
//	20      -     payload
package network

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	frameMagic      = "FVF1"
	frameVersion    = 1
	frameHeaderSize = 20
)

// Frame payload encodings.
const (
	EncodingPNG uint8 = 1
)

// FramePacket is one rendered frame ready for the wire.
type FramePacket struct {
	Encoding uint8
	Width    uint16
	Height   uint16
	Tick     uint64
	Payload  []byte
}

// EncodeFramePacket serializes a frame packet into wire format.
func EncodeFramePacket(p FramePacket) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, frameHeaderSize+len(p.Payload)))
	buf.WriteString(frameMagic)
	buf.WriteByte(frameVersion)
	buf.WriteByte(p.Encoding)
	buf.Write([]byte{0, 0}) // reserved
	binary.Write(buf, binary.BigEndian, p.Width)
	binary.Write(buf, binary.BigEndian, p.Height)
	binary.Write(buf, binary.BigEndian, p.Tick)
	buf.Write(p.Payload)
	return buf.Bytes()
}

// DecodeFramePacket parses a wire-format frame packet.
func DecodeFramePacket(data []byte) (*FramePacket, error) {
	if len(data) < frameHeaderSize {
		return nil, fmt.Errorf("frame packet is %d bytes, header needs %d", len(data), frameHeaderSize)
	}
	if string(data[0:4]) != frameMagic {
		return nil, fmt.Errorf("not a frame packet (magic %q)", data[0:4])
	}
	if data[4] != frameVersion {
		return nil, fmt.Errorf("unsupported frame packet version %d", data[4])
	}

	p := &FramePacket{
		Encoding: data[5],
		Width:    binary.BigEndian.Uint16(data[8:10]),
		Height:   binary.BigEndian.Uint16(data[10:12]),
		Tick:     binary.BigEndian.Uint64(data[12:20]),
	}
	p.Payload = make([]byte, len(data)-frameHeaderSize)
	copy(p.Payload, data[frameHeaderSize:])
	return p, nil
}
