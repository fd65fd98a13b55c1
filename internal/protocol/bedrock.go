package protocol

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// RakNet unconnected (offline) message IDs used by the Bedrock status ping.
const (
	raknetUnconnectedPingID = 0x01
	raknetUnconnectedPongID = 0x1c
)

// raknetMagic is the fixed 16-byte constant identifying valid offline
// RakNet messages.
var raknetMagic = [16]byte{
	0x00, 0xff, 0xff, 0x00, 0xfe, 0xfe, 0xfe, 0xfe,
	0xfd, 0xfd, 0xfd, 0xfd, 0x12, 0x34, 0x56, 0x78,
}

// bedrockClientGUID identifies this client in unconnected pings. Servers do
// not care about the value, only that one is present.
var bedrockClientGUID = rand.Int63()

// BedrockStatus is the decoded Bedrock unconnected pong.
type BedrockStatus struct {
	Edition         string
	VersionName     string
	ProtocolVersion int64
	OnlinePlayers   int64
	MaxPlayers      int64
	ServerID        string
	// Description is the MOTD; when the pong carries a second MOTD line it
	// is appended on its own line.
	Description string
	GameMode    string
	PortV4      int64
	PortV6      int64
	Latency     time.Duration
}

// PingBedrock performs one RakNet unconnected ping/pong exchange against
// host:port and decodes the reply.
func PingBedrock(ctx context.Context, host string, port int, timeout time.Duration) (*BedrockStatus, error) {
	raddr, err := resolveUDP(ctx, host, port)
	if err != nil {
		return nil, fmt.Errorf("bedrock probe: %w", err)
	}

	ping := buildUnconnectedPing(time.Now())

	// Latency covers send to reply; resolution is deliberately excluded.
	start := time.Now()
	reply, err := exchangeUDP(ctx, raddr, ping, timeout)
	if err != nil {
		return nil, fmt.Errorf("bedrock probe: %w", err)
	}
	latency := time.Since(start)

	payload, err := decodeUnconnectedPong(reply)
	if err != nil {
		return nil, fmt.Errorf("bedrock probe: %w", err)
	}

	status, err := parseBedrockPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("bedrock probe: %w", err)
	}
	status.Latency = latency

	return status, nil
}

// buildUnconnectedPing assembles the ping datagram: message id, send
// timestamp, offline-message magic and client GUID.
func buildUnconnectedPing(now time.Time) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 1+8+16+8))

	buf.WriteByte(raknetUnconnectedPingID)
	_ = binary.Write(buf, binary.BigEndian, now.UnixMilli())
	buf.Write(raknetMagic[:])
	_ = binary.Write(buf, binary.BigEndian, bedrockClientGUID)

	return buf.Bytes()
}

// decodeUnconnectedPong validates the pong framing and returns the server
// status payload string. Layout: id, ping timestamp, server GUID, magic,
// length-prefixed payload.
func decodeUnconnectedPong(datagram []byte) (string, error) {
	const headerLen = 1 + 8 + 8 + 16 + 2

	if len(datagram) < headerLen {
		return "", fmt.Errorf("%w: pong too short (%d bytes)", ErrMalformedResponse, len(datagram))
	}
	if datagram[0] != raknetUnconnectedPongID {
		return "", fmt.Errorf("%w: expected pong id %#x, got %#x", ErrMalformedResponse, raknetUnconnectedPongID, datagram[0])
	}
	if !bytes.Equal(datagram[17:33], raknetMagic[:]) {
		return "", fmt.Errorf("%w: bad offline message magic", ErrMalformedResponse)
	}

	payloadLen := int(binary.BigEndian.Uint16(datagram[33:35]))
	payload := datagram[headerLen:]
	if payloadLen < len(payload) {
		payload = payload[:payloadLen]
	}

	return string(payload), nil
}

// parseBedrockPayload splits the semicolon-delimited pong payload:
// edition;motd1;protocol;version;online;max;serverId;motd2;gamemode;...
// Numeric fields parse leniently to 0; only a grossly short payload is an
// error.
func parseBedrockPayload(payload string) (*BedrockStatus, error) {
	fields := splitPongPayload(payload)
	if len(fields) < 6 {
		return nil, fmt.Errorf("%w: pong payload has %d fields", ErrMalformedResponse, len(fields))
	}

	field := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	status := &BedrockStatus{
		Edition:         field(0),
		Description:     field(1),
		ProtocolVersion: lenientInt(field(2)),
		VersionName:     field(3),
		OnlinePlayers:   lenientInt(field(4)),
		MaxPlayers:      lenientInt(field(5)),
		ServerID:        field(6),
		GameMode:        field(8),
		PortV4:          lenientInt(field(10)),
		PortV6:          lenientInt(field(11)),
	}

	if motd2 := field(7); motd2 != "" {
		status.Description += "\n" + motd2
	}

	return status, nil
}

// splitPongPayload splits on unescaped semicolons; servers escape literal
// semicolons in MOTD text with a backslash.
func splitPongPayload(s string) []string {
	var (
		tokens  []string
		current strings.Builder
		escaped bool
	)

	for _, r := range s {
		switch {
		case escaped:
			escaped = false
			current.WriteRune(r)
		case r == '\\':
			escaped = true
		case r == ';':
			tokens = append(tokens, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	return append(tokens, current.String())
}

func lenientInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
