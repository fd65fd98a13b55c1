package protocol

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Java Edition status subprotocol packet IDs (all states use VarInt framing:
// the packet body is prefixed with its length, the body starts with the
// packet ID, both as VarInts).
const (
	javaHandshakePacketID      = 0x00
	javaStatusRequestPacketID  = 0x00
	javaStatusResponsePacketID = 0x00

	// javaNextStateStatus is the handshake next-state value requesting the
	// status flow rather than login.
	javaNextStateStatus = 1

	// javaProtocolVersionUndefined is the sentinel protocol version sent in
	// a preflight status ping, meaning "any version".
	javaProtocolVersionUndefined = -1

	javaFaviconPrefix = "data:image/png;base64,"

	// javaMaxResponseLen caps the accepted status response payload. Real
	// responses are a few KiB; anything larger is treated as garbage.
	javaMaxResponseLen = 1 << 21
)

// PlayerSample is one entry of the sampled online-player list.
type PlayerSample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// JavaStatus is the decoded Java Edition status response.
type JavaStatus struct {
	VersionName     string
	ProtocolVersion int64
	OnlinePlayers   int64
	MaxPlayers      int64
	Sample          []PlayerSample
	Description     string
	// Favicon holds the server icon as raw base64 PNG, with the data-URI
	// prefix already stripped. Empty when the server sent none.
	Favicon string
	Latency time.Duration
}

// javaStatusMapping mirrors the status response JSON document.
type javaStatusMapping struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int64  `json:"protocol"`
	} `json:"version"`
	Players struct {
		Max    int64          `json:"max"`
		Online int64          `json:"online"`
		Sample []PlayerSample `json:"sample"`
	} `json:"players"`
	Description json.RawMessage `json:"description"`
	Favicon     string          `json:"favicon"`
}

// PingJava performs one Java Edition handshake + status request exchange
// against host:port and decodes the response. Latency covers the time from
// sending the handshake to receiving the full status response.
func PingJava(ctx context.Context, host string, port int, timeout time.Duration) (*JavaStatus, error) {
	conn, cleanup, err := dialTCP(ctx, host, port, timeout)
	if err != nil {
		return nil, fmt.Errorf("java probe: %w", err)
	}
	defer cleanup()

	start := time.Now()

	if err := writeJavaHandshake(conn, host, port); err != nil {
		return nil, fmt.Errorf("java probe: write handshake: %w", classify(err))
	}
	if err := writeJavaPacket(conn, javaStatusRequestPacketID, nil); err != nil {
		return nil, fmt.Errorf("java probe: write status request: %w", classify(err))
	}

	payload, err := readJavaStatusResponse(bufio.NewReader(conn))
	if err != nil {
		return nil, fmt.Errorf("java probe: %w", classify(err))
	}

	latency := time.Since(start)

	status, err := parseJavaStatus(payload)
	if err != nil {
		return nil, fmt.Errorf("java probe: %w", err)
	}
	status.Latency = latency

	return status, nil
}

// writeJavaPacket frames and writes one packet: VarInt total length, VarInt
// packet ID, then the body.
func writeJavaPacket(w io.Writer, packetID uint32, body []byte) error {
	b := make([]byte, binary.MaxVarintLen32)

	content := bytes.NewBuffer(make([]byte, 0, len(body)+binary.MaxVarintLen32))
	content.Write(b[:binary.PutUvarint(b, uint64(packetID))])
	content.Write(body)

	packet := bytes.NewBuffer(make([]byte, 0, content.Len()+binary.MaxVarintLen32))
	packet.Write(b[:binary.PutUvarint(b, uint64(content.Len()))])
	_, _ = content.WriteTo(packet)

	_, err := packet.WriteTo(w)
	return err
}

// writeJavaHandshake writes the handshake packet: protocol version (VarInt),
// server address (VarInt length + UTF-8), server port (big-endian uint16)
// and next-state=status (VarInt).
func writeJavaHandshake(w io.Writer, host string, port int) error {
	b := make([]byte, binary.MaxVarintLen64)
	body := bytes.NewBuffer(make([]byte, 0, len(host)+16))

	body.Write(b[:binary.PutVarint(b, int64(javaProtocolVersionUndefined))])
	body.Write(b[:binary.PutUvarint(b, uint64(len(host)))])
	body.WriteString(host)
	_ = binary.Write(body, binary.BigEndian, uint16(port))
	body.Write(b[:binary.PutUvarint(b, uint64(javaNextStateStatus))])

	return writeJavaPacket(w, javaHandshakePacketID, body.Bytes())
}

// readJavaStatusResponse reads one framed response packet and returns the
// JSON document carried in its length-prefixed string field.
func readJavaStatusResponse(r *bufio.Reader) ([]byte, error) {
	packetLen, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if packetLen == 0 || packetLen > javaMaxResponseLen {
		return nil, fmt.Errorf("%w: implausible packet length %d", ErrMalformedResponse, packetLen)
	}

	packet := make([]byte, packetLen)
	if _, err := io.ReadFull(r, packet); err != nil {
		return nil, err
	}
	pr := bytes.NewReader(packet)

	packetID, err := binary.ReadUvarint(pr)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable packet id", ErrMalformedResponse)
	}
	if packetID != javaStatusResponsePacketID {
		return nil, fmt.Errorf("%w: expected packet id %#x, got %#x", ErrMalformedResponse, javaStatusResponsePacketID, packetID)
	}

	strLen, err := binary.ReadUvarint(pr)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable string length", ErrMalformedResponse)
	}
	if int64(strLen) > int64(pr.Len()) {
		return nil, fmt.Errorf("%w: truncated status string", ErrMalformedResponse)
	}

	payload := make([]byte, strLen)
	if _, err := io.ReadFull(pr, payload); err != nil {
		return nil, fmt.Errorf("%w: truncated status string", ErrMalformedResponse)
	}

	return payload, nil
}

// parseJavaStatus decodes the status JSON document.
func parseJavaStatus(payload []byte) (*JavaStatus, error) {
	var mapping javaStatusMapping
	if err := json.Unmarshal(payload, &mapping); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}

	status := &JavaStatus{
		VersionName:     mapping.Version.Name,
		ProtocolVersion: mapping.Version.Protocol,
		OnlinePlayers:   mapping.Players.Online,
		MaxPlayers:      mapping.Players.Max,
		Description:     descriptionText(mapping.Description),
		Favicon:         strings.TrimPrefix(mapping.Favicon, javaFaviconPrefix),
	}

	// Keep only sample entries carrying a well-formed UUID; servers abuse
	// this list for advertising with bogus ids.
	for _, entry := range mapping.Players.Sample {
		if _, err := uuid.Parse(entry.ID); err != nil {
			continue
		}
		status.Sample = append(status.Sample, entry)
	}

	return status, nil
}

// chatComponent is the subset of the chat component format servers put in
// the description field.
type chatComponent struct {
	Text  string            `json:"text"`
	Extra []json.RawMessage `json:"extra"`
}

// descriptionText normalizes the description field, which is either a plain
// JSON string or a chat component object.
func descriptionText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var comp chatComponent
	if err := json.Unmarshal(raw, &comp); err != nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(comp.Text)
	for _, extra := range comp.Extra {
		sb.WriteString(descriptionText(extra))
	}

	return sb.String()
}
